package models

import "time"

type Group struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   uint64    `gorm:"not null;index" json:"creator_id"`
	JoinCode    *string   `gorm:"type:varchar(16);uniqueIndex" json:"join_code,omitempty"`
	IsPrivate   bool      `gorm:"not null" json:"is_private"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Creator User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Tasks   []Task        `gorm:"foreignKey:GroupID" json:"tasks,omitempty"`
}

// MemberIDs returns the ids of the loaded members in stored order.
func (g *Group) MemberIDs() []uint64 {
	ids := make([]uint64, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}
