package models

import "time"

type GroupMember struct {
	GroupID  uint64    `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	UserID   uint64    `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
