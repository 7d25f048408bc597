package dto

import (
	"time"

	"github.com/yukikurage/study-group-api/internal/authz"
	"github.com/yukikurage/study-group-api/internal/models"
)

// GroupMemberDTO represents a member in a group
type GroupMemberDTO struct {
	User     UserSummaryDTO `json:"user"`
	JoinedAt time.Time      `json:"joinedAt"`
}

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	IsPrivate   bool             `json:"isPrivate"`
	JoinCode    *string          `json:"joinCode,omitempty"`
	Creator     UserSummaryDTO   `json:"creator"`
	Members     []GroupMemberDTO `json:"members"`
	MemberCount int              `json:"memberCount"`
	IsMember    bool             `json:"isMember"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ToGroupDTO converts a Group model for the given viewer. The join code is
// only shown to members; viewerID 0 is an anonymous caller.
func ToGroupDTO(group models.Group, viewerID uint64) GroupDTO {
	members := make([]GroupMemberDTO, len(group.Members))
	for i, m := range group.Members {
		members[i] = GroupMemberDTO{
			User:     ToUserSummaryDTO(m.User),
			JoinedAt: m.JoinedAt,
		}
	}

	isMember := viewerID != 0 && authz.IsMember(&group, viewerID)

	dto := GroupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		IsPrivate:   group.IsPrivate,
		Creator:     ToUserSummaryDTO(group.Creator),
		Members:     members,
		MemberCount: len(group.Members),
		IsMember:    isMember,
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.UpdatedAt,
	}
	if group.IsPrivate && (isMember || (viewerID != 0 && authz.IsGroupCreator(&group, viewerID))) {
		dto.JoinCode = group.JoinCode
	}
	return dto
}

// ToGroupDTOs converts a slice of groups for the given viewer
func ToGroupDTOs(groups []models.Group, viewerID uint64) []GroupDTO {
	dtos := make([]GroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = ToGroupDTO(g, viewerID)
	}
	return dtos
}
