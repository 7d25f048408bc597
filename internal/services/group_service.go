package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/study-group-api/internal/authz"
	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/repository"
	"github.com/yukikurage/study-group-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound         = errors.New("group not found")
	ErrGroupNameRequired     = errors.New("group name is required")
	ErrGroupNameTaken        = errors.New("group name already exists")
	ErrGroupConflict         = errors.New("group name or join code already in use")
	ErrGroupAccessDenied     = errors.New("you do not have access to this group")
	ErrNotGroupCreator       = errors.New("only the group creator can perform this action")
	ErrAlreadyGroupMember    = errors.New("user is already a member of this group")
	ErrNotGroupMember        = errors.New("user is not a member of this group")
	ErrInvalidJoinCode       = errors.New("invalid join code")
	ErrLastMemberCannotLeave = errors.New("the last member cannot leave the group; delete it instead")
	ErrJoinCodeGeneration    = errors.New("failed to generate join code")
	ErrGroupNotPrivate       = errors.New("public groups have no join code")
	ErrCannotRemoveCreator   = errors.New("the group creator cannot be removed")
	ErrGroupMemberNotFound   = errors.New("group member not found")
)

// GroupService provides business logic for group operations. Every
// method takes the acting principal explicitly; nil means anonymous.
type GroupService struct {
	groupRepo    repository.GroupRepository
	generateCode func() (string, error)
}

// NewGroupService creates a new GroupService.
func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{
		groupRepo:    groupRepo,
		generateCode: utils.GenerateJoinCode,
	}
}

// CreateGroupInput represents parameters to create a new group.
type CreateGroupInput struct {
	Name        string
	Description string
	// IsPrivate defaults to true when nil.
	IsPrivate *bool
}

// UpdateGroupInput holds the fields to change; nil fields are left alone.
type UpdateGroupInput struct {
	Name        *string
	Description *string
	IsPrivate   *bool
}

// Create creates a group with the principal as creator and sole member.
func (s *GroupService) Create(ctx context.Context, principal *models.User, input CreateGroupInput) (*models.Group, error) {
	if principal == nil {
		return nil, ErrAuthenticationRequired
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrGroupNameRequired
	}
	if err := s.ensureNameAvailable(ctx, name, 0); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatorID:   principal.ID,
		IsPrivate:   input.IsPrivate == nil || *input.IsPrivate,
	}
	if group.IsPrivate {
		code, err := s.generateCode()
		if err != nil {
			return nil, ErrJoinCodeGeneration
		}
		group.JoinCode = &code
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrGroupConflict
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return s.reload(ctx, group.ID)
}

// List returns the groups visible to the principal, newest first.
func (s *GroupService) List(ctx context.Context, principal *models.User, page *utils.PaginationParams) ([]models.Group, error) {
	groups, err := s.groupRepo.ListVisible(ctx, principalID(principal), page)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// Get returns a group if the principal may see it.
func (s *GroupService) Get(ctx context.Context, groupID uint64, principal *models.User) (*models.Group, error) {
	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !authz.CanViewGroup(group, principalID(principal)) {
		return nil, ErrGroupAccessDenied
	}

	return group, nil
}

// Join adds the principal to a group. Private groups require the exact
// join code.
func (s *GroupService) Join(ctx context.Context, groupID uint64, principal *models.User, joinCode string) (*models.Group, error) {
	if principal == nil {
		return nil, ErrAuthenticationRequired
	}

	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if authz.IsMember(group, principal.ID) {
		return nil, ErrAlreadyGroupMember
	}

	if group.IsPrivate {
		if group.JoinCode == nil || !utils.IsValidJoinCode(joinCode) || joinCode != *group.JoinCode {
			return nil, ErrInvalidJoinCode
		}
	}

	added, err := s.groupRepo.AddMember(ctx, group.ID, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add member to group: %w", err)
	}
	if !added {
		return nil, ErrAlreadyGroupMember
	}

	return s.reload(ctx, group.ID)
}

// Leave removes the principal, and only the principal, from a group.
func (s *GroupService) Leave(ctx context.Context, groupID uint64, principal *models.User) (*models.Group, error) {
	if principal == nil {
		return nil, ErrAuthenticationRequired
	}

	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !authz.IsMember(group, principal.ID) {
		return nil, ErrNotGroupMember
	}
	if authz.IsLastMember(group, principal.ID) {
		return nil, ErrLastMemberCannotLeave
	}

	removed, err := s.groupRepo.RemoveMember(ctx, group.ID, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove member from group: %w", err)
	}
	if !removed {
		return nil, ErrNotGroupMember
	}

	return s.reload(ctx, group.ID)
}

// Update changes a group's fields. Only the creator may update. Turning a
// group public clears its join code; turning it private issues a new one.
func (s *GroupService) Update(ctx context.Context, groupID uint64, principal *models.User, input UpdateGroupInput) (*models.Group, error) {
	group, err := s.findAsCreator(ctx, groupID, principal)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrGroupNameRequired
		}
		if name != group.Name {
			if err := s.ensureNameAvailable(ctx, name, group.ID); err != nil {
				return nil, err
			}
		}
		group.Name = name
	}

	if input.Description != nil {
		group.Description = strings.TrimSpace(*input.Description)
	}

	if input.IsPrivate != nil {
		switch {
		case *input.IsPrivate && !group.IsPrivate:
			code, err := s.generateCode()
			if err != nil {
				return nil, ErrJoinCodeGeneration
			}
			group.JoinCode = &code
		case !*input.IsPrivate:
			group.JoinCode = nil
		}
		group.IsPrivate = *input.IsPrivate
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrGroupConflict
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return s.reload(ctx, group.ID)
}

// Delete removes a group together with its tasks and memberships.
func (s *GroupService) Delete(ctx context.Context, groupID uint64, principal *models.User) error {
	group, err := s.findAsCreator(ctx, groupID, principal)
	if err != nil {
		return err
	}

	if err := s.groupRepo.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	return nil
}

// RegenerateJoinCode replaces the join code of a private group.
func (s *GroupService) RegenerateJoinCode(ctx context.Context, groupID uint64, principal *models.User) (*models.Group, error) {
	group, err := s.findAsCreator(ctx, groupID, principal)
	if err != nil {
		return nil, err
	}

	if !group.IsPrivate {
		return nil, ErrGroupNotPrivate
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, ErrJoinCodeGeneration
	}
	group.JoinCode = &code

	if err := s.groupRepo.Update(ctx, group); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrGroupConflict
		}
		return nil, fmt.Errorf("failed to update join code: %w", err)
	}

	return s.reload(ctx, group.ID)
}

// RemoveMember lets the creator remove another member from the group.
func (s *GroupService) RemoveMember(ctx context.Context, groupID uint64, principal *models.User, userID uint64) (*models.Group, error) {
	group, err := s.findAsCreator(ctx, groupID, principal)
	if err != nil {
		return nil, err
	}

	if authz.IsGroupCreator(group, userID) {
		return nil, ErrCannotRemoveCreator
	}

	removed, err := s.groupRepo.RemoveMember(ctx, group.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove member from group: %w", err)
	}
	if !removed {
		return nil, ErrGroupMemberNotFound
	}

	return s.reload(ctx, group.ID)
}

func (s *GroupService) find(ctx context.Context, groupID uint64) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return group, nil
}

func (s *GroupService) findAsCreator(ctx context.Context, groupID uint64, principal *models.User) (*models.Group, error) {
	if principal == nil {
		return nil, ErrAuthenticationRequired
	}

	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !authz.IsGroupCreator(group, principal.ID) {
		return nil, ErrNotGroupCreator
	}
	return group, nil
}

// reload fetches the group again so the caller sees the stored members.
func (s *GroupService) reload(ctx context.Context, groupID uint64) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return group, nil
}

func (s *GroupService) ensureNameAvailable(ctx context.Context, name string, exceptID uint64) error {
	existing, err := s.groupRepo.FindByName(ctx, name)
	if err == nil {
		if existing.ID != exceptID {
			return ErrGroupNameTaken
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check group name: %w", err)
	}
	return nil
}
