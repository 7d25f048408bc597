package repository

import (
	"context"
	"time"

	"github.com/yukikurage/study-group-api/internal/database"
	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

func membersByJoinOrder(db *gorm.DB) *gorm.DB {
	return db.Order("joined_at ASC").Order("user_id ASC")
}

func (r *GormGroupRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Members", membersByJoinOrder).
		Preload("Members.User")
}

// Create creates a group and adds its creator as the first member
func (r *GormGroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(group).Error; err != nil {
			return err
		}

		member := models.GroupMember{
			GroupID:  group.ID,
			UserID:   group.CreatorID,
			JoinedAt: time.Now(),
		}
		if err := tx.Omit(clause.Associations).Create(&member).Error; err != nil {
			return err
		}

		group.Members = []models.GroupMember{member}
		return nil
	})
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.withRelations(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByName finds a group by name
func (r *GormGroupRepository) FindByName(ctx context.Context, name string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListVisible lists the groups userID can see
func (r *GormGroupRepository) ListVisible(ctx context.Context, userID uint64, page *utils.PaginationParams) ([]models.Group, error) {
	query := r.withRelations(ctx).Model(&models.Group{})

	if userID == 0 {
		query = query.Where("is_private = ?", false)
	} else {
		memberOf := r.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
		query = query.Where("is_private = ? OR id IN (?)", false, memberOf)
	}

	query = query.Order("created_at DESC").Order("id DESC")
	if page != nil {
		query = query.Scopes(database.Paginate(*page))
	}

	var groups []models.Group
	if err := query.Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Update updates a group's own columns
func (r *GormGroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("id = ?", group.ID).
		Updates(map[string]interface{}{
			"name":        group.Name,
			"description": group.Description,
			"is_private":  group.IsPrivate,
			"join_code":   group.JoinCode,
			"updated_at":  group.UpdatedAt,
		}).Error
}

// Delete deletes a group and all related data in a transaction
func (r *GormGroupRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Delete all tasks in the group
		if err := tx.Where("group_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Delete all members
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}

		// Delete group
		return tx.Delete(&models.Group{}, id).Error
	})
}

// AddMember adds a member to a group
func (r *GormGroupRepository) AddMember(ctx context.Context, groupID, userID uint64) (bool, error) {
	member := models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RemoveMember removes a member from a group
func (r *GormGroupRepository) RemoveMember(ctx context.Context, groupID, userID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
