package repository

import (
	"context"
	"time"

	"github.com/yukikurage/study-group-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Assignee").
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByGroup retrieves a group's tasks with optional filters
func (r *GormTaskRepository) ListByGroup(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("tasks.group_id = ?", filter.GroupID)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}

	var tasks []models.Task
	err := query.
		Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END").
		Order("tasks.due_date ASC").
		Order("tasks.created_at DESC").
		Order("tasks.id DESC").
		Preload("Creator").
		Preload("Assignee").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task's mutable fields
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND group_id = ?", task.ID, task.GroupID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"due_date":    task.DueDate,
			"assignee_id": task.AssigneeID,
			"updated_at":  task.UpdatedAt,
		}).Error
}

// Delete deletes a task within its group
func (r *GormTaskRepository) Delete(ctx context.Context, groupID, taskID uint64) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND group_id = ?", taskID, groupID).
		Delete(&models.Task{}).Error
}
