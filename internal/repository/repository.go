package repository

import (
	"context"

	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user; the model hook hashes the password
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	// Create creates a group and its creator membership in one transaction
	Create(ctx context.Context, group *models.Group) error

	// FindByID finds a group with creator and members loaded
	FindByID(ctx context.Context, id uint64) (*models.Group, error)

	// FindByName finds a group by its unique name
	FindByName(ctx context.Context, name string) (*models.Group, error)

	// ListVisible lists public groups plus groups userID belongs to, newest first.
	// A zero userID lists public groups only.
	ListVisible(ctx context.Context, userID uint64, page *utils.PaginationParams) ([]models.Group, error)

	// Update writes the group's own columns
	Update(ctx context.Context, group *models.Group) error

	// Delete deletes a group with its tasks and memberships
	Delete(ctx context.Context, id uint64) error

	// AddMember inserts a membership; false means it already existed
	AddMember(ctx context.Context, groupID, userID uint64) (bool, error)

	// RemoveMember deletes a membership; false means there was none
	RemoveMember(ctx context.Context, groupID, userID uint64) (bool, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task with creator and assignee loaded
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// ListByGroup lists a group's tasks by due date, undated last
	ListByGroup(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update writes the task's mutable columns, scoped to its group
	Update(ctx context.Context, task *models.Task) error

	// Delete deletes a task, scoped to its group
	Delete(ctx context.Context, groupID, taskID uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	GroupID    uint64
	Status     *models.TaskStatus
	AssigneeID *uint64
}
