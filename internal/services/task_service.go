package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/study-group-api/internal/authz"
	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMembershipRequired   = errors.New("you must be a member of this group")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskNotInGroup       = errors.New("task does not belong to this group")
	ErrTaskPermissionDenied = errors.New("user does not have permission to modify this task")
	ErrTaskDeleteDenied     = errors.New("only the task creator or the group creator can delete this task")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleEmpty           = errors.New("title cannot be empty")
	ErrInvalidTaskStatus    = errors.New("status must be one of: pending, in progress, completed, overdue")
	ErrAssigneeNotMember    = errors.New("assigned user is not a member of this group")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	groupRepo repository.GroupRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, groupRepo repository.GroupRepository) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		groupRepo: groupRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	// Status defaults to pending when empty.
	Status   string
	DueDate  OptionalTime
	Assignee OptionalID
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     OptionalTime
	Assignee    OptionalID
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status       string
	AssignedToMe bool
}

// CreateTask creates a task in a group the principal belongs to
func (s *TaskService) CreateTask(ctx context.Context, groupID uint64, principal *models.User, input CreateTaskInput) (*models.Task, error) {
	group, err := s.memberGroup(ctx, groupID, principal)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	status := models.TaskStatusPending
	if input.Status != "" {
		status, err = parseStatus(input.Status)
		if err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate.Value,
		GroupID:     group.ID,
		CreatorID:   principal.ID,
	}

	if input.Assignee.Value != nil {
		if !authz.IsMember(group, *input.Assignee.Value) {
			return nil, ErrAssigneeNotMember
		}
		task.AssigneeID = input.Assignee.Value
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// ListTasks returns a group's tasks, soonest due first and undated last
func (s *TaskService) ListTasks(ctx context.Context, groupID uint64, principal *models.User, input ListTasksInput) ([]models.Task, error) {
	group, err := s.memberGroup(ctx, groupID, principal)
	if err != nil {
		return nil, err
	}

	filter := repository.TaskFilter{GroupID: group.ID}
	if input.Status != "" {
		status, err := parseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if input.AssignedToMe {
		filter.AssigneeID = &principal.ID
	}

	tasks, err := s.taskRepo.ListByGroup(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// GetTask returns a task of a group the principal belongs to
func (s *TaskService) GetTask(ctx context.Context, groupID, taskID uint64, principal *models.User) (*models.Task, error) {
	group, err := s.memberGroup(ctx, groupID, principal)
	if err != nil {
		return nil, err
	}

	return s.groupTask(ctx, group, taskID)
}

// UpdateTask updates a task. The task creator, its assignee and the group
// creator may update it.
func (s *TaskService) UpdateTask(ctx context.Context, groupID, taskID uint64, principal *models.User, input UpdateTaskInput) (*models.Task, error) {
	group, err := s.memberGroup(ctx, groupID, principal)
	if err != nil {
		return nil, err
	}

	task, err := s.groupTask(ctx, group, taskID)
	if err != nil {
		return nil, err
	}

	if !authz.CanEditTask(group, task, principal.ID) {
		return nil, ErrTaskPermissionDenied
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		status, err := parseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		task.Status = status
	}
	if input.DueDate.Set {
		task.DueDate = input.DueDate.Value
	}
	if input.Assignee.Set {
		if input.Assignee.Value != nil && !authz.IsMember(group, *input.Assignee.Value) {
			return nil, ErrAssigneeNotMember
		}
		task.AssigneeID = input.Assignee.Value
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// DeleteTask deletes a task. Only the task creator or the group creator
// may delete; the assignee alone may not.
func (s *TaskService) DeleteTask(ctx context.Context, groupID, taskID uint64, principal *models.User) error {
	group, err := s.memberGroup(ctx, groupID, principal)
	if err != nil {
		return err
	}

	task, err := s.groupTask(ctx, group, taskID)
	if err != nil {
		return err
	}

	if !authz.CanDeleteTask(group, task, principal.ID) {
		return ErrTaskDeleteDenied
	}

	if err := s.taskRepo.Delete(ctx, group.ID, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// memberGroup loads the group and verifies the principal belongs to it
func (s *TaskService) memberGroup(ctx context.Context, groupID uint64, principal *models.User) (*models.Group, error) {
	if principal == nil {
		return nil, ErrAuthenticationRequired
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	if !authz.IsMember(group, principal.ID) {
		return nil, ErrMembershipRequired
	}

	return group, nil
}

func (s *TaskService) groupTask(ctx context.Context, group *models.Group, taskID uint64) (*models.Task, error) {
	task, err := s.reload(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.GroupID != group.ID {
		return nil, ErrTaskNotInGroup
	}
	return task, nil
}

func (s *TaskService) reload(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func parseStatus(raw string) (models.TaskStatus, error) {
	status := models.TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidTaskStatus
	}
	return status, nil
}
