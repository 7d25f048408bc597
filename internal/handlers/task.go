package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/study-group-api/internal/dto"
	apierrors "github.com/yukikurage/study-group-api/internal/errors"
	"github.com/yukikurage/study-group-api/internal/middleware"
	"github.com/yukikurage/study-group-api/internal/services"
)

// TaskHandler serves the group-scoped task endpoints.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// taskRequest keeps dueDate and assignedTo raw so that an explicit null can
// be told apart from an absent field.
type taskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	DueDate     json.RawMessage `json:"dueDate"`
	AssignedTo  json.RawMessage `json:"assignedTo"`
}

func (r taskRequest) optionals() (services.OptionalTime, services.OptionalID, error) {
	dueDate, err := services.ParseOptionalTime(r.DueDate)
	if err != nil {
		return services.OptionalTime{}, services.OptionalID{}, err
	}
	assignee, err := services.ParseOptionalID(r.AssignedTo)
	if err != nil {
		return services.OptionalTime{}, services.OptionalID{}, err
	}
	return dueDate, assignee, nil
}

// ListTasks returns the group's tasks. Supports ?status= and
// ?assignedTo=me.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	input := services.ListTasksInput{Status: c.Query("status")}
	switch c.Query("assignedTo") {
	case "":
	case "me":
		input.AssignedToMe = true
	default:
		apierrors.BadRequest(c, "assignedTo filter only supports 'me'")
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), middleware.GetIDParam(c, "id"), middleware.GetPrincipal(c), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// GetTask returns one task of the group.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(
		c.Request.Context(),
		middleware.GetIDParam(c, "id"),
		middleware.GetIDParam(c, "taskId"),
		middleware.GetPrincipal(c),
	)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a task in the group.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	dueDate, assignee, err := req.optionals()
	if err != nil {
		respondTaskError(c, err)
		return
	}

	input := services.CreateTaskInput{
		DueDate:  dueDate,
		Assignee: assignee,
	}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Status != nil {
		input.Status = *req.Status
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), middleware.GetIDParam(c, "id"), middleware.GetPrincipal(c), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates the fields present in the body. A null assignedTo or
// dueDate clears it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	dueDate, assignee, err := req.optionals()
	if err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(
		c.Request.Context(),
		middleware.GetIDParam(c, "id"),
		middleware.GetIDParam(c, "taskId"),
		middleware.GetPrincipal(c),
		services.UpdateTaskInput{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			DueDate:     dueDate,
			Assignee:    assignee,
		},
	)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	err := h.taskService.DeleteTask(
		c.Request.Context(),
		middleware.GetIDParam(c, "id"),
		middleware.GetIDParam(c, "taskId"),
		middleware.GetPrincipal(c),
	)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAuthenticationRequired):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrMembershipRequired),
		errors.Is(err, services.ErrTaskPermissionDenied),
		errors.Is(err, services.ErrTaskDeleteDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNotInGroup),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrAssigneeNotMember),
		errors.Is(err, services.ErrInvalidAssigneeID),
		errors.Is(err, services.ErrInvalidDueDate):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, err)
	}
}
