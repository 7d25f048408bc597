package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/study-group-api/internal/dto"
	apierrors "github.com/yukikurage/study-group-api/internal/errors"
	"github.com/yukikurage/study-group-api/internal/middleware"
	"github.com/yukikurage/study-group-api/internal/services"
	"github.com/yukikurage/study-group-api/internal/utils"
)

// GroupHandler serves the group endpoints.
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

// CreateGroup creates a group owned by the caller.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	type CreateGroupRequest struct {
		Name        string `json:"name" binding:"required,max=255"`
		Description string `json:"description"`
		IsPrivate   *bool  `json:"isPrivate"`
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	principal := middleware.GetPrincipal(c)
	group, err := h.groupService.Create(c.Request.Context(), principal, services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGroupDTO(*group, viewerID(principal)))
}

// ListGroups lists public groups plus the caller's own.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	var page *utils.PaginationParams
	if params, ok := utils.GetPaginationParams(c); ok {
		page = &params
	}

	principal := middleware.GetPrincipal(c)
	groups, err := h.groupService.List(c.Request.Context(), principal, page)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	response := gin.H{
		"groups": dto.ToGroupDTOs(groups, viewerID(principal)),
	}
	if page != nil {
		response["page"] = page.Page
		response["limit"] = page.Limit
	}
	c.JSON(http.StatusOK, response)
}

// GetGroup returns one group.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	group, err := h.groupService.Get(c.Request.Context(), middleware.GetIDParam(c, "id"), principal)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group, viewerID(principal)))
}

// UpdateGroup changes name, description or visibility.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	type UpdateGroupRequest struct {
		Name        *string `json:"name" binding:"omitempty,max=255"`
		Description *string `json:"description"`
		IsPrivate   *bool   `json:"isPrivate"`
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	principal := middleware.GetPrincipal(c)
	group, err := h.groupService.Update(c.Request.Context(), middleware.GetIDParam(c, "id"), principal, services.UpdateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group, viewerID(principal)))
}

// DeleteGroup removes a group with its tasks.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if err := h.groupService.Delete(c.Request.Context(), middleware.GetIDParam(c, "id"), principal); err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Group deleted successfully",
	})
}

// JoinGroup adds the caller to a group. The body may be empty for public
// groups.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	type JoinGroupRequest struct {
		JoinCode string `json:"joinCode"`
	}

	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	principal := middleware.GetPrincipal(c)
	group, err := h.groupService.Join(c.Request.Context(), middleware.GetIDParam(c, "id"), principal, req.JoinCode)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group, viewerID(principal)))
}

// LeaveGroup removes the caller from a group.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	group, err := h.groupService.Leave(c.Request.Context(), middleware.GetIDParam(c, "id"), principal)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group, viewerID(principal)))
}

// RegenerateJoinCode issues a new join code for a private group.
func (h *GroupHandler) RegenerateJoinCode(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	group, err := h.groupService.RegenerateJoinCode(c.Request.Context(), middleware.GetIDParam(c, "id"), principal)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group, viewerID(principal)))
}

// RemoveMember removes another member from the group.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	group, err := h.groupService.RemoveMember(
		c.Request.Context(),
		middleware.GetIDParam(c, "id"),
		principal,
		middleware.GetIDParam(c, "userId"),
	)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group, viewerID(principal)))
}

func respondGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAuthenticationRequired):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrGroupMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrGroupAccessDenied),
		errors.Is(err, services.ErrNotGroupCreator),
		errors.Is(err, services.ErrInvalidJoinCode),
		errors.Is(err, services.ErrLastMemberCannotLeave):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrGroupNameRequired),
		errors.Is(err, services.ErrAlreadyGroupMember),
		errors.Is(err, services.ErrNotGroupMember),
		errors.Is(err, services.ErrGroupNotPrivate),
		errors.Is(err, services.ErrCannotRemoveCreator):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrGroupNameTaken),
		errors.Is(err, services.ErrGroupConflict):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, err)
	}
}
