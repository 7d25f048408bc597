// Package authz holds the permission predicates shared by the group and
// task services. Every function is pure: it inspects already-loaded
// records and never touches storage.
package authz

import (
	"slices"

	"github.com/yukikurage/study-group-api/internal/models"
)

// IsMember reports whether userID appears in the group's member list.
// The group must have been loaded with its Members.
func IsMember(group *models.Group, userID uint64) bool {
	return group != nil && slices.Contains(group.MemberIDs(), userID)
}

// IsGroupCreator reports whether userID created the group. The group
// creator is also the group's only administrator.
func IsGroupCreator(group *models.Group, userID uint64) bool {
	return group != nil && group.CreatorID == userID
}

func IsTaskCreator(task *models.Task, userID uint64) bool {
	return task != nil && task.CreatorID == userID
}

func IsAssignee(task *models.Task, userID uint64) bool {
	return task != nil && task.AssigneeID != nil && *task.AssigneeID == userID
}

// CanViewGroup: public groups are visible to anyone, private groups to
// members only. A zero userID means an anonymous caller.
func CanViewGroup(group *models.Group, userID uint64) bool {
	if group == nil {
		return false
	}
	if !group.IsPrivate {
		return true
	}
	return userID != 0 && IsMember(group, userID)
}

// CanEditTask allows the task creator, its assignee, or the group creator.
// Membership is checked separately by the caller.
func CanEditTask(group *models.Group, task *models.Task, userID uint64) bool {
	return IsTaskCreator(task, userID) || IsAssignee(task, userID) || IsGroupCreator(group, userID)
}

// CanDeleteTask is narrower than CanEditTask: the assignee alone may not
// delete.
func CanDeleteTask(group *models.Group, task *models.Task, userID uint64) bool {
	return IsTaskCreator(task, userID) || IsGroupCreator(group, userID)
}

// IsLastMember reports whether userID is the only remaining member. The
// last member may not leave, so a group never ends up empty; the creator
// deletes the group instead.
func IsLastMember(group *models.Group, userID uint64) bool {
	return group != nil && len(group.Members) == 1 && IsMember(group, userID)
}
