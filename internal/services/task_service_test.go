package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/study-group-api/internal/models"
)

type TaskServiceSuite struct {
	suite.Suite
	env      *testEnv
	ctx      context.Context
	owner    *models.User
	member   *models.User
	other    *models.User
	outsider *models.User
	group    *models.Group
}

func (s *TaskServiceSuite) SetupTest() {
	t := s.T()
	s.env = newTestEnv(t)
	s.ctx = context.Background()
	s.owner = s.env.user(t, "owner")
	s.member = s.env.user(t, "member")
	s.other = s.env.user(t, "other")
	s.outsider = s.env.user(t, "outsider")

	group, err := s.env.groups.Create(s.ctx, s.owner, CreateGroupInput{Name: "Calculus"})
	s.Require().NoError(err)
	_, err = s.env.groups.Join(s.ctx, group.ID, s.member, *group.JoinCode)
	s.Require().NoError(err)
	group, err = s.env.groups.Join(s.ctx, group.ID, s.other, *group.JoinCode)
	s.Require().NoError(err)
	s.group = group
}

func (s *TaskServiceSuite) createTask(by *models.User, input CreateTaskInput) *models.Task {
	task, err := s.env.tasks.CreateTask(s.ctx, s.group.ID, by, input)
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceSuite) TestCreateTaskDefaults() {
	task := s.createTask(s.member, CreateTaskInput{Title: "  Problem set 1 "})

	s.Equal("Problem set 1", task.Title)
	s.Equal(models.TaskStatusPending, task.Status)
	s.Equal(s.group.ID, task.GroupID)
	s.Equal(s.member.ID, task.CreatorID)
	s.Equal("member", task.Creator.Username)
	s.Nil(task.AssigneeID)
	s.Nil(task.DueDate)
}

func (s *TaskServiceSuite) TestCreateTaskValidation() {
	_, err := s.env.tasks.CreateTask(s.ctx, 9999, s.member, CreateTaskInput{Title: "x"})
	s.ErrorIs(err, ErrGroupNotFound)

	_, err = s.env.tasks.CreateTask(s.ctx, s.group.ID, s.outsider, CreateTaskInput{Title: "x"})
	s.ErrorIs(err, ErrMembershipRequired)

	_, err = s.env.tasks.CreateTask(s.ctx, s.group.ID, s.member, CreateTaskInput{Title: " "})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.env.tasks.CreateTask(s.ctx, s.group.ID, s.member, CreateTaskInput{Title: "x", Status: "done"})
	s.ErrorIs(err, ErrInvalidTaskStatus)

	_, err = s.env.tasks.CreateTask(s.ctx, s.group.ID, s.member, CreateTaskInput{
		Title:    "x",
		Assignee: OptionalID{Set: true, Value: idPtr(s.outsider.ID)},
	})
	s.ErrorIs(err, ErrAssigneeNotMember)

	task, err := s.env.tasks.CreateTask(s.ctx, s.group.ID, s.member, CreateTaskInput{
		Title:    "x",
		Status:   "In Progress",
		Assignee: OptionalID{Set: true, Value: idPtr(s.owner.ID)},
	})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, task.Status)
	s.Require().NotNil(task.Assignee)
	s.Equal(s.owner.ID, task.Assignee.ID)
}

func (s *TaskServiceSuite) TestListTasksOrderingAndFilters() {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	s.createTask(s.member, CreateTaskInput{Title: "undated"})
	s.createTask(s.member, CreateTaskInput{Title: "late", DueDate: OptionalTime{Set: true, Value: timePtr(base.AddDate(0, 0, 9))}})
	s.createTask(s.member, CreateTaskInput{
		Title:    "early",
		DueDate:  OptionalTime{Set: true, Value: timePtr(base)},
		Assignee: OptionalID{Set: true, Value: idPtr(s.other.ID)},
		Status:   "completed",
	})

	tasks, err := s.env.tasks.ListTasks(s.ctx, s.group.ID, s.member, ListTasksInput{})
	s.Require().NoError(err)
	s.Require().Len(tasks, 3)
	s.Equal("early", tasks[0].Title)
	s.Equal("late", tasks[1].Title)
	s.Equal("undated", tasks[2].Title)

	mine, err := s.env.tasks.ListTasks(s.ctx, s.group.ID, s.other, ListTasksInput{AssignedToMe: true})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal("early", mine[0].Title)

	completed, err := s.env.tasks.ListTasks(s.ctx, s.group.ID, s.member, ListTasksInput{Status: "completed"})
	s.Require().NoError(err)
	s.Len(completed, 1)

	_, err = s.env.tasks.ListTasks(s.ctx, s.group.ID, s.member, ListTasksInput{Status: "bogus"})
	s.ErrorIs(err, ErrInvalidTaskStatus)

	_, err = s.env.tasks.ListTasks(s.ctx, s.group.ID, s.outsider, ListTasksInput{})
	s.ErrorIs(err, ErrMembershipRequired)
}

func (s *TaskServiceSuite) TestGetTaskNotInGroup() {
	task := s.createTask(s.member, CreateTaskInput{Title: "x"})

	otherGroup, err := s.env.groups.Create(s.ctx, s.member, CreateGroupInput{Name: "Other", IsPrivate: boolPtr(false)})
	s.Require().NoError(err)

	_, err = s.env.tasks.GetTask(s.ctx, otherGroup.ID, task.ID, s.member)
	s.ErrorIs(err, ErrTaskNotInGroup)

	_, err = s.env.tasks.GetTask(s.ctx, s.group.ID, 9999, s.member)
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.env.tasks.GetTask(s.ctx, s.group.ID, task.ID, s.outsider)
	s.ErrorIs(err, ErrMembershipRequired)

	got, err := s.env.tasks.GetTask(s.ctx, s.group.ID, task.ID, s.other)
	s.Require().NoError(err)
	s.Equal(task.ID, got.ID)
}

func (s *TaskServiceSuite) TestUpdateTaskPermissions() {
	task := s.createTask(s.member, CreateTaskInput{
		Title:    "x",
		Assignee: OptionalID{Set: true, Value: idPtr(s.other.ID)},
	})

	cases := []struct {
		name  string
		actor *models.User
		want  error
	}{
		{"task creator", s.member, nil},
		{"assignee", s.other, nil},
		{"group creator", s.owner, nil},
		{"outsider", s.outsider, ErrMembershipRequired},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.env.tasks.UpdateTask(s.ctx, s.group.ID, task.ID, tc.actor, UpdateTaskInput{Status: strPtr("in progress")})
			if tc.want == nil {
				s.NoError(err)
			} else {
				s.ErrorIs(err, tc.want)
			}
		})
	}

	// A plain member who is neither creator nor assignee.
	unassigned := s.createTask(s.owner, CreateTaskInput{Title: "y"})
	_, err := s.env.tasks.UpdateTask(s.ctx, s.group.ID, unassigned.ID, s.other, UpdateTaskInput{Title: strPtr("z")})
	s.ErrorIs(err, ErrTaskPermissionDenied)
}

func (s *TaskServiceSuite) TestUpdateTaskFields() {
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	task := s.createTask(s.member, CreateTaskInput{
		Title:    "x",
		DueDate:  OptionalTime{Set: true, Value: &due},
		Assignee: OptionalID{Set: true, Value: idPtr(s.other.ID)},
	})

	// Absent fields are left alone.
	updated, err := s.env.tasks.UpdateTask(s.ctx, s.group.ID, task.ID, s.member, UpdateTaskInput{Description: strPtr("notes")})
	s.Require().NoError(err)
	s.Equal("notes", updated.Description)
	s.Require().NotNil(updated.AssigneeID)
	s.Require().NotNil(updated.DueDate)

	_, err = s.env.tasks.UpdateTask(s.ctx, s.group.ID, task.ID, s.member, UpdateTaskInput{
		Assignee: OptionalID{Set: true, Value: idPtr(s.outsider.ID)},
	})
	s.ErrorIs(err, ErrAssigneeNotMember)

	_, err = s.env.tasks.UpdateTask(s.ctx, s.group.ID, task.ID, s.member, UpdateTaskInput{Title: strPtr(" ")})
	s.ErrorIs(err, ErrTitleEmpty)

	_, err = s.env.tasks.UpdateTask(s.ctx, s.group.ID, task.ID, s.member, UpdateTaskInput{Status: strPtr("archived")})
	s.ErrorIs(err, ErrInvalidTaskStatus)

	// Explicit null clears.
	cleared, err := s.env.tasks.UpdateTask(s.ctx, s.group.ID, task.ID, s.member, UpdateTaskInput{
		Assignee: OptionalID{Set: true},
		DueDate:  OptionalTime{Set: true},
	})
	s.Require().NoError(err)
	s.Nil(cleared.AssigneeID)
	s.Nil(cleared.Assignee)
	s.Nil(cleared.DueDate)
}

func (s *TaskServiceSuite) TestDeleteTaskPermissions() {
	task := s.createTask(s.member, CreateTaskInput{
		Title:    "x",
		Assignee: OptionalID{Set: true, Value: idPtr(s.other.ID)},
	})

	s.ErrorIs(s.env.tasks.DeleteTask(s.ctx, s.group.ID, task.ID, s.other), ErrTaskDeleteDenied, "assignee alone cannot delete")
	s.ErrorIs(s.env.tasks.DeleteTask(s.ctx, s.group.ID, task.ID, s.outsider), ErrMembershipRequired)
	s.Require().NoError(s.env.tasks.DeleteTask(s.ctx, s.group.ID, task.ID, s.owner))
	s.ErrorIs(s.env.tasks.DeleteTask(s.ctx, s.group.ID, task.ID, s.owner), ErrTaskNotFound)

	own := s.createTask(s.member, CreateTaskInput{Title: "mine"})
	s.NoError(s.env.tasks.DeleteTask(s.ctx, s.group.ID, own.ID, s.member))
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceSuite))
}

func TestParseOptionalID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantSet bool
		want    *uint64
		wantErr bool
	}{
		{name: "absent", raw: ""},
		{name: "null", raw: "null", wantSet: true},
		{name: "number", raw: "42", wantSet: true, want: idPtr(42)},
		{name: "numeric string", raw: `"7"`, wantSet: true, want: idPtr(7)},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-3", wantErr: true},
		{name: "fraction", raw: "1.5", wantErr: true},
		{name: "garbage string", raw: `"abc"`, wantErr: true},
		{name: "object", raw: `{"id":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptionalID([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAssigneeID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, got.Set)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestParseOptionalTime(t *testing.T) {
	got, err := ParseOptionalTime([]byte(`"2025-03-04T10:00:00+02:00"`))
	require.NoError(t, err)
	require.NotNil(t, got.Value)
	assert.Equal(t, time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC), *got.Value)

	got, err = ParseOptionalTime([]byte(`"2025-03-04"`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), *got.Value)

	got, err = ParseOptionalTime([]byte("null"))
	require.NoError(t, err)
	assert.True(t, got.Set)
	assert.Nil(t, got.Value)

	got, err = ParseOptionalTime(nil)
	require.NoError(t, err)
	assert.False(t, got.Set)

	_, err = ParseOptionalTime([]byte(`"next tuesday"`))
	assert.ErrorIs(t, err, ErrInvalidDueDate)
	_, err = ParseOptionalTime([]byte(`12345`))
	assert.ErrorIs(t, err, ErrInvalidDueDate)
}
