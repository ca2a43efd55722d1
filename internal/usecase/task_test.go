package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

func TestCreateTask_MembershipRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	team := f.team(t, "backend", alice)
	outsider := f.user(t, "eve")

	_, err := f.tasks.CreateTask(ctx, CreateTaskInput{ActorID: outsider.ID, TeamID: team.ID, Description: "x"})
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)

	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{
		ActorID:     alice.ID,
		TeamID:      team.ID,
		Description: "x",
		PerformerID: &outsider.ID,
	})
	require.Error(t, err)
	var domainErr *domainErrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainErrors.CodeInvalidInput, domainErr.Code)
	assert.Contains(t, domainErr.Fields, "performer_id")

	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{ActorID: alice.ID, TeamID: team.ID, Description: "   "})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidInput)

	task, err := f.tasks.CreateTask(ctx, CreateTaskInput{ActorID: alice.ID, TeamID: team.ID, Description: "write docs"})
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusOpen, task.Status)
}

func TestUpdateTask_AnyStatusTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	task := f.task(t, f.team(t, "backend", alice), alice, alice)

	for _, status := range []entity.TaskStatus{entity.TaskStatusDone, entity.TaskStatusOpen, entity.TaskStatusProcessing} {
		s := status
		updated, err := f.tasks.UpdateTask(ctx, alice.ID, task.ID, entity.TaskUpdate{Status: &s})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	bad := entity.TaskStatus("archived")
	_, err := f.tasks.UpdateTask(ctx, alice.ID, task.ID, entity.TaskUpdate{Status: &bad})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidInput)

	updated, err := f.tasks.UpdateTask(ctx, alice.ID, task.ID, entity.TaskUpdate{ClearPerformer: true})
	require.NoError(t, err)
	assert.Nil(t, updated.PerformerID)
}

func TestListTeamTasks_StatusFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	team := f.team(t, "backend", alice)
	done := entity.TaskStatusDone

	first := f.task(t, team, alice, nil)
	f.task(t, team, alice, nil)
	_, err := f.tasks.UpdateTask(ctx, alice.ID, first.ID, entity.TaskUpdate{Status: &done})
	require.NoError(t, err)

	all, err := f.tasks.ListTeamTasks(ctx, team.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	finished, err := f.tasks.ListTeamTasks(ctx, team.ID, &done)
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, first.ID, finished[0].ID)
}

func TestDeleteTask_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	team := f.team(t, "backend", alice)
	bob := f.user(t, "bob")
	_, err := f.teams.AddMember(ctx, team.ID, bob.ID, entity.RoleUser)
	require.NoError(t, err)
	task := f.task(t, team, alice, nil)

	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, bob.ID, task.ID), domainErrors.ErrForbidden)
	require.NoError(t, f.tasks.DeleteTask(ctx, alice.ID, task.ID))
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, alice.ID, task.ID), domainErrors.ErrNotFound)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	task := f.task(t, f.team(t, "backend", alice), alice, nil)
	outsider := f.user(t, "eve")

	_, err := f.comments.AddComment(ctx, outsider.ID, task.ID, "hi")
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)

	_, err = f.comments.AddComment(ctx, alice.ID, task.ID, "")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidInput)

	_, err = f.comments.AddComment(ctx, alice.ID, task.ID, "first")
	require.NoError(t, err)
	_, err = f.comments.AddComment(ctx, alice.ID, task.ID, "second")
	require.NoError(t, err)

	comments, err := f.comments.ListComments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	team := f.team(t, "backend", alice)
	first := f.task(t, team, alice, alice)
	second := f.task(t, team, alice, alice)
	f.meeting(t, at(10, 0), at(11, 0), alice.ID)

	_, err := f.evaluations.RecordEvaluation(ctx, alice.ID, first.ID, intPtr(5))
	require.NoError(t, err)
	_, err = f.evaluations.RecordEvaluation(ctx, alice.ID, second.ID, intPtr(2))
	require.NoError(t, err)

	stats, err := f.stats.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalTeams)
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 2, stats.TasksByStatus["open"])
	assert.Equal(t, 0, stats.TasksByStatus["done"])
	assert.Equal(t, 1, stats.TotalMeetings)
	assert.Equal(t, 2, stats.TotalEvaluations)
	assert.InDelta(t, 3.5, stats.AverageByUser["alice"], 0.001)
}
