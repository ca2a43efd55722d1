package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

func TestRecordEvaluation_Upsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "alice")
	team := f.team(t, "backend", admin)
	task := f.task(t, team, admin, admin)

	first, err := f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(5))
	require.NoError(t, err)

	second, err := f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(3))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.EvaluationCount())

	got, err := f.evaluations.GetEvaluation(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	assert.Equal(t, 3, *got.Score)
}

func TestEvaluationExists_MapsToConflictCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "alice")
	task := f.task(t, f.team(t, "backend", admin), admin, admin)

	_, err := f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(4))
	require.NoError(t, err)

	now := time.Now().UTC()
	err = f.store.Evaluations().Create(ctx, &entity.Evaluation{ID: uuid.New(), TaskID: task.ID, CreatedAt: now, UpdatedAt: now})
	require.ErrorIs(t, err, domainErrors.ErrEvaluationExists)

	mapped := storageError(err, "task", "create evaluation")
	var domainErr *domainErrors.DomainError
	require.ErrorAs(t, mapped, &domainErr)
	assert.Equal(t, domainErrors.CodeEvaluationExists, domainErr.Code)
	assert.ErrorIs(t, mapped, domainErrors.ErrEvaluationExists)
}

func TestRecordEvaluation_NullScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "alice")
	task := f.task(t, f.team(t, "backend", admin), admin, nil)

	e, err := f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, e.Score)
}

func TestRecordEvaluation_InvalidScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "alice")
	task := f.task(t, f.team(t, "backend", admin), admin, nil)

	for _, score := range []int{0, 6, -1} {
		_, err := f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(score))
		require.Error(t, err)
		var domainErr *domainErrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domainErrors.CodeInvalidInput, domainErr.Code)
		assert.Contains(t, domainErr.Fields, "evaluation")
	}
	assert.Zero(t, f.store.EvaluationCount())
}

func TestRecordEvaluation_Privileges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "alice")
	team := f.team(t, "backend", admin)
	manager := f.user(t, "bob")
	_, err := f.teams.AddMember(ctx, team.ID, manager.ID, entity.RoleManager)
	require.NoError(t, err)
	outsider := f.user(t, "eve")
	staff := f.staff(t, "root")
	task := f.task(t, team, admin, manager)

	for _, actor := range []*entity.User{manager, outsider} {
		_, err := f.evaluations.RecordEvaluation(ctx, actor.ID, task.ID, intPtr(4))
		assert.ErrorIs(t, err, domainErrors.ErrUnauthorized, actor.Username)
	}
	assert.Zero(t, f.store.EvaluationCount())

	_, err = f.evaluations.RecordEvaluation(ctx, staff.ID, task.ID, intPtr(4))
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.EvaluationCount())

	err = f.evaluations.DeleteEvaluation(ctx, manager.ID, task.ID)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)

	require.NoError(t, f.evaluations.DeleteEvaluation(ctx, admin.ID, task.ID))
	assert.Zero(t, f.store.EvaluationCount())
}

func TestRecordEvaluation_PerPerformerPolicy(t *testing.T) {
	f := newFixture(t, withEvaluationPolicy(entity.EvaluationPerPerformer))
	ctx := context.Background()
	admin := f.user(t, "alice")
	team := f.team(t, "backend", admin)
	bob := f.user(t, "bob")
	_, err := f.teams.AddMember(ctx, team.ID, bob.ID, entity.RoleUser)
	require.NoError(t, err)
	task := f.task(t, team, admin, admin)

	_, err = f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(5))
	require.NoError(t, err)

	_, err = f.tasks.UpdateTask(ctx, admin.ID, task.ID, entity.TaskUpdate{PerformerID: &bob.ID})
	require.NoError(t, err)

	_, err = f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.EvaluationCount())

	bobs, err := f.evaluations.ListUserEvaluations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, 2, *bobs[0].Score)
}

func TestRecordEvaluation_PerTaskIgnoresPerformerChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "alice")
	team := f.team(t, "backend", admin)
	bob := f.user(t, "bob")
	_, err := f.teams.AddMember(ctx, team.ID, bob.ID, entity.RoleUser)
	require.NoError(t, err)
	task := f.task(t, team, admin, admin)

	_, err = f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(5))
	require.NoError(t, err)

	_, err = f.tasks.UpdateTask(ctx, admin.ID, task.ID, entity.TaskUpdate{PerformerID: &bob.ID})
	require.NoError(t, err)

	_, err = f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.EvaluationCount())
}

func TestGetEvaluation_NotFound(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "alice")
	task := f.task(t, f.team(t, "backend", admin), admin, nil)

	_, err := f.evaluations.GetEvaluation(context.Background(), task.ID)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestDeleteTask_CascadesEvaluations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "alice")
	task := f.task(t, f.team(t, "backend", admin), admin, nil)

	_, err := f.evaluations.RecordEvaluation(ctx, admin.ID, task.ID, intPtr(4))
	require.NoError(t, err)

	require.NoError(t, f.tasks.DeleteTask(ctx, admin.ID, task.ID))
	assert.Zero(t, f.store.EvaluationCount())
}
