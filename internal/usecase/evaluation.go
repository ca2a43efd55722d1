package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository"
)

// EvaluationUseCase записывает оценки задач. Оценивать может только привилегированный пользователь:
// is_staff либо администратор команды задачи.
type EvaluationUseCase struct {
	evaluationRepo repository.EvaluationRepository
	taskRepo       repository.TaskRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	txManager      repository.TransactionManager
	policy         entity.EvaluationPolicy
}

// NewEvaluationUseCase создает новый usecase для оценок
func NewEvaluationUseCase(
	evaluationRepo repository.EvaluationRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	txManager repository.TransactionManager,
	policy entity.EvaluationPolicy,
) *EvaluationUseCase {
	return &EvaluationUseCase{
		evaluationRepo: evaluationRepo,
		taskRepo:       taskRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		txManager:      txManager,
		policy:         policy,
	}
}

// RecordEvaluation создает оценку задачи или обновляет существующую.
// score == nil сохраняет задачу как неоцененную.
func (uc *EvaluationUseCase) RecordEvaluation(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	score *int,
) (*entity.Evaluation, error) {
	if !entity.ValidScore(score) {
		return nil, domainErrors.InvalidField(
			"evaluation",
			fmt.Sprintf("evaluation must be between %d and %d", entity.MinScore, entity.MaxScore),
		)
	}

	var result *entity.Evaluation

	err := uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		task, err := uc.taskRepo.LockByID(ctx, taskID)
		if err != nil {
			return storageError(err, "task", "lock task")
		}

		if err := uc.authorize(ctx, actorID, task); err != nil {
			return err
		}

		now := time.Now().UTC()
		key := uc.policy.KeyFor(task)

		existing, err := uc.evaluationRepo.Find(ctx, key)
		switch {
		case err == nil:
			existing.Score = score
			existing.UpdatedAt = now
			if err := uc.evaluationRepo.Update(ctx, existing); err != nil {
				return storageError(err, "evaluation", "update evaluation")
			}
			result = existing
			return nil
		case !errors.Is(err, domainErrors.ErrNotFound):
			return fmt.Errorf("failed to find evaluation: %w", err)
		}

		evaluation := &entity.Evaluation{
			ID:          uuid.New(),
			TaskID:      task.ID,
			PerformerID: key.PerformerID,
			Score:       score,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := uc.evaluationRepo.Create(ctx, evaluation); err != nil {
			return storageError(err, "task", "create evaluation")
		}

		result = evaluation
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// authorize пропускает только is_staff пользователя или администратора команды задачи
func (uc *EvaluationUseCase) authorize(ctx context.Context, actorID uuid.UUID, task *entity.Task) error {
	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return unauthorized("only staff or team admins can evaluate tasks")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if actor.IsStaff {
		return nil
	}

	membership, err := uc.membershipRepo.Get(ctx, task.TeamID, actorID)
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return fmt.Errorf("failed to get membership: %w", err)
	}

	if membership == nil || membership.Role != entity.RoleAdmin {
		return unauthorized("only staff or team admins can evaluate tasks")
	}

	return nil
}

// GetEvaluation возвращает текущую оценку задачи
func (uc *EvaluationUseCase) GetEvaluation(ctx context.Context, taskID uuid.UUID) (*entity.Evaluation, error) {
	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, storageError(err, "task", "get task")
	}

	evaluation, err := uc.evaluationRepo.Find(ctx, uc.policy.KeyFor(task))
	if err != nil {
		return nil, storageError(err, "evaluation", "find evaluation")
	}

	return evaluation, nil
}

// DeleteEvaluation удаляет текущую оценку задачи
func (uc *EvaluationUseCase) DeleteEvaluation(ctx context.Context, actorID, taskID uuid.UUID) error {
	return uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		task, err := uc.taskRepo.LockByID(ctx, taskID)
		if err != nil {
			return storageError(err, "task", "lock task")
		}

		if err := uc.authorize(ctx, actorID, task); err != nil {
			return err
		}

		evaluation, err := uc.evaluationRepo.Find(ctx, uc.policy.KeyFor(task))
		if err != nil {
			return storageError(err, "evaluation", "find evaluation")
		}

		if err := uc.evaluationRepo.Delete(ctx, evaluation.ID); err != nil {
			return storageError(err, "evaluation", "delete evaluation")
		}

		return nil
	})
}

// ListUserEvaluations возвращает оценки задач, выполненных пользователем
func (uc *EvaluationUseCase) ListUserEvaluations(ctx context.Context, userID uuid.UUID) ([]*entity.Evaluation, error) {
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, storageError(err, "user", "get user")
	}

	evaluations, err := uc.evaluationRepo.ListByPerformer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	return evaluations, nil
}
