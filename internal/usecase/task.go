package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository"
)

// CreateTaskInput данные новой задачи
type CreateTaskInput struct {
	ActorID     uuid.UUID
	TeamID      uuid.UUID
	Description string
	PerformerID *uuid.UUID
	Deadline    *time.Time
}

// TaskUseCase реализует бизнес-логику для задач команд
type TaskUseCase struct {
	taskRepo       repository.TaskRepository
	teamRepo       repository.TeamRepository
	membershipRepo repository.MembershipRepository
	txManager      repository.TransactionManager
}

// NewTaskUseCase создает новый usecase для задач
func NewTaskUseCase(
	taskRepo repository.TaskRepository,
	teamRepo repository.TeamRepository,
	membershipRepo repository.MembershipRepository,
	txManager repository.TransactionManager,
) *TaskUseCase {
	return &TaskUseCase{
		taskRepo:       taskRepo,
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		txManager:      txManager,
	}
}

// CreateTask создает задачу в команде. Автор и исполнитель должны состоять в команде.
func (uc *TaskUseCase) CreateTask(ctx context.Context, in CreateTaskInput) (*entity.Task, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, domainErrors.InvalidField("description", "description is required")
	}

	var task *entity.Task

	err := uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := uc.teamRepo.GetByID(ctx, in.TeamID); err != nil {
			return storageError(err, "team", "get team")
		}

		if _, err := uc.member(ctx, in.TeamID, in.ActorID); err != nil {
			return err
		}

		if in.PerformerID != nil {
			if err := uc.checkPerformer(ctx, in.TeamID, *in.PerformerID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		author := in.ActorID
		task = &entity.Task{
			ID:          uuid.New(),
			AuthorID:    &author,
			PerformerID: in.PerformerID,
			TeamID:      in.TeamID,
			Status:      entity.TaskStatusOpen,
			Description: description,
			Deadline:    in.Deadline,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := uc.taskRepo.Create(ctx, task); err != nil {
			return storageError(err, "team", "create task")
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return task, nil
}

// GetTask возвращает задачу по ID
func (uc *TaskUseCase) GetTask(ctx context.Context, taskID uuid.UUID) (*entity.Task, error) {
	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, storageError(err, "task", "get task")
	}
	return task, nil
}

// ListTeamTasks возвращает задачи команды, при status != nil только с этим статусом
func (uc *TaskUseCase) ListTeamTasks(ctx context.Context, teamID uuid.UUID, status *entity.TaskStatus) ([]*entity.Task, error) {
	if status != nil && !status.Valid() {
		return nil, domainErrors.InvalidField("status", "status must be one of open, processing, done")
	}

	if _, err := uc.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, storageError(err, "team", "get team")
	}

	tasks, err := uc.taskRepo.ListByTeam(ctx, teamID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask частично обновляет задачу. Менять задачу может любой участник команды.
func (uc *TaskUseCase) UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, upd entity.TaskUpdate) (*entity.Task, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, domainErrors.InvalidField("status", "status must be one of open, processing, done")
	}
	if upd.Description != nil && strings.TrimSpace(*upd.Description) == "" {
		return nil, domainErrors.InvalidField("description", "description is required")
	}

	var task *entity.Task

	err := uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		task, err = uc.taskRepo.LockByID(ctx, taskID)
		if err != nil {
			return storageError(err, "task", "lock task")
		}

		if _, err := uc.member(ctx, task.TeamID, actorID); err != nil {
			return err
		}

		if upd.Status != nil {
			task.Status = *upd.Status
		}
		if upd.Description != nil {
			task.Description = strings.TrimSpace(*upd.Description)
		}
		switch {
		case upd.ClearPerformer:
			task.PerformerID = nil
		case upd.PerformerID != nil:
			if err := uc.checkPerformer(ctx, task.TeamID, *upd.PerformerID); err != nil {
				return err
			}
			task.PerformerID = upd.PerformerID
		}
		switch {
		case upd.ClearDeadline:
			task.Deadline = nil
		case upd.Deadline != nil:
			task.Deadline = upd.Deadline
		}
		task.UpdatedAt = time.Now().UTC()

		if err := uc.taskRepo.Update(ctx, task); err != nil {
			return storageError(err, "task", "update task")
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask удаляет задачу вместе с комментариями и оценками.
// Удалить может автор либо администратор или менеджер команды.
func (uc *TaskUseCase) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error {
	return uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		task, err := uc.taskRepo.LockByID(ctx, taskID)
		if err != nil {
			return storageError(err, "task", "lock task")
		}

		membership, err := uc.member(ctx, task.TeamID, actorID)
		if err != nil {
			return err
		}

		isAuthor := task.AuthorID != nil && *task.AuthorID == actorID
		if !isAuthor && membership.Role == entity.RoleUser {
			return forbidden("only the author or a team admin or manager can delete the task")
		}

		if err := uc.taskRepo.Delete(ctx, taskID); err != nil {
			return storageError(err, "task", "delete task")
		}

		return nil
	})
}

func (uc *TaskUseCase) member(ctx context.Context, teamID, userID uuid.UUID) (*entity.Membership, error) {
	membership, err := uc.membershipRepo.Get(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, forbidden("user is not a member of the team")
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return membership, nil
}

func (uc *TaskUseCase) checkPerformer(ctx context.Context, teamID, performerID uuid.UUID) error {
	_, err := uc.membershipRepo.Get(ctx, teamID, performerID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return domainErrors.InvalidField("performer_id", "performer must be a member of the team")
	}
	if err != nil {
		return fmt.Errorf("failed to get membership: %w", err)
	}
	return nil
}
