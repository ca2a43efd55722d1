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

// CommentUseCase добавляет и читает комментарии задач. Комментарии не редактируются.
type CommentUseCase struct {
	commentRepo    repository.CommentRepository
	taskRepo       repository.TaskRepository
	membershipRepo repository.MembershipRepository
}

// NewCommentUseCase создает новый usecase для комментариев
func NewCommentUseCase(
	commentRepo repository.CommentRepository,
	taskRepo repository.TaskRepository,
	membershipRepo repository.MembershipRepository,
) *CommentUseCase {
	return &CommentUseCase{
		commentRepo:    commentRepo,
		taskRepo:       taskRepo,
		membershipRepo: membershipRepo,
	}
}

// AddComment добавляет комментарий участника команды к задаче
func (uc *CommentUseCase) AddComment(ctx context.Context, actorID, taskID uuid.UUID, text string) (*entity.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domainErrors.InvalidField("text", "text is required")
	}

	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, storageError(err, "task", "get task")
	}

	if _, err := uc.membershipRepo.Get(ctx, task.TeamID, actorID); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, forbidden("user is not a member of the team")
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	comment := &entity.Comment{
		ID:        uuid.New(),
		Text:      text,
		UserID:    actorID,
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.commentRepo.Create(ctx, comment); err != nil {
		return nil, storageError(err, "task", "create comment")
	}

	return comment, nil
}

// ListComments возвращает комментарии задачи, старые первыми
func (uc *CommentUseCase) ListComments(ctx context.Context, taskID uuid.UUID) ([]*entity.Comment, error) {
	if _, err := uc.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, storageError(err, "task", "get task")
	}

	comments, err := uc.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}
