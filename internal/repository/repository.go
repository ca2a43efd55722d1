package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, userID uuid.UUID) error
	GetByID(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// LockByID блокирует строку пользователя до конца транзакции
	LockByID(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}

type TeamRepository interface {
	Create(ctx context.Context, team *entity.Team) error
	Update(ctx context.Context, team *entity.Team) error
	Delete(ctx context.Context, teamID uuid.UUID) error
	GetByID(ctx context.Context, teamID uuid.UUID) (*entity.Team, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Team, error)
}

type MembershipRepository interface {
	Create(ctx context.Context, membership *entity.Membership) error
	Get(ctx context.Context, teamID, userID uuid.UUID) (*entity.Membership, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]entity.TeamMember, error)
	UpdateRole(ctx context.Context, teamID, userID uuid.UUID, role entity.Role) error
	Delete(ctx context.Context, teamID, userID uuid.UUID) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	Update(ctx context.Context, task *entity.Task) error
	Delete(ctx context.Context, taskID uuid.UUID) error
	GetByID(ctx context.Context, taskID uuid.UUID) (*entity.Task, error)
	LockByID(ctx context.Context, taskID uuid.UUID) (*entity.Task, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, status *entity.TaskStatus) ([]*entity.Task, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entity.Comment, error)
}

type MeetingRepository interface {
	Create(ctx context.Context, meeting *entity.Meeting) error
	Update(ctx context.Context, meeting *entity.Meeting) error
	Delete(ctx context.Context, meetingID uuid.UUID) error
	GetByID(ctx context.Context, meetingID uuid.UUID) (*entity.Meeting, error)
	// LockByID возвращает встречу с блокировкой строки до конца транзакции
	LockByID(ctx context.Context, meetingID uuid.UUID) (*entity.Meeting, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Meeting, error)
	// FindOverlapping возвращает встречи пользователя, пересекающиеся с [start, end),
	// кроме встречи excludeID
	FindOverlapping(ctx context.Context, userID, excludeID uuid.UUID, start, end time.Time) ([]*entity.Meeting, error)
	AddParticipant(ctx context.Context, participation *entity.Participation) error
	RemoveParticipant(ctx context.Context, meetingID, userID uuid.UUID) error
	IsParticipant(ctx context.Context, meetingID, userID uuid.UUID) (bool, error)
	ListParticipants(ctx context.Context, meetingID uuid.UUID) ([]uuid.UUID, error)
}

type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *entity.Evaluation) error
	Update(ctx context.Context, evaluation *entity.Evaluation) error
	Delete(ctx context.Context, evaluationID uuid.UUID) error
	Find(ctx context.Context, key entity.EvaluationKey) (*entity.Evaluation, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entity.Evaluation, error)
	ListByPerformer(ctx context.Context, userID uuid.UUID) ([]*entity.Evaluation, error)
}

// TokenRevocationStore хранит идентификаторы отозванных токенов до истечения их срока
type TokenRevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type StatisticsRepository interface {
	GetStatistics(ctx context.Context) (*entity.Statistics, error)
}
