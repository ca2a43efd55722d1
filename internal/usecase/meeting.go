package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/domain/validation"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository"
)

// MeetingUseCase планирует встречи и не допускает пересечений у участников
type MeetingUseCase struct {
	meetingRepo repository.MeetingRepository
	userRepo    repository.UserRepository
	txManager   repository.TransactionManager
	now         func() time.Time
}

// NewMeetingUseCase создает новый usecase для встреч. clock == nil означает time.Now.
func NewMeetingUseCase(
	meetingRepo repository.MeetingRepository,
	userRepo repository.UserRepository,
	txManager repository.TransactionManager,
	clock func() time.Time,
) *MeetingUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &MeetingUseCase{
		meetingRepo: meetingRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		now:         clock,
	}
}

// ScheduleMeeting создает встречу [start, end) и записывает на нее участников
func (uc *MeetingUseCase) ScheduleMeeting(
	ctx context.Context,
	start, end time.Time,
	participantIDs ...uuid.UUID,
) (*entity.MeetingWithParticipants, error) {
	if err := validation.CheckMeetingInterval(start, end, uc.now()); err != nil {
		return nil, err
	}

	meeting := &entity.Meeting{
		ID:        uuid.New(),
		Start:     start.UTC(),
		End:       end.UTC(),
		CreatedAt: uc.now().UTC(),
	}
	participants := make([]uuid.UUID, 0, len(participantIDs))

	err := uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := uc.meetingRepo.Create(ctx, meeting); err != nil {
			return fmt.Errorf("failed to create meeting: %w", err)
		}
		if _, err := uc.meetingRepo.LockByID(ctx, meeting.ID); err != nil {
			return storageError(err, "meeting", "lock meeting")
		}

		for _, userID := range participantIDs {
			if err := uc.addParticipant(ctx, meeting, userID); err != nil {
				return err
			}
			participants = append(participants, userID)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &entity.MeetingWithParticipants{Meeting: *meeting, Participants: participants}, nil
}

// AddParticipant записывает пользователя на встречу, если у него нет пересекающихся встреч
func (uc *MeetingUseCase) AddParticipant(ctx context.Context, meetingID, userID uuid.UUID) error {
	return uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		meeting, err := uc.meetingRepo.LockByID(ctx, meetingID)
		if err != nil {
			return storageError(err, "meeting", "lock meeting")
		}

		return uc.addParticipant(ctx, meeting, userID)
	})
}

// addParticipant должен вызываться внутри транзакции: блокировка строки пользователя
// сериализует параллельные записи одного пользователя на разные встречи.
func (uc *MeetingUseCase) addParticipant(ctx context.Context, meeting *entity.Meeting, userID uuid.UUID) error {
	if _, err := uc.userRepo.LockByID(ctx, userID); err != nil {
		return storageError(err, "user", "lock user")
	}

	already, err := uc.meetingRepo.IsParticipant(ctx, meeting.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to check participation: %w", err)
	}
	if already {
		return domainErrors.NewDomainError(
			domainErrors.CodeAlreadyParticipant,
			"user already participates in the meeting",
			domainErrors.ErrAlreadyParticipant,
		).WithField("user_id", "already a participant")
	}

	if err := uc.checkOverlap(ctx, userID, meeting.ID, meeting.Start, meeting.End); err != nil {
		return err
	}

	participation := &entity.Participation{
		ID:        uuid.New(),
		MeetingID: meeting.ID,
		UserID:    userID,
		CreatedAt: uc.now().UTC(),
	}

	if err := uc.meetingRepo.AddParticipant(ctx, participation); err != nil {
		return storageError(err, "user", "add participant")
	}

	return nil
}

func (uc *MeetingUseCase) checkOverlap(ctx context.Context, userID, meetingID uuid.UUID, start, end time.Time) error {
	existing, err := uc.meetingRepo.FindOverlapping(ctx, userID, meetingID, start, end)
	if err != nil {
		return fmt.Errorf("failed to find overlapping meetings: %w", err)
	}

	candidate := validation.Interval{Start: start, End: end}
	if clash := validation.FirstOverlap(candidate, existing, meetingID); clash != nil {
		return validation.OverlapError(userID, clash)
	}

	return nil
}

// RescheduleMeeting переносит встречу, повторно проверяя пересечения для всех участников
func (uc *MeetingUseCase) RescheduleMeeting(
	ctx context.Context,
	meetingID uuid.UUID,
	start, end time.Time,
) (*entity.MeetingWithParticipants, error) {
	if err := validation.CheckMeetingInterval(start, end, uc.now()); err != nil {
		return nil, err
	}

	var result *entity.MeetingWithParticipants

	err := uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Блокировка встречи до чтения участников: параллельная запись участника
		// дождется переноса и проверит уже новый интервал
		meeting, err := uc.meetingRepo.LockByID(ctx, meetingID)
		if err != nil {
			return storageError(err, "meeting", "lock meeting")
		}

		participants, err := uc.meetingRepo.ListParticipants(ctx, meetingID)
		if err != nil {
			return fmt.Errorf("failed to list participants: %w", err)
		}

		// Единый порядок блокировок исключает взаимоблокировки между переносами
		locked := append([]uuid.UUID(nil), participants...)
		sort.Slice(locked, func(i, j int) bool { return locked[i].String() < locked[j].String() })

		for _, userID := range locked {
			if _, err := uc.userRepo.LockByID(ctx, userID); err != nil {
				return storageError(err, "user", "lock user")
			}
			if err := uc.checkOverlap(ctx, userID, meetingID, start, end); err != nil {
				return err
			}
		}

		meeting.Start = start.UTC()
		meeting.End = end.UTC()

		if err := uc.meetingRepo.Update(ctx, meeting); err != nil {
			return storageError(err, "meeting", "update meeting")
		}

		result = &entity.MeetingWithParticipants{Meeting: *meeting, Participants: participants}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// RemoveParticipant снимает пользователя со встречи
func (uc *MeetingUseCase) RemoveParticipant(ctx context.Context, meetingID, userID uuid.UUID) error {
	if err := uc.meetingRepo.RemoveParticipant(ctx, meetingID, userID); err != nil {
		return storageError(err, "participant", "remove participant")
	}
	return nil
}

// GetMeeting возвращает встречу со списком участников
func (uc *MeetingUseCase) GetMeeting(ctx context.Context, meetingID uuid.UUID) (*entity.MeetingWithParticipants, error) {
	meeting, err := uc.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, storageError(err, "meeting", "get meeting")
	}

	participants, err := uc.meetingRepo.ListParticipants(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return &entity.MeetingWithParticipants{Meeting: *meeting, Participants: participants}, nil
}

// ListUserMeetings возвращает встречи пользователя по времени начала
func (uc *MeetingUseCase) ListUserMeetings(ctx context.Context, userID uuid.UUID) ([]*entity.Meeting, error) {
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, storageError(err, "user", "get user")
	}

	meetings, err := uc.meetingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user meetings: %w", err)
	}

	return meetings, nil
}

// DeleteMeeting удаляет встречу вместе с записями участников
func (uc *MeetingUseCase) DeleteMeeting(ctx context.Context, meetingID uuid.UUID) error {
	if err := uc.meetingRepo.Delete(ctx, meetingID); err != nil {
		return storageError(err, "meeting", "delete meeting")
	}
	return nil
}
