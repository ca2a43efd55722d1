package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

// MeetingRepository реализует repository.MeetingRepository для PostgreSQL
type MeetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository создает новый репозиторий встреч
func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

// Create создает встречу
func (r *MeetingRepository) Create(ctx context.Context, m *entity.Meeting) error {
	conn := getConn(ctx, r.pool)

	query := `
		INSERT INTO meetings (id, start_datetime, end_datetime, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := conn.Exec(ctx, query, m.ID, m.Start, m.End, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	return nil
}

// Update переносит встречу
func (r *MeetingRepository) Update(ctx context.Context, m *entity.Meeting) error {
	conn := getConn(ctx, r.pool)

	query := `
		UPDATE meetings
		SET start_datetime = $2, end_datetime = $3
		WHERE id = $1
	`

	result, err := conn.Exec(ctx, query, m.ID, m.Start, m.End)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// Delete удаляет встречу вместе с записями участников
func (r *MeetingRepository) Delete(ctx context.Context, meetingID uuid.UUID) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, meetingID)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// GetByID возвращает встречу по ID
func (r *MeetingRepository) GetByID(ctx context.Context, meetingID uuid.UUID) (*entity.Meeting, error) {
	return r.getOne(ctx, `SELECT id, start_datetime, end_datetime, created_at FROM meetings WHERE id = $1`, meetingID)
}

// LockByID возвращает встречу, блокируя строку до конца транзакции.
// Запись участников и перенос одной встречи выполняются последовательно.
func (r *MeetingRepository) LockByID(ctx context.Context, meetingID uuid.UUID) (*entity.Meeting, error) {
	return r.getOne(ctx, `SELECT id, start_datetime, end_datetime, created_at FROM meetings WHERE id = $1 FOR UPDATE`, meetingID)
}

func (r *MeetingRepository) getOne(ctx context.Context, query string, meetingID uuid.UUID) (*entity.Meeting, error) {
	conn := getConn(ctx, r.pool)

	var m entity.Meeting
	err := conn.QueryRow(ctx, query, meetingID).Scan(&m.ID, &m.Start, &m.End, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	return &m, nil
}

// ListByUser возвращает встречи пользователя по времени начала
func (r *MeetingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Meeting, error) {
	query := `
		SELECT m.id, m.start_datetime, m.end_datetime, m.created_at
		FROM meetings m
		INNER JOIN meeting_users mu ON mu.meeting_id = m.id
		WHERE mu.user_id = $1
		ORDER BY m.start_datetime
	`

	return r.queryMeetings(ctx, query, userID)
}

// FindOverlapping возвращает встречи пользователя, пересекающиеся с [start, end).
// Условие пересечения полуоткрытых интервалов: other.start < end AND other.end > start.
func (r *MeetingRepository) FindOverlapping(
	ctx context.Context,
	userID, excludeID uuid.UUID,
	start, end time.Time,
) ([]*entity.Meeting, error) {
	query := `
		SELECT m.id, m.start_datetime, m.end_datetime, m.created_at
		FROM meetings m
		INNER JOIN meeting_users mu ON mu.meeting_id = m.id
		WHERE mu.user_id = $1
		  AND m.id <> $2
		  AND m.start_datetime < $4
		  AND m.end_datetime > $3
		ORDER BY m.start_datetime
	`

	return r.queryMeetings(ctx, query, userID, excludeID, start, end)
}

// AddParticipant записывает пользователя на встречу
func (r *MeetingRepository) AddParticipant(ctx context.Context, p *entity.Participation) error {
	conn := getConn(ctx, r.pool)

	query := `
		INSERT INTO meeting_users (id, user_id, meeting_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := conn.Exec(ctx, query, p.ID, p.UserID, p.MeetingID, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyParticipant
		}
		if isForeignKeyViolation(err) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}

	return nil
}

// RemoveParticipant удаляет пользователя из встречи
func (r *MeetingRepository) RemoveParticipant(ctx context.Context, meetingID, userID uuid.UUID) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `DELETE FROM meeting_users WHERE meeting_id = $1 AND user_id = $2`, meetingID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// IsParticipant проверяет запись пользователя на встречу
func (r *MeetingRepository) IsParticipant(ctx context.Context, meetingID, userID uuid.UUID) (bool, error) {
	conn := getConn(ctx, r.pool)

	query := `SELECT EXISTS(SELECT 1 FROM meeting_users WHERE meeting_id = $1 AND user_id = $2)`

	var exists bool
	if err := conn.QueryRow(ctx, query, meetingID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}

	return exists, nil
}

// ListParticipants возвращает идентификаторы участников встречи
func (r *MeetingRepository) ListParticipants(ctx context.Context, meetingID uuid.UUID) ([]uuid.UUID, error) {
	conn := getConn(ctx, r.pool)

	rows, err := conn.Query(ctx, `SELECT user_id FROM meeting_users WHERE meeting_id = $1 ORDER BY created_at, user_id`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	participants := make([]uuid.UUID, 0)
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

func (r *MeetingRepository) queryMeetings(ctx context.Context, query string, args ...interface{}) ([]*entity.Meeting, error) {
	conn := getConn(ctx, r.pool)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]*entity.Meeting, 0)
	for rows.Next() {
		var m entity.Meeting
		if err := rows.Scan(&m.ID, &m.Start, &m.End, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meetings: %w", err)
	}

	return meetings, nil
}
