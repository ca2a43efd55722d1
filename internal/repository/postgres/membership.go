package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

// MembershipRepository реализует repository.MembershipRepository для PostgreSQL
type MembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository создает новый репозиторий участников команд
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

// Create добавляет пользователя в команду. Повтор пары (team, user) отклоняется ограничением
// team_users_team_user_key, при политике one_team также индексом team_users_one_team_uidx.
func (r *MembershipRepository) Create(ctx context.Context, m *entity.Membership) error {
	conn := getConn(ctx, r.pool)

	query := `
		INSERT INTO team_users (id, team_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := conn.Exec(ctx, query, m.ID, m.TeamID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrDuplicateMembership
		}
		if isForeignKeyViolation(err) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}

	return nil
}

// Get возвращает членство пользователя в команде
func (r *MembershipRepository) Get(ctx context.Context, teamID, userID uuid.UUID) (*entity.Membership, error) {
	conn := getConn(ctx, r.pool)

	query := `
		SELECT id, team_id, user_id, role, created_at
		FROM team_users
		WHERE team_id = $1 AND user_id = $2
	`

	var m entity.Membership
	err := conn.QueryRow(ctx, query, teamID, userID).Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}

// ExistsForUser проверяет, состоит ли пользователь хотя бы в одной команде
func (r *MembershipRepository) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	conn := getConn(ctx, r.pool)

	var exists bool
	err := conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM team_users WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership existence: %w", err)
	}

	return exists, nil
}

// ListByTeam возвращает участников команды
func (r *MembershipRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]entity.TeamMember, error) {
	conn := getConn(ctx, r.pool)

	query := `
		SELECT u.id, u.username, tu.role
		FROM team_users tu
		INNER JOIN users u ON u.id = tu.user_id
		WHERE tu.team_id = $1
		ORDER BY u.username
	`

	rows, err := conn.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team members: %w", err)
	}
	defer rows.Close()

	members := make([]entity.TeamMember, 0)
	for rows.Next() {
		var member entity.TeamMember
		if err := rows.Scan(&member.UserID, &member.Username, &member.Role); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team members: %w", err)
	}

	return members, nil
}

// UpdateRole меняет роль участника
func (r *MembershipRepository) UpdateRole(ctx context.Context, teamID, userID uuid.UUID, role entity.Role) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `UPDATE team_users SET role = $3 WHERE team_id = $1 AND user_id = $2`, teamID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// Delete удаляет участника из команды
func (r *MembershipRepository) Delete(ctx context.Context, teamID, userID uuid.UUID) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `DELETE FROM team_users WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}
