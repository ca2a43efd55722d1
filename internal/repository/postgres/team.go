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

// TeamRepository реализует repository.TeamRepository для PostgreSQL
type TeamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository создает новый репозиторий команд
func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

// Create создает новую команду
func (r *TeamRepository) Create(ctx context.Context, team *entity.Team) error {
	conn := getConn(ctx, r.pool)

	query := `
		INSERT INTO teams (id, name, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := conn.Exec(ctx, query, team.ID, team.Name, team.CreatorID, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("failed to create team: %w", err)
	}

	return nil
}

// Update обновляет название команды
func (r *TeamRepository) Update(ctx context.Context, team *entity.Team) error {
	conn := getConn(ctx, r.pool)

	query := `
		UPDATE teams
		SET name = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := conn.Exec(ctx, query, team.ID, team.Name, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// Delete удаляет команду. Задачи команды защищают ее от удаления (ON DELETE RESTRICT).
func (r *TeamRepository) Delete(ctx context.Context, teamID uuid.UUID) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrTeamHasTasks
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// GetByID возвращает команду по ID
func (r *TeamRepository) GetByID(ctx context.Context, teamID uuid.UUID) (*entity.Team, error) {
	conn := getConn(ctx, r.pool)

	query := `
		SELECT id, name, creator_id, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	var team entity.Team
	err := conn.QueryRow(ctx, query, teamID).Scan(
		&team.ID,
		&team.Name,
		&team.CreatorID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// List возвращает страницу команд, новые первыми
func (r *TeamRepository) List(ctx context.Context, limit, offset int) ([]*entity.Team, error) {
	conn := getConn(ctx, r.pool)

	query := `
		SELECT id, name, creator_id, created_at, updated_at
		FROM teams
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := conn.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*entity.Team, 0, limit)
	for rows.Next() {
		var team entity.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatorID, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}

	return teams, nil
}
