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

const evaluationColumns = `e.id, e.task_id, e.performer_id, e.evaluation, e.created_at, e.updated_at`

// EvaluationRepository реализует repository.EvaluationRepository для PostgreSQL
type EvaluationRepository struct {
	pool *pgxpool.Pool
}

// NewEvaluationRepository создает новый репозиторий оценок
func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

// Create создает оценку. Уникальность по (task_id, performer_id) обеспечивает
// индекс evaluations_task_performer_uidx.
func (r *EvaluationRepository) Create(ctx context.Context, e *entity.Evaluation) error {
	conn := getConn(ctx, r.pool)

	query := `
		INSERT INTO evaluations (id, task_id, performer_id, evaluation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := conn.Exec(ctx, query, e.ID, e.TaskID, e.PerformerID, e.Score, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrEvaluationExists
		}
		if isForeignKeyViolation(err) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("failed to create evaluation: %w", err)
	}

	return nil
}

// Update меняет значение оценки
func (r *EvaluationRepository) Update(ctx context.Context, e *entity.Evaluation) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `UPDATE evaluations SET evaluation = $2, updated_at = $3 WHERE id = $1`, e.ID, e.Score, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update evaluation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// Delete удаляет оценку
func (r *EvaluationRepository) Delete(ctx context.Context, evaluationID uuid.UUID) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `DELETE FROM evaluations WHERE id = $1`, evaluationID)
	if err != nil {
		return fmt.Errorf("failed to delete evaluation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// Find возвращает оценку по ключу уникальности
func (r *EvaluationRepository) Find(ctx context.Context, key entity.EvaluationKey) (*entity.Evaluation, error) {
	conn := getConn(ctx, r.pool)

	query := `
		SELECT ` + evaluationColumns + `
		FROM evaluations e
		WHERE e.task_id = $1 AND e.performer_id IS NOT DISTINCT FROM $2
	`

	evaluation, err := scanEvaluation(conn.QueryRow(ctx, query, key.TaskID, key.PerformerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	return evaluation, nil
}

// ListByTask возвращает все оценки задачи
func (r *EvaluationRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entity.Evaluation, error) {
	query := `
		SELECT ` + evaluationColumns + `
		FROM evaluations e
		WHERE e.task_id = $1
		ORDER BY e.created_at
	`

	return r.queryEvaluations(ctx, query, taskID)
}

// ListByPerformer возвращает оценки пользователя: явно привязанные к нему
// либо оценки задач, где он исполнитель
func (r *EvaluationRepository) ListByPerformer(ctx context.Context, userID uuid.UUID) ([]*entity.Evaluation, error) {
	query := `
		SELECT ` + evaluationColumns + `
		FROM evaluations e
		INNER JOIN tasks t ON t.id = e.task_id
		WHERE e.performer_id = $1 OR (e.performer_id IS NULL AND t.performer_id = $1)
		ORDER BY e.updated_at DESC
	`

	return r.queryEvaluations(ctx, query, userID)
}

func (r *EvaluationRepository) queryEvaluations(ctx context.Context, query string, arg uuid.UUID) ([]*entity.Evaluation, error) {
	conn := getConn(ctx, r.pool)

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	evaluations := make([]*entity.Evaluation, 0)
	for rows.Next() {
		evaluation, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, evaluation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluations: %w", err)
	}

	return evaluations, nil
}

func scanEvaluation(row pgx.Row) (*entity.Evaluation, error) {
	var e entity.Evaluation
	err := row.Scan(&e.ID, &e.TaskID, &e.PerformerID, &e.Score, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan evaluation: %w", err)
	}
	return &e, nil
}
