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

const taskColumns = `id, author_id, performer_id, team_id, status, description, deadline, created_at, updated_at`

// TaskRepository реализует repository.TaskRepository для PostgreSQL
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository создает новый репозиторий задач
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create создает задачу
func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	conn := getConn(ctx, r.pool)

	query := `
		INSERT INTO tasks (id, author_id, performer_id, team_id, status, description, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn.Exec(ctx, query,
		task.ID,
		task.AuthorID,
		task.PerformerID,
		task.TeamID,
		task.Status,
		task.Description,
		task.Deadline,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// Update обновляет изменяемые поля задачи
func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	conn := getConn(ctx, r.pool)

	query := `
		UPDATE tasks
		SET performer_id = $2, status = $3, description = $4, deadline = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := conn.Exec(ctx, query,
		task.ID,
		task.PerformerID,
		task.Status,
		task.Description,
		task.Deadline,
		task.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// Delete удаляет задачу вместе с комментариями и оценками (ON DELETE CASCADE)
func (r *TaskRepository) Delete(ctx context.Context, taskID uuid.UUID) error {
	conn := getConn(ctx, r.pool)

	result, err := conn.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	return nil
}

// GetByID возвращает задачу по ID
func (r *TaskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (*entity.Task, error) {
	return r.getOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID)
}

// LockByID возвращает задачу, блокируя строку до конца транзакции
func (r *TaskRepository) LockByID(ctx context.Context, taskID uuid.UUID) (*entity.Task, error) {
	return r.getOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, taskID)
}

// ListByTeam возвращает задачи команды, опционально с фильтром по статусу
func (r *TaskRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, status *entity.TaskStatus) ([]*entity.Task, error) {
	conn := getConn(ctx, r.pool)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE team_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
	`

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := conn.Query(ctx, query, teamID, statusArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*entity.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) getOne(ctx context.Context, query string, taskID uuid.UUID) (*entity.Task, error) {
	conn := getConn(ctx, r.pool)

	task, err := scanTask(conn.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	return task, nil
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var task entity.Task
	err := row.Scan(
		&task.ID,
		&task.AuthorID,
		&task.PerformerID,
		&task.TeamID,
		&task.Status,
		&task.Description,
		&task.Deadline,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return &task, nil
}
