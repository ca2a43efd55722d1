package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

// CommentRepository реализует repository.CommentRepository для PostgreSQL
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository создает новый репозиторий комментариев
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create добавляет комментарий
func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	conn := getConn(ctx, r.pool)

	query := `
		INSERT INTO comments (id, text, user_id, task_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := conn.Exec(ctx, query, c.ID, c.Text, c.UserID, c.TaskID, c.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// ListByTask возвращает комментарии задачи в порядке создания
func (r *CommentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entity.Comment, error) {
	conn := getConn(ctx, r.pool)

	query := `
		SELECT id, text, user_id, task_id, created_at
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at, id
	`

	rows, err := conn.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*entity.Comment, 0)
	for rows.Next() {
		var c entity.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.UserID, &c.TaskID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}
