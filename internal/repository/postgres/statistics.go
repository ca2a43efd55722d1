package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
)

// StatisticsRepository реализует repository.StatisticsRepository для PostgreSQL
type StatisticsRepository struct {
	pool *pgxpool.Pool
}

// NewStatisticsRepository создает новый репозиторий статистики
func NewStatisticsRepository(pool *pgxpool.Pool) *StatisticsRepository {
	return &StatisticsRepository{pool: pool}
}

// GetStatistics возвращает общую статистику системы
func (r *StatisticsRepository) GetStatistics(ctx context.Context) (*entity.Statistics, error) {
	stats := &entity.Statistics{
		TasksByStatus: make(map[string]int),
		AverageByUser: make(map[string]float64),
	}

	counters := []struct {
		query string
		dest  *int
		name  string
	}{
		{`SELECT COUNT(*) FROM users`, &stats.TotalUsers, "users"},
		{`SELECT COUNT(*) FROM teams`, &stats.TotalTeams, "teams"},
		{`SELECT COUNT(*) FROM tasks`, &stats.TotalTasks, "tasks"},
		{`SELECT COUNT(*) FROM meetings`, &stats.TotalMeetings, "meetings"},
		{`SELECT COUNT(*) FROM evaluations`, &stats.TotalEvaluations, "evaluations"},
	}

	for _, c := range counters {
		if err := r.pool.QueryRow(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tasks by status: %w", err)
		}
		stats.TasksByStatus[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks by status: %w", err)
	}

	// Средняя оценка по исполнителю; неоцененные задачи (NULL) не учитываются
	averageQuery := `
		SELECT u.username, AVG(e.evaluation)::float8
		FROM evaluations e
		INNER JOIN tasks t ON t.id = e.task_id
		INNER JOIN users u ON u.id = COALESCE(e.performer_id, t.performer_id)
		WHERE e.evaluation IS NOT NULL
		GROUP BY u.id, u.username
		ORDER BY u.username
	`

	rows2, err := r.pool.Query(ctx, averageQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to get average scores: %w", err)
	}
	defer rows2.Close()

	for rows2.Next() {
		var username string
		var avg float64
		if err := rows2.Scan(&username, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan average score: %w", err)
		}
		stats.AverageByUser[username] = avg
	}

	if err := rows2.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate average scores: %w", err)
	}

	return stats, nil
}
