package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository"
)

// StatisticsUseCase собирает счетчики по пользователям, командам, задачам, встречам и оценкам
type StatisticsUseCase struct {
	statsRepo repository.StatisticsRepository
}

// NewStatisticsUseCase создает новый usecase для статистики
func NewStatisticsUseCase(statsRepo repository.StatisticsRepository) *StatisticsUseCase {
	return &StatisticsUseCase{
		statsRepo: statsRepo,
	}
}

// GetStatistics возвращает общую статистику. Средние оценки округляются до сотых,
// статусы без задач присутствуют с нулем.
func (uc *StatisticsUseCase) GetStatistics(ctx context.Context) (*entity.Statistics, error) {
	stats, err := uc.statsRepo.GetStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	for _, status := range []entity.TaskStatus{entity.TaskStatusOpen, entity.TaskStatusProcessing, entity.TaskStatusDone} {
		if _, ok := stats.TasksByStatus[string(status)]; !ok {
			stats.TasksByStatus[string(status)] = 0
		}
	}

	for username, avg := range stats.AverageByUser {
		stats.AverageByUser[username] = math.Round(avg*100) / 100
	}

	return stats, nil
}
