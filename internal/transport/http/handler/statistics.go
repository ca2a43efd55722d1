package handler

import (
	"net/http"

	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

// StatisticsHandler обрабатывает запросы для статистики
type StatisticsHandler struct {
	*Common
	statsUseCase *usecase.StatisticsUseCase
}

// NewStatisticsHandler создает новый handler для статистики
func NewStatisticsHandler(common *Common, statsUseCase *usecase.StatisticsUseCase) *StatisticsHandler {
	return &StatisticsHandler{
		Common:       common,
		statsUseCase: statsUseCase,
	}
}

// GetStatistics обрабатывает GET /statistics
func (h *StatisticsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsUseCase.GetStatistics(r.Context())
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
