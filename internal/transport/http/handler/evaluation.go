package handler

import (
	"net/http"

	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/dto"
	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

// EvaluationHandler обрабатывает запросы для оценок задач
type EvaluationHandler struct {
	*Common
	evaluationUseCase *usecase.EvaluationUseCase
}

// NewEvaluationHandler создает новый handler для оценок
func NewEvaluationHandler(common *Common, evaluationUseCase *usecase.EvaluationUseCase) *EvaluationHandler {
	return &EvaluationHandler{
		Common:            common,
		evaluationUseCase: evaluationUseCase,
	}
}

// RecordEvaluation обрабатывает PUT /tasks/{taskID}/evaluation
func (h *EvaluationHandler) RecordEvaluation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	taskID, err := pathUUID(r, "taskID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.RecordEvaluationRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	evaluation, err := h.evaluationUseCase.RecordEvaluation(r.Context(), actor, taskID, req.Evaluation)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToEvaluationDTO(evaluation))
}

// GetEvaluation обрабатывает GET /tasks/{taskID}/evaluation
func (h *EvaluationHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathUUID(r, "taskID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	evaluation, err := h.evaluationUseCase.GetEvaluation(r.Context(), taskID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToEvaluationDTO(evaluation))
}

// DeleteEvaluation обрабатывает DELETE /tasks/{taskID}/evaluation
func (h *EvaluationHandler) DeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	taskID, err := pathUUID(r, "taskID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.evaluationUseCase.DeleteEvaluation(r.Context(), actor, taskID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
