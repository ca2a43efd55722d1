package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/dto"
	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

// TaskHandler обрабатывает запросы для задач и комментариев к ним
type TaskHandler struct {
	*Common
	taskUseCase    *usecase.TaskUseCase
	commentUseCase *usecase.CommentUseCase
}

// NewTaskHandler создает новый handler для задач
func NewTaskHandler(common *Common, taskUseCase *usecase.TaskUseCase, commentUseCase *usecase.CommentUseCase) *TaskHandler {
	return &TaskHandler{
		Common:         common,
		taskUseCase:    taskUseCase,
		commentUseCase: commentUseCase,
	}
}

// CreateTask обрабатывает POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.CreateTaskRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	teamID, err := parseUUID("team_id", req.TeamID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	performerID, err := optionalUUID("performer_id", req.PerformerID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	task, err := h.taskUseCase.CreateTask(r.Context(), usecase.CreateTaskInput{
		ActorID:     actor,
		TeamID:      teamID,
		Description: req.Description,
		PerformerID: performerID,
		Deadline:    req.Deadline,
	})
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskDTO(task))
}

// GetTask обрабатывает GET /tasks/{taskID}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathUUID(r, "taskID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	task, err := h.taskUseCase.GetTask(r.Context(), taskID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDTO(task))
}

// UpdateTask обрабатывает PATCH /tasks/{taskID}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
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

	var req dto.UpdateTaskRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	performerID, err := optionalUUID("performer_id", req.PerformerID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	upd := entity.TaskUpdate{
		PerformerID:    performerID,
		ClearPerformer: req.ClearPerformer,
		Description:    req.Description,
		Deadline:       req.Deadline,
		ClearDeadline:  req.ClearDeadline,
	}
	if req.Status != nil {
		status := entity.TaskStatus(*req.Status)
		upd.Status = &status
	}

	task, err := h.taskUseCase.UpdateTask(r.Context(), actor, taskID, upd)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDTO(task))
}

// DeleteTask обрабатывает DELETE /tasks/{taskID}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
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

	if err := h.taskUseCase.DeleteTask(r.Context(), actor, taskID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddComment обрабатывает POST /tasks/{taskID}/comments
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
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

	var req dto.CreateCommentRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	comment, err := h.commentUseCase.AddComment(r.Context(), actor, taskID, req.Text)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToCommentDTO(comment))
}

// ListComments обрабатывает GET /tasks/{taskID}/comments
func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathUUID(r, "taskID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	comments, err := h.commentUseCase.ListComments(r.Context(), taskID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	response := make([]dto.CommentDTO, 0, len(comments))
	for _, c := range comments {
		response = append(response, dto.ToCommentDTO(c))
	}

	respondJSON(w, http.StatusOK, response)
}

func optionalUUID(field string, value *string) (*uuid.UUID, error) {
	if value == nil {
		return nil, nil
	}

	id, err := parseUUID(field, *value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
