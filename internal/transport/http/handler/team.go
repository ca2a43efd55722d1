package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/dto"
	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

// TeamHandler обрабатывает запросы для команд и их участников
type TeamHandler struct {
	*Common
	teamUseCase *usecase.TeamUseCase
	taskUseCase *usecase.TaskUseCase
}

// NewTeamHandler создает новый handler для команд
func NewTeamHandler(common *Common, teamUseCase *usecase.TeamUseCase, taskUseCase *usecase.TaskUseCase) *TeamHandler {
	return &TeamHandler{
		Common:      common,
		teamUseCase: teamUseCase,
		taskUseCase: taskUseCase,
	}
}

// CreateTeam обрабатывает POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.CreateTeamRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	team, err := h.teamUseCase.CreateTeam(r.Context(), req.Name, actor)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTeamWithMembersDTO(team))
}

// ListTeams обрабатывает GET /teams?limit=&offset=
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	teams, err := h.teamUseCase.ListTeams(r.Context(), limit, offset)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	response := make([]dto.TeamDTO, 0, len(teams))
	for _, t := range teams {
		response = append(response, dto.ToTeamDTO(t))
	}

	respondJSON(w, http.StatusOK, response)
}

// GetTeam обрабатывает GET /teams/{teamID}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	team, err := h.teamUseCase.GetTeam(r.Context(), teamID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTeamWithMembersDTO(team))
}

// UpdateTeam обрабатывает PATCH /teams/{teamID}; только администратор команды
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.requireRole(r, teamID, entity.RoleAdmin); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.UpdateTeamRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	team, err := h.teamUseCase.UpdateTeam(r.Context(), teamID, req.Name)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTeamDTO(team))
}

// DeleteTeam обрабатывает DELETE /teams/{teamID}; только администратор команды
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.requireRole(r, teamID, entity.RoleAdmin); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.teamUseCase.DeleteTeam(r.Context(), teamID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember обрабатывает POST /teams/{teamID}/members.
// Участник с ролью user может добавить любой член команды, с ролью manager или admin только администратор.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.AddMemberRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	role := entity.RoleUser
	if req.Role != "" {
		role = entity.Role(req.Role)
	}

	var allowed []entity.Role
	if role != entity.RoleUser {
		allowed = []entity.Role{entity.RoleAdmin}
	}
	if err := h.requireRole(r, teamID, allowed...); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	membership, err := h.teamUseCase.AddMember(r.Context(), teamID, userID, role)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToMembershipDTO(membership))
}

// UpdateMemberRole обрабатывает PATCH /teams/{teamID}/members/{userID}; только администратор команды
func (h *TeamHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.requireRole(r, teamID, entity.RoleAdmin); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.UpdateRoleRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	membership, err := h.teamUseCase.UpdateRole(r.Context(), teamID, userID, entity.Role(req.Role))
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMembershipDTO(membership))
}

// RemoveMember обрабатывает DELETE /teams/{teamID}/members/{userID}.
// Выйти из команды может сам участник, исключить другого администратор или менеджер.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	actor, err := actorID(r)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if actor != userID {
		if err := h.requireRole(r, teamID, entity.RoleAdmin, entity.RoleManager); err != nil {
			h.handleUseCaseError(w, r, err)
			return
		}
	}

	if err := h.teamUseCase.RemoveMember(r.Context(), teamID, userID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTasks обрабатывает GET /teams/{teamID}/tasks?status=
func (h *TeamHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.requireRole(r, teamID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var status *entity.TaskStatus
	if s := r.URL.Query().Get("status"); s != "" {
		ts := entity.TaskStatus(s)
		status = &ts
	}

	tasks, err := h.taskUseCase.ListTeamTasks(r.Context(), teamID, status)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDTOs(tasks))
}

func (h *TeamHandler) requireRole(r *http.Request, teamID uuid.UUID, roles ...entity.Role) error {
	actor, err := actorID(r)
	if err != nil {
		return err
	}

	_, err = h.teamUseCase.RequireRole(r.Context(), teamID, actor, roles...)
	return err
}

func queryInt(r *http.Request, name string) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, domainErrors.InvalidField(name, "must be a non-negative integer")
	}
	return n, nil
}
