package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/dto"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/middleware"
	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

// UserHandler обрабатывает запросы для пользователей
type UserHandler struct {
	*Common
	userUseCase       *usecase.UserUseCase
	meetingUseCase    *usecase.MeetingUseCase
	evaluationUseCase *usecase.EvaluationUseCase
}

// NewUserHandler создает новый handler для пользователей
func NewUserHandler(
	common *Common,
	userUseCase *usecase.UserUseCase,
	meetingUseCase *usecase.MeetingUseCase,
	evaluationUseCase *usecase.EvaluationUseCase,
) *UserHandler {
	return &UserHandler{
		Common:            common,
		userUseCase:       userUseCase,
		meetingUseCase:    meetingUseCase,
		evaluationUseCase: evaluationUseCase,
	}
}

// Register обрабатывает POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	user, err := h.userUseCase.Register(r.Context(), usecase.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToUserDTO(user))
}

// Login обрабатывает POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	res, err := h.userUseCase.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.LoginResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt,
		User:        dto.ToUserDTO(res.User),
	})
}

// Logout обрабатывает POST /users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerToken(r)

	if err := h.userUseCase.Logout(r.Context(), token); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUser обрабатывает GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	user, err := h.userUseCase.GetProfile(r.Context(), userID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserDTO(user))
}

// UpdateUser обрабатывает PATCH /users/{userID}; менять можно только свой профиль
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ownAccount(r)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.UpdateProfileRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	user, err := h.userUseCase.UpdateProfile(r.Context(), userID, entity.ProfileUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserDTO(user))
}

// DeleteUser обрабатывает DELETE /users/{userID}; удалить можно только свой аккаунт
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ownAccount(r)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.userUseCase.DeleteUser(r.Context(), userID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetIsStaff обрабатывает POST /users/setIsStaff (админский токен)
func (h *UserHandler) SetIsStaff(w http.ResponseWriter, r *http.Request) {
	var req dto.SetIsStaffRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	user, err := h.userUseCase.SetIsStaff(r.Context(), userID, req.IsStaff)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserDTO(user))
}

// ListMeetings обрабатывает GET /users/{userID}/meetings
func (h *UserHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	meetings, err := h.meetingUseCase.ListUserMeetings(r.Context(), userID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	response := make([]dto.MeetingDTO, 0, len(meetings))
	for _, m := range meetings {
		response = append(response, dto.ToMeetingDTO(m))
	}

	respondJSON(w, http.StatusOK, response)
}

// ListEvaluations обрабатывает GET /users/{userID}/evaluations
func (h *UserHandler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	evaluations, err := h.evaluationUseCase.ListUserEvaluations(r.Context(), userID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	response := make([]dto.EvaluationDTO, 0, len(evaluations))
	for _, e := range evaluations {
		response = append(response, dto.ToEvaluationDTO(e))
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *UserHandler) ownAccount(r *http.Request) (uuid.UUID, error) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		return userID, err
	}

	actor, err := actorID(r)
	if err != nil {
		return userID, err
	}

	if actor != userID {
		return userID, domainErrors.NewDomainError(domainErrors.CodeForbidden, "only own account can be changed", domainErrors.ErrForbidden)
	}

	return userID, nil
}
