package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/metrics"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/dto"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/middleware"
)

// Common зависимости, общие для всех handlers
type Common struct {
	Validator *RequestValidator
	Metrics   *metrics.Metrics
}

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Заголовки уже отправлены, статус изменить нельзя
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// respondError отправляет ошибку в формате API
func respondError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	respondJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	})
}

// handleUseCaseError обрабатывает ошибки из usecase слоя
func (c *Common) handleUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		status := getStatusCodeByErrorCode(domainErr.Code)
		if status < http.StatusInternalServerError {
			c.Metrics.Rejected(domainErr.Code)
		}
		respondError(w, status, domainErr.Code, domainErr.Message, domainErr.Fields)
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
}

// getStatusCodeByErrorCode возвращает HTTP статус код по коду доменной ошибки
func getStatusCodeByErrorCode(code string) int {
	switch code {
	case domainErrors.CodeDuplicateMembership,
		domainErrors.CodeProtectedCreator,
		domainErrors.CodeOverlappingMeeting,
		domainErrors.CodeAlreadyParticipant,
		domainErrors.CodeTeamHasTasks,
		domainErrors.CodeUserExists,
		domainErrors.CodeEvaluationExists:
		return http.StatusConflict
	case domainErrors.CodeInvalidInterval, domainErrors.CodePastStart:
		return http.StatusUnprocessableEntity
	case domainErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case domainErrors.CodeUnauthorized, domainErrors.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case domainErrors.CodeForbidden:
		return http.StatusForbidden
	case domainErrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decode читает JSON тело запроса и проверяет его валидатором
func (c *Common) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewDomainError(domainErrors.CodeInvalidInput, "invalid request body", domainErrors.ErrInvalidInput)
	}
	return c.Validator.Validate(dst)
}

// pathUUID извлекает UUID из параметра пути
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domainErrors.InvalidField(name, "must be a valid UUID")
	}
	return id, nil
}

// actorID возвращает ID аутентифицированного пользователя
func actorID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, domainErrors.NewDomainError(domainErrors.CodeUnauthorized, "authentication required", domainErrors.ErrUnauthorized)
	}
	return id, nil
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, domainErrors.InvalidField(field, "must be a valid UUID")
	}
	return id, nil
}
