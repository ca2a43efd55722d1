package usecase

import (
	"errors"
	"fmt"

	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

// Сообщения для ошибок-сигналов, которые возвращает слой хранения
var storageErrorMessages = []struct {
	sentinel error
	message  string
}{
	{domainErrors.ErrDuplicateMembership, "user is already a member of the team"},
	{domainErrors.ErrAlreadyParticipant, "user already participates in the meeting"},
	{domainErrors.ErrTeamHasTasks, "team still has tasks"},
	{domainErrors.ErrUserExists, "username already taken"},
	{domainErrors.ErrEvaluationExists, "task already has an evaluation"},
}

// storageError превращает ошибку репозитория в доменную. NOT_FOUND получает имя сущности what,
// неизвестные ошибки оборачиваются с описанием операции op.
func storageError(err error, what, op string) error {
	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, domainErrors.ErrNotFound) {
		return domainErrors.NotFound(what)
	}

	for _, s := range storageErrorMessages {
		if errors.Is(err, s.sentinel) {
			return domainErrors.NewDomainError(s.sentinel.Error(), s.message, s.sentinel)
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

func unauthorized(message string) error {
	return domainErrors.NewDomainError(domainErrors.CodeUnauthorized, message, domainErrors.ErrUnauthorized)
}

func forbidden(message string) error {
	return domainErrors.NewDomainError(domainErrors.CodeForbidden, message, domainErrors.ErrForbidden)
}
