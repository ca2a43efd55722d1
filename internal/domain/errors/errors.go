package errors

import "errors"

const (
	CodeDuplicateMembership = "DUPLICATE_MEMBERSHIP"
	CodeProtectedCreator    = "PROTECTED_CREATOR"
	CodeInvalidInterval     = "INVALID_INTERVAL"
	CodePastStart           = "PAST_START"
	CodeOverlappingMeeting  = "OVERLAPPING_MEETING"
	CodeAlreadyParticipant  = "ALREADY_PARTICIPANT"
	CodeTeamHasTasks        = "TEAM_HAS_TASKS"
	CodeUserExists          = "USER_EXISTS"
	CodeEvaluationExists    = "EVALUATION_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
)

var (
	ErrDuplicateMembership = errors.New(CodeDuplicateMembership)
	ErrProtectedCreator    = errors.New(CodeProtectedCreator)
	ErrInvalidInterval     = errors.New(CodeInvalidInterval)
	ErrPastStart           = errors.New(CodePastStart)
	ErrOverlappingMeeting  = errors.New(CodeOverlappingMeeting)
	ErrAlreadyParticipant  = errors.New(CodeAlreadyParticipant)
	ErrTeamHasTasks        = errors.New(CodeTeamHasTasks)
	ErrUserExists          = errors.New(CodeUserExists)
	ErrEvaluationExists    = errors.New(CodeEvaluationExists)
	ErrInvalidCredentials  = errors.New(CodeInvalidCredentials)
	ErrUnauthorized        = errors.New(CodeUnauthorized)
	ErrForbidden           = errors.New(CodeForbidden)
	ErrNotFound            = errors.New(CodeNotFound)
	ErrInvalidInput        = errors.New(CodeInvalidInput)
)

// DomainError представляет доменную ошибку с кодом, сообщением и ошибками по полям
type DomainError struct {
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithField добавляет сообщение об ошибке для поля
func (e *DomainError) WithField(field, message string) *DomainError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// NewDomainError создает новую доменную ошибку
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFound создает ошибку NOT_FOUND для сущности
func NotFound(entity string) *DomainError {
	return NewDomainError(CodeNotFound, entity+" not found", ErrNotFound)
}

// InvalidField создает ошибку INVALID_INPUT для одного поля
func InvalidField(field, message string) *DomainError {
	return NewDomainError(CodeInvalidInput, "validation failed", ErrInvalidInput).WithField(field, message)
}

// CodeOf возвращает код доменной ошибки или пустую строку
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
