package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

// RequestValidator проверяет DTO запросов по тегам validate
type RequestValidator struct {
	validator *validator.Validate
}

// NewRequestValidator создает валидатор с доменными тегами team_role, task_status и score
func NewRequestValidator() (*RequestValidator, error) {
	v := validator.New()

	// В ошибках используем имена полей из json тегов
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"team_role":   teamRoleValidator,
		"task_status": taskStatusValidator,
		"score":       scoreValidator,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, err
		}
	}

	return &RequestValidator{validator: v}, nil
}

// Validate возвращает INVALID_INPUT с сообщением для каждого поля, не прошедшего проверку
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	domainErr := domainErrors.NewDomainError(domainErrors.CodeInvalidInput, "validation failed", domainErrors.ErrInvalidInput)
	for _, fe := range validationErrs {
		domainErr.WithField(fieldPath(fe), fieldMessage(fe))
	}
	return domainErr
}

// fieldPath убирает имя корневой структуры: "ScheduleMeetingRequest.participants[0]" -> "participants[0]"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "team_role":
		return "must be one of user, manager, admin"
	case "task_status":
		return "must be one of open, processing, done"
	case "score":
		return "must be between 1 and 5"
	}
	return "invalid value"
}

func teamRoleValidator(fl validator.FieldLevel) bool {
	return entity.Role(fl.Field().String()).Valid()
}

func taskStatusValidator(fl validator.FieldLevel) bool {
	return entity.TaskStatus(fl.Field().String()).Valid()
}

func scoreValidator(fl validator.FieldLevel) bool {
	score := int(fl.Field().Int())
	return entity.ValidScore(&score)
}
