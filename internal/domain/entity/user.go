package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsStaff      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate содержит изменяемые поля профиля, nil означает "не менять"
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}
