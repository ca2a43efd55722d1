package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role роль пользователя в команде
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Valid проверяет, что роль входит в допустимый набор
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type Team struct {
	ID        uuid.UUID
	Name      string
	CreatorID *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCreator сообщает, является ли пользователь создателем команды
func (t *Team) IsCreator(userID uuid.UUID) bool {
	return t.CreatorID != nil && *t.CreatorID == userID
}

// Membership связь пользователя и команды
type Membership struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	UserID    uuid.UUID
	Role      Role
	CreatedAt time.Time
}

type TeamMember struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

type TeamWithMembers struct {
	Team    Team
	Members []TeamMember
}
