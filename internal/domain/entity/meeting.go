package entity

import (
	"time"

	"github.com/google/uuid"
)

type Meeting struct {
	ID        uuid.UUID
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// Participation запись пользователя на встречу
type Participation struct {
	ID        uuid.UUID
	MeetingID uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

type MeetingWithParticipants struct {
	Meeting      Meeting
	Participants []uuid.UUID
}
