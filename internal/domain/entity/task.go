package entity

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus статус задачи. Переходы между статусами не ограничены.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusProcessing, TaskStatusDone:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID
	AuthorID    *uuid.UUID
	PerformerID *uuid.UUID
	TeamID      uuid.UUID
	Status      TaskStatus
	Description string
	Deadline    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskUpdate описывает частичное обновление задачи
type TaskUpdate struct {
	Status         *TaskStatus
	PerformerID    *uuid.UUID
	ClearPerformer bool
	Description    *string
	Deadline       *time.Time
	ClearDeadline  bool
}

type Comment struct {
	ID        uuid.UUID
	Text      string
	UserID    uuid.UUID
	TaskID    uuid.UUID
	CreatedAt time.Time
}
