package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5
)

// ValidScore проверяет оценку: nil означает "еще не оценено"
func ValidScore(score *int) bool {
	return score == nil || (*score >= MinScore && *score <= MaxScore)
}

type Evaluation struct {
	ID          uuid.UUID
	TaskID      uuid.UUID
	PerformerID *uuid.UUID
	Score       *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EvaluationKey ключ уникальности оценки: задача либо пара (задача, исполнитель)
type EvaluationKey struct {
	TaskID      uuid.UUID
	PerformerID *uuid.UUID
}
