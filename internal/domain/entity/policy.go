package entity

import "fmt"

// MembershipPolicy определяет правило уникальности членства
type MembershipPolicy string

const (
	// MembershipPerTeam: пара (команда, пользователь) уникальна
	MembershipPerTeam MembershipPolicy = "per_team"
	// MembershipOneTeam: пользователь состоит не более чем в одной команде
	MembershipOneTeam MembershipPolicy = "one_team"
)

func ParseMembershipPolicy(s string) (MembershipPolicy, error) {
	switch p := MembershipPolicy(s); p {
	case MembershipPerTeam, MembershipOneTeam:
		return p, nil
	case "":
		return MembershipPerTeam, nil
	}
	return "", fmt.Errorf("unknown membership policy %q", s)
}

// EvaluationPolicy определяет правило уникальности оценки
type EvaluationPolicy string

const (
	EvaluationPerTask      EvaluationPolicy = "per_task"
	EvaluationPerPerformer EvaluationPolicy = "per_performer"
)

func ParseEvaluationPolicy(s string) (EvaluationPolicy, error) {
	switch p := EvaluationPolicy(s); p {
	case EvaluationPerTask, EvaluationPerPerformer:
		return p, nil
	case "":
		return EvaluationPerTask, nil
	}
	return "", fmt.Errorf("unknown evaluation policy %q", s)
}

// KeyFor возвращает ключ уникальности оценки задачи по политике
func (p EvaluationPolicy) KeyFor(task *Task) EvaluationKey {
	key := EvaluationKey{TaskID: task.ID}
	if p == EvaluationPerPerformer && task.PerformerID != nil {
		performer := *task.PerformerID
		key.PerformerID = &performer
	}
	return key
}
