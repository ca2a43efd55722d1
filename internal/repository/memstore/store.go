// Package memstore реализует интерфейсы пакета repository в памяти процесса.
// Используется в тестах usecase и HTTP слоя; повторяет ограничения схемы
// PostgreSQL (уникальность, внешние ключи, каскады).
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
)

type state struct {
	users          map[uuid.UUID]entity.User
	teams          map[uuid.UUID]entity.Team
	memberships    map[uuid.UUID]entity.Membership
	tasks          map[uuid.UUID]entity.Task
	comments       []entity.Comment
	meetings       map[uuid.UUID]entity.Meeting
	participations []entity.Participation
	evaluations    map[uuid.UUID]entity.Evaluation
	revoked        map[string]time.Time
}

func newState() *state {
	return &state{
		users:       make(map[uuid.UUID]entity.User),
		teams:       make(map[uuid.UUID]entity.Team),
		memberships: make(map[uuid.UUID]entity.Membership),
		tasks:       make(map[uuid.UUID]entity.Task),
		meetings:    make(map[uuid.UUID]entity.Meeting),
		evaluations: make(map[uuid.UUID]entity.Evaluation),
		revoked:     make(map[string]time.Time),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.teams {
		c.teams[k] = v
	}
	for k, v := range s.memberships {
		c.memberships[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	c.comments = append(c.comments, s.comments...)
	for k, v := range s.meetings {
		c.meetings[k] = v
	}
	c.participations = append(c.participations, s.participations...)
	for k, v := range s.evaluations {
		c.evaluations[k] = v
	}
	for k, v := range s.revoked {
		c.revoked[k] = v
	}
	return c
}

// Store общее состояние всех репозиториев
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *state
}

// New создает пустое хранилище
func New() *Store {
	return &Store{data: newState()}
}

func (s *Store) Users() *UserRepository             { return &UserRepository{s} }
func (s *Store) Teams() *TeamRepository             { return &TeamRepository{s} }
func (s *Store) Memberships() *MembershipRepository { return &MembershipRepository{s} }
func (s *Store) Tasks() *TaskRepository             { return &TaskRepository{s} }
func (s *Store) Comments() *CommentRepository       { return &CommentRepository{s} }
func (s *Store) Meetings() *MeetingRepository       { return &MeetingRepository{s} }
func (s *Store) Evaluations() *EvaluationRepository { return &EvaluationRepository{s} }
func (s *Store) Revocations() *RevocationStore      { return &RevocationStore{s} }
func (s *Store) Statistics() *StatisticsRepository  { return &StatisticsRepository{s} }
func (s *Store) TxManager() *TransactionManager     { return &TransactionManager{s} }

// EvaluationCount возвращает число сохраненных оценок
func (s *Store) EvaluationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.evaluations)
}

func (s *Store) lock() (*state, func()) {
	s.mu.Lock()
	return s.data, s.mu.Unlock
}

type txKey struct{}

// TransactionManager сериализует транзакции и откатывает состояние при ошибке
type TransactionManager struct {
	s *Store
}

func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	tm.s.txMu.Lock()
	defer tm.s.txMu.Unlock()

	tm.s.mu.Lock()
	snapshot := tm.s.data.clone()
	tm.s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		tm.s.mu.Lock()
		tm.s.data = snapshot
		tm.s.mu.Unlock()
		return err
	}

	return nil
}
