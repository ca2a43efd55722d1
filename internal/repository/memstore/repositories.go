package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/domain/validation"
)

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *entity.User) error {
	data, unlock := r.s.lock()
	defer unlock()

	for _, u := range data.users {
		if u.Username == user.Username {
			return domainErrors.ErrUserExists
		}
	}
	data.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *entity.User) error {
	data, unlock := r.s.lock()
	defer unlock()

	current, ok := data.users[user.ID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	current.Email = user.Email
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	current.IsStaff = user.IsStaff
	current.PasswordHash = user.PasswordHash
	current.UpdatedAt = user.UpdatedAt
	data.users[user.ID] = current
	return nil
}

func (r *UserRepository) Delete(_ context.Context, userID uuid.UUID) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.users[userID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(data.users, userID)

	for id, team := range data.teams {
		if team.IsCreator(userID) {
			team.CreatorID = nil
			data.teams[id] = team
		}
	}
	for id, m := range data.memberships {
		if m.UserID == userID {
			delete(data.memberships, id)
		}
	}
	for id, task := range data.tasks {
		if task.AuthorID != nil && *task.AuthorID == userID {
			task.AuthorID = nil
		}
		if task.PerformerID != nil && *task.PerformerID == userID {
			task.PerformerID = nil
		}
		data.tasks[id] = task
	}
	comments := data.comments[:0]
	for _, c := range data.comments {
		if c.UserID != userID {
			comments = append(comments, c)
		}
	}
	data.comments = comments
	participations := data.participations[:0]
	for _, p := range data.participations {
		if p.UserID != userID {
			participations = append(participations, p)
		}
	}
	data.participations = participations
	for id, e := range data.evaluations {
		if e.PerformerID != nil && *e.PerformerID == userID {
			delete(data.evaluations, id)
		}
	}
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (*entity.User, error) {
	data, unlock := r.s.lock()
	defer unlock()

	user, ok := data.users[userID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	data, unlock := r.s.lock()
	defer unlock()

	for _, u := range data.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// LockByID в памяти эквивалентен GetByID: транзакции уже сериализованы
func (r *UserRepository) LockByID(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return r.GetByID(ctx, userID)
}

type TeamRepository struct{ s *Store }

func (r *TeamRepository) Create(_ context.Context, team *entity.Team) error {
	data, unlock := r.s.lock()
	defer unlock()

	if team.CreatorID != nil {
		if _, ok := data.users[*team.CreatorID]; !ok {
			return domainErrors.ErrNotFound
		}
	}
	data.teams[team.ID] = *team
	return nil
}

func (r *TeamRepository) Update(_ context.Context, team *entity.Team) error {
	data, unlock := r.s.lock()
	defer unlock()

	current, ok := data.teams[team.ID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	current.Name = team.Name
	current.UpdatedAt = team.UpdatedAt
	data.teams[team.ID] = current
	return nil
}

func (r *TeamRepository) Delete(_ context.Context, teamID uuid.UUID) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.teams[teamID]; !ok {
		return domainErrors.ErrNotFound
	}
	for _, task := range data.tasks {
		if task.TeamID == teamID {
			return domainErrors.ErrTeamHasTasks
		}
	}
	delete(data.teams, teamID)
	for id, m := range data.memberships {
		if m.TeamID == teamID {
			delete(data.memberships, id)
		}
	}
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID uuid.UUID) (*entity.Team, error) {
	data, unlock := r.s.lock()
	defer unlock()

	team, ok := data.teams[teamID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &team, nil
}

func (r *TeamRepository) List(_ context.Context, limit, offset int) ([]*entity.Team, error) {
	data, unlock := r.s.lock()
	defer unlock()

	teams := make([]*entity.Team, 0, len(data.teams))
	for _, t := range data.teams {
		team := t
		teams = append(teams, &team)
	}
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].ID.String() < teams[j].ID.String()
		}
		return teams[i].CreatedAt.After(teams[j].CreatedAt)
	})

	if offset >= len(teams) {
		return []*entity.Team{}, nil
	}
	end := offset + limit
	if end > len(teams) {
		end = len(teams)
	}
	return teams[offset:end], nil
}

type MembershipRepository struct{ s *Store }

func (r *MembershipRepository) Create(_ context.Context, m *entity.Membership) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.teams[m.TeamID]; !ok {
		return domainErrors.ErrNotFound
	}
	if _, ok := data.users[m.UserID]; !ok {
		return domainErrors.ErrNotFound
	}
	for _, existing := range data.memberships {
		if existing.TeamID == m.TeamID && existing.UserID == m.UserID {
			return domainErrors.ErrDuplicateMembership
		}
	}
	data.memberships[m.ID] = *m
	return nil
}

func (r *MembershipRepository) Get(_ context.Context, teamID, userID uuid.UUID) (*entity.Membership, error) {
	data, unlock := r.s.lock()
	defer unlock()

	for _, m := range data.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			membership := m
			return &membership, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r *MembershipRepository) ExistsForUser(_ context.Context, userID uuid.UUID) (bool, error) {
	data, unlock := r.s.lock()
	defer unlock()

	for _, m := range data.memberships {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MembershipRepository) ListByTeam(_ context.Context, teamID uuid.UUID) ([]entity.TeamMember, error) {
	data, unlock := r.s.lock()
	defer unlock()

	members := make([]entity.TeamMember, 0)
	for _, m := range data.memberships {
		if m.TeamID != teamID {
			continue
		}
		members = append(members, entity.TeamMember{
			UserID:   m.UserID,
			Username: data.users[m.UserID].Username,
			Role:     m.Role,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Username < members[j].Username })
	return members, nil
}

func (r *MembershipRepository) UpdateRole(_ context.Context, teamID, userID uuid.UUID, role entity.Role) error {
	data, unlock := r.s.lock()
	defer unlock()

	for id, m := range data.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			m.Role = role
			data.memberships[id] = m
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (r *MembershipRepository) Delete(_ context.Context, teamID, userID uuid.UUID) error {
	data, unlock := r.s.lock()
	defer unlock()

	for id, m := range data.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			delete(data.memberships, id)
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

type TaskRepository struct{ s *Store }

func (r *TaskRepository) Create(_ context.Context, task *entity.Task) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.teams[task.TeamID]; !ok {
		return domainErrors.ErrNotFound
	}
	data.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepository) Update(_ context.Context, task *entity.Task) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.tasks[task.ID]; !ok {
		return domainErrors.ErrNotFound
	}
	if task.PerformerID != nil {
		if _, ok := data.users[*task.PerformerID]; !ok {
			return domainErrors.ErrNotFound
		}
	}
	data.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, taskID uuid.UUID) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.tasks[taskID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(data.tasks, taskID)

	comments := data.comments[:0]
	for _, c := range data.comments {
		if c.TaskID != taskID {
			comments = append(comments, c)
		}
	}
	data.comments = comments
	for id, e := range data.evaluations {
		if e.TaskID == taskID {
			delete(data.evaluations, id)
		}
	}
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, taskID uuid.UUID) (*entity.Task, error) {
	data, unlock := r.s.lock()
	defer unlock()

	task, ok := data.tasks[taskID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &task, nil
}

func (r *TaskRepository) LockByID(ctx context.Context, taskID uuid.UUID) (*entity.Task, error) {
	return r.GetByID(ctx, taskID)
}

func (r *TaskRepository) ListByTeam(_ context.Context, teamID uuid.UUID, status *entity.TaskStatus) ([]*entity.Task, error) {
	data, unlock := r.s.lock()
	defer unlock()

	tasks := make([]*entity.Task, 0)
	for _, t := range data.tasks {
		if t.TeamID != teamID || (status != nil && t.Status != *status) {
			continue
		}
		task := t
		tasks = append(tasks, &task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

type CommentRepository struct{ s *Store }

func (r *CommentRepository) Create(_ context.Context, c *entity.Comment) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.tasks[c.TaskID]; !ok {
		return domainErrors.ErrNotFound
	}
	if _, ok := data.users[c.UserID]; !ok {
		return domainErrors.ErrNotFound
	}
	data.comments = append(data.comments, *c)
	return nil
}

func (r *CommentRepository) ListByTask(_ context.Context, taskID uuid.UUID) ([]*entity.Comment, error) {
	data, unlock := r.s.lock()
	defer unlock()

	comments := make([]*entity.Comment, 0)
	for _, c := range data.comments {
		if c.TaskID == taskID {
			comment := c
			comments = append(comments, &comment)
		}
	}
	return comments, nil
}

type MeetingRepository struct{ s *Store }

func (r *MeetingRepository) Create(_ context.Context, m *entity.Meeting) error {
	data, unlock := r.s.lock()
	defer unlock()

	data.meetings[m.ID] = *m
	return nil
}

func (r *MeetingRepository) Update(_ context.Context, m *entity.Meeting) error {
	data, unlock := r.s.lock()
	defer unlock()

	current, ok := data.meetings[m.ID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	current.Start = m.Start
	current.End = m.End
	data.meetings[m.ID] = current
	return nil
}

func (r *MeetingRepository) Delete(_ context.Context, meetingID uuid.UUID) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.meetings[meetingID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(data.meetings, meetingID)

	participations := data.participations[:0]
	for _, p := range data.participations {
		if p.MeetingID != meetingID {
			participations = append(participations, p)
		}
	}
	data.participations = participations
	return nil
}

func (r *MeetingRepository) GetByID(_ context.Context, meetingID uuid.UUID) (*entity.Meeting, error) {
	data, unlock := r.s.lock()
	defer unlock()

	m, ok := data.meetings[meetingID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &m, nil
}

// LockByID в памяти эквивалентен GetByID: транзакции уже сериализованы
func (r *MeetingRepository) LockByID(ctx context.Context, meetingID uuid.UUID) (*entity.Meeting, error) {
	return r.GetByID(ctx, meetingID)
}

func (r *MeetingRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Meeting, error) {
	data, unlock := r.s.lock()
	defer unlock()

	return userMeetings(data, userID), nil
}

func (r *MeetingRepository) FindOverlapping(
	_ context.Context,
	userID, excludeID uuid.UUID,
	start, end time.Time,
) ([]*entity.Meeting, error) {
	data, unlock := r.s.lock()
	defer unlock()

	candidate := validation.Interval{Start: start, End: end}
	overlapping := make([]*entity.Meeting, 0)
	for _, m := range userMeetings(data, userID) {
		if m.ID != excludeID && candidate.Overlaps(validation.MeetingInterval(m)) {
			overlapping = append(overlapping, m)
		}
	}
	return overlapping, nil
}

func (r *MeetingRepository) AddParticipant(_ context.Context, p *entity.Participation) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.meetings[p.MeetingID]; !ok {
		return domainErrors.ErrNotFound
	}
	if _, ok := data.users[p.UserID]; !ok {
		return domainErrors.ErrNotFound
	}
	for _, existing := range data.participations {
		if existing.MeetingID == p.MeetingID && existing.UserID == p.UserID {
			return domainErrors.ErrAlreadyParticipant
		}
	}
	data.participations = append(data.participations, *p)
	return nil
}

func (r *MeetingRepository) RemoveParticipant(_ context.Context, meetingID, userID uuid.UUID) error {
	data, unlock := r.s.lock()
	defer unlock()

	for i, p := range data.participations {
		if p.MeetingID == meetingID && p.UserID == userID {
			data.participations = append(data.participations[:i], data.participations[i+1:]...)
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (r *MeetingRepository) IsParticipant(_ context.Context, meetingID, userID uuid.UUID) (bool, error) {
	data, unlock := r.s.lock()
	defer unlock()

	for _, p := range data.participations {
		if p.MeetingID == meetingID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MeetingRepository) ListParticipants(_ context.Context, meetingID uuid.UUID) ([]uuid.UUID, error) {
	data, unlock := r.s.lock()
	defer unlock()

	participants := make([]uuid.UUID, 0)
	for _, p := range data.participations {
		if p.MeetingID == meetingID {
			participants = append(participants, p.UserID)
		}
	}
	return participants, nil
}

func userMeetings(data *state, userID uuid.UUID) []*entity.Meeting {
	meetings := make([]*entity.Meeting, 0)
	for _, p := range data.participations {
		if p.UserID != userID {
			continue
		}
		if m, ok := data.meetings[p.MeetingID]; ok {
			meeting := m
			meetings = append(meetings, &meeting)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].Start.Before(meetings[j].Start) })
	return meetings
}

type EvaluationRepository struct{ s *Store }

func (r *EvaluationRepository) Create(_ context.Context, e *entity.Evaluation) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.tasks[e.TaskID]; !ok {
		return domainErrors.ErrNotFound
	}
	key := entity.EvaluationKey{TaskID: e.TaskID, PerformerID: e.PerformerID}
	if findEvaluation(data, key) != nil {
		return domainErrors.ErrEvaluationExists
	}
	data.evaluations[e.ID] = *e
	return nil
}

func (r *EvaluationRepository) Update(_ context.Context, e *entity.Evaluation) error {
	data, unlock := r.s.lock()
	defer unlock()

	current, ok := data.evaluations[e.ID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	current.Score = e.Score
	current.UpdatedAt = e.UpdatedAt
	data.evaluations[e.ID] = current
	return nil
}

func (r *EvaluationRepository) Delete(_ context.Context, evaluationID uuid.UUID) error {
	data, unlock := r.s.lock()
	defer unlock()

	if _, ok := data.evaluations[evaluationID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(data.evaluations, evaluationID)
	return nil
}

func (r *EvaluationRepository) Find(_ context.Context, key entity.EvaluationKey) (*entity.Evaluation, error) {
	data, unlock := r.s.lock()
	defer unlock()

	if e := findEvaluation(data, key); e != nil {
		return e, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r *EvaluationRepository) ListByTask(_ context.Context, taskID uuid.UUID) ([]*entity.Evaluation, error) {
	data, unlock := r.s.lock()
	defer unlock()

	evaluations := make([]*entity.Evaluation, 0)
	for _, e := range data.evaluations {
		if e.TaskID == taskID {
			evaluation := e
			evaluations = append(evaluations, &evaluation)
		}
	}
	return evaluations, nil
}

func (r *EvaluationRepository) ListByPerformer(_ context.Context, userID uuid.UUID) ([]*entity.Evaluation, error) {
	data, unlock := r.s.lock()
	defer unlock()

	evaluations := make([]*entity.Evaluation, 0)
	for _, e := range data.evaluations {
		performer := e.PerformerID
		if performer == nil {
			performer = data.tasks[e.TaskID].PerformerID
		}
		if performer != nil && *performer == userID {
			evaluation := e
			evaluations = append(evaluations, &evaluation)
		}
	}
	sort.Slice(evaluations, func(i, j int) bool { return evaluations[i].UpdatedAt.After(evaluations[j].UpdatedAt) })
	return evaluations, nil
}

func findEvaluation(data *state, key entity.EvaluationKey) *entity.Evaluation {
	for _, e := range data.evaluations {
		if e.TaskID != key.TaskID {
			continue
		}
		if samePerformer(e.PerformerID, key.PerformerID) {
			evaluation := e
			return &evaluation
		}
	}
	return nil
}

func samePerformer(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type RevocationStore struct{ s *Store }

func (r *RevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	data, unlock := r.s.lock()
	defer unlock()

	data.revoked[jti] = expiresAt
	return nil
}

func (r *RevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	data, unlock := r.s.lock()
	defer unlock()

	_, ok := data.revoked[jti]
	return ok, nil
}

type StatisticsRepository struct{ s *Store }

func (r *StatisticsRepository) GetStatistics(_ context.Context) (*entity.Statistics, error) {
	data, unlock := r.s.lock()
	defer unlock()

	stats := &entity.Statistics{
		TotalUsers:       len(data.users),
		TotalTeams:       len(data.teams),
		TotalTasks:       len(data.tasks),
		TasksByStatus:    make(map[string]int),
		TotalMeetings:    len(data.meetings),
		TotalEvaluations: len(data.evaluations),
		AverageByUser:    make(map[string]float64),
	}

	for _, t := range data.tasks {
		stats.TasksByStatus[string(t.Status)]++
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, e := range data.evaluations {
		if e.Score == nil {
			continue
		}
		performer := e.PerformerID
		if performer == nil {
			performer = data.tasks[e.TaskID].PerformerID
		}
		if performer == nil {
			continue
		}
		username := data.users[*performer].Username
		sums[username] += *e.Score
		counts[username]++
	}
	for username, sum := range sums {
		stats.AverageByUser[username] = float64(sum) / float64(counts[username])
	}

	return stats, nil
}
