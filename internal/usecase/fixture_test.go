package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kirvitchenko/finalProjectCrm/internal/auth"
	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository/memstore"
)

var testNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store       *memstore.Store
	teams       *TeamUseCase
	meetings    *MeetingUseCase
	evaluations *EvaluationUseCase
	users       *UserUseCase
	tasks       *TaskUseCase
	comments    *CommentUseCase
	stats       *StatisticsUseCase
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	membership entity.MembershipPolicy
	evaluation entity.EvaluationPolicy
}

func withMembershipPolicy(p entity.MembershipPolicy) fixtureOption {
	return func(c *fixtureConfig) { c.membership = p }
}

func withEvaluationPolicy(p entity.EvaluationPolicy) fixtureOption {
	return func(c *fixtureConfig) { c.evaluation = p }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{
		membership: entity.MembershipPerTeam,
		evaluation: entity.EvaluationPerTask,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := memstore.New()
	tx := s.TxManager()

	return &fixture{
		store:       s,
		teams:       NewTeamUseCase(s.Teams(), s.Users(), s.Memberships(), tx, cfg.membership),
		meetings:    NewMeetingUseCase(s.Meetings(), s.Users(), tx, func() time.Time { return testNow }),
		evaluations: NewEvaluationUseCase(s.Evaluations(), s.Tasks(), s.Users(), s.Memberships(), tx, cfg.evaluation),
		users:       NewUserUseCase(s.Users(), s.Revocations(), auth.NewTokenManager("test-secret", time.Hour)),
		tasks:       NewTaskUseCase(s.Tasks(), s.Teams(), s.Memberships(), tx),
		comments:    NewCommentUseCase(s.Comments(), s.Tasks(), s.Memberships()),
		stats:       NewStatisticsUseCase(s.Statistics()),
	}
}

func (f *fixture) user(t *testing.T, username string) *entity.User {
	t.Helper()

	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) staff(t *testing.T, username string) *entity.User {
	t.Helper()

	u := f.user(t, username)
	u, err := f.users.SetIsStaff(context.Background(), u.ID, true)
	require.NoError(t, err)
	return u
}

func (f *fixture) team(t *testing.T, name string, creator *entity.User) *entity.Team {
	t.Helper()

	team, err := f.teams.CreateTeam(context.Background(), name, creator.ID)
	require.NoError(t, err)
	return &team.Team
}

func (f *fixture) task(t *testing.T, team *entity.Team, author *entity.User, performer *entity.User) *entity.Task {
	t.Helper()

	in := CreateTaskInput{
		ActorID:     author.ID,
		TeamID:      team.ID,
		Description: "prepare the report",
	}
	if performer != nil {
		in.PerformerID = &performer.ID
	}

	task, err := f.tasks.CreateTask(context.Background(), in)
	require.NoError(t, err)
	return task
}

func (f *fixture) meeting(t *testing.T, start, end time.Time, participants ...uuid.UUID) *entity.Meeting {
	t.Helper()

	m, err := f.meetings.ScheduleMeeting(context.Background(), start, end, participants...)
	require.NoError(t, err)
	return &m.Meeting
}

func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 2, hour, minute, 0, 0, time.UTC)
}

func intPtr(v int) *int {
	return &v
}
