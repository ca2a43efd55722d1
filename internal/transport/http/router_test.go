package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirvitchenko/finalProjectCrm/internal/auth"
	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	"github.com/kirvitchenko/finalProjectCrm/internal/metrics"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository/memstore"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/handler"
	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

const testAdminToken = "test_admin_token"

var testNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

type testClient struct {
	t      *testing.T
	server *httptest.Server
}

func newTestServer(t *testing.T) *testClient {
	t.Helper()

	s := memstore.New()
	tx := s.TxManager()

	userUC := usecase.NewUserUseCase(s.Users(), s.Revocations(), auth.NewTokenManager("test-secret", time.Hour))
	teamUC := usecase.NewTeamUseCase(s.Teams(), s.Users(), s.Memberships(), tx, entity.MembershipPerTeam)
	taskUC := usecase.NewTaskUseCase(s.Tasks(), s.Teams(), s.Memberships(), tx)
	commentUC := usecase.NewCommentUseCase(s.Comments(), s.Tasks(), s.Memberships())
	meetingUC := usecase.NewMeetingUseCase(s.Meetings(), s.Users(), tx, func() time.Time { return testNow })
	evaluationUC := usecase.NewEvaluationUseCase(s.Evaluations(), s.Tasks(), s.Users(), s.Memberships(), tx, entity.EvaluationPerTask)
	statsUC := usecase.NewStatisticsUseCase(s.Statistics())

	v, err := handler.NewRequestValidator()
	require.NoError(t, err)

	m := metrics.New()
	common := &handler.Common{Validator: v, Metrics: m}

	router := NewRouter(RouterConfig{
		UserHandler:       handler.NewUserHandler(common, userUC, meetingUC, evaluationUC),
		TeamHandler:       handler.NewTeamHandler(common, teamUC, taskUC),
		TaskHandler:       handler.NewTaskHandler(common, taskUC, commentUC),
		EvaluationHandler: handler.NewEvaluationHandler(common, evaluationUC),
		MeetingHandler:    handler.NewMeetingHandler(common, meetingUC),
		StatisticsHandler: handler.NewStatisticsHandler(common, statsUC),
		HealthHandler:     handler.NewHealthHandler(nil),
		Authenticator:     userUC,
		AdminToken:        testAdminToken,
		Metrics:           m,
		Logger:            zerolog.Nop(),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testClient{t: t, server: server}
}

// do выполняет запрос и декодирует JSON ответ в out, если он передан
func (c *testClient) do(method, path, token string, body, out interface{}) int {
	c.t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reqBody)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type session struct {
	ID    string
	Token string
}

// signUp регистрирует пользователя и возвращает его ID и токен
func (c *testClient) signUp(username string) session {
	c.t.Helper()

	var user struct {
		ID string `json:"id"`
	}
	status := c.do(http.MethodPost, "/users/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password",
	}, &user)
	require.Equal(c.t, http.StatusCreated, status)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	status = c.do(http.MethodPost, "/users/login", "", map[string]string{
		"username": username,
		"password": "password",
	}, &login)
	require.Equal(c.t, http.StatusOK, status)

	return session{ID: user.ID, Token: login.AccessToken}
}

func (c *testClient) createTeam(owner session, name string) string {
	c.t.Helper()

	var team struct {
		ID string `json:"id"`
	}
	status := c.do(http.MethodPost, "/teams", owner.Token, map[string]string{"name": name}, &team)
	require.Equal(c.t, http.StatusCreated, status)
	return team.ID
}

func (c *testClient) createTask(author session, teamID string, performerID string) string {
	c.t.Helper()

	var task struct {
		ID string `json:"id"`
	}
	status := c.do(http.MethodPost, "/tasks", author.Token, map[string]interface{}{
		"team_id":      teamID,
		"description":  "prepare the report",
		"performer_id": performerID,
	}, &task)
	require.Equal(c.t, http.StatusCreated, status)
	return task.ID
}

func TestHealthAndMetrics(t *testing.T) {
	c := newTestServer(t)

	var health map[string]interface{}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := c.server.Client().Get(c.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "crm_http_requests_total")
}

func TestAuthentication(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")

	var errResp errorBody
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/teams", "", nil, &errResp))
	assert.Equal(t, "UNAUTHORIZED", errResp.Error.Code)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/users/register", "", map[string]string{
		"username": "alice",
		"password": "password",
	}, &errResp))
	assert.Equal(t, "USER_EXISTS", errResp.Error.Code)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/users/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	}, &errResp))
	assert.Equal(t, "INVALID_CREDENTIALS", errResp.Error.Code)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/teams", alice.Token, nil, nil))
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/users/logout", alice.Token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/teams", alice.Token, nil, nil))
}

func TestSetIsStaff_RequiresAdminToken(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	req := map[string]interface{}{"user_id": alice.ID, "is_staff": true}

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/users/setIsStaff", alice.Token, req, nil))

	var user struct {
		IsStaff bool `json:"is_staff"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/users/setIsStaff", testAdminToken, req, &user))
	assert.True(t, user.IsStaff)
}

func TestProfile_OnlyOwnAccount(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	bob := c.signUp("bob")

	var errResp errorBody
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPatch, "/users/"+bob.ID, alice.Token, map[string]string{"first_name": "Mallory"}, &errResp))
	assert.Equal(t, "FORBIDDEN", errResp.Error.Code)

	var user struct {
		FirstName string `json:"first_name"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodPatch, "/users/"+alice.ID, alice.Token, map[string]string{"first_name": "Alice"}, &user))
	assert.Equal(t, "Alice", user.FirstName)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/users/not-a-uuid", alice.Token, nil, &errResp))
	assert.Contains(t, errResp.Error.Fields, "userID")
}

func TestTeamMembership(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	bob := c.signUp("bob")
	teamID := c.createTeam(alice, "backend")

	var membership struct {
		Role string `json:"role"`
	}
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/teams/"+teamID+"/members", alice.Token,
		map[string]string{"user_id": bob.ID}, &membership))
	assert.Equal(t, "user", membership.Role)

	var errResp errorBody
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/teams/"+teamID+"/members", alice.Token,
		map[string]string{"user_id": bob.ID}, &errResp))
	assert.Equal(t, "DUPLICATE_MEMBERSHIP", errResp.Error.Code)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/teams/"+teamID+"/members", alice.Token,
		map[string]string{"user_id": bob.ID, "role": "owner"}, &errResp))
	assert.Equal(t, "INVALID_INPUT", errResp.Error.Code)
	assert.Contains(t, errResp.Error.Fields, "role")

	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPatch, "/teams/"+teamID+"/members/"+alice.ID, bob.Token,
		map[string]string{"role": "user"}, &errResp))

	assert.Equal(t, http.StatusConflict, c.do(http.MethodDelete, "/teams/"+teamID+"/members/"+alice.ID, alice.Token, nil, &errResp))
	assert.Equal(t, "PROTECTED_CREATOR", errResp.Error.Code)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/teams/"+teamID+"/members/"+bob.ID, bob.Token, nil, nil))

	var team struct {
		Members []struct {
			UserID string `json:"user_id"`
		} `json:"members"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/teams/"+teamID, alice.Token, nil, &team))
	assert.Len(t, team.Members, 1)
}

func TestTeamRoles_OnlyAdminGrantsElevatedRoles(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	bob := c.signUp("bob")
	carol := c.signUp("carol")
	dave := c.signUp("dave")
	teamID := c.createTeam(alice, "backend")
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/teams/"+teamID+"/members", alice.Token,
		map[string]string{"user_id": bob.ID}, nil))
	taskID := c.createTask(alice, teamID, bob.ID)

	// Рядовой участник не может выдать роль admin
	var errResp errorBody
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/teams/"+teamID+"/members", bob.Token,
		map[string]string{"user_id": carol.ID, "role": "admin"}, &errResp))
	assert.Equal(t, "FORBIDDEN", errResp.Error.Code)
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/teams/"+teamID+"/members", bob.Token,
		map[string]string{"user_id": carol.ID, "role": "manager"}, nil))

	// но может добавить обычного участника
	var membership struct {
		Role string `json:"role"`
	}
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/teams/"+teamID+"/members", bob.Token,
		map[string]string{"user_id": carol.ID}, &membership))
	assert.Equal(t, "user", membership.Role)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPut, "/tasks/"+taskID+"/evaluation", carol.Token,
		map[string]interface{}{"evaluation": 5}, &errResp))
	assert.Equal(t, "UNAUTHORIZED", errResp.Error.Code)

	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/teams/"+teamID+"/members", alice.Token,
		map[string]string{"user_id": dave.ID, "role": "manager"}, &membership))
	assert.Equal(t, "manager", membership.Role)

	// Менеджер не может повысить себя
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPatch, "/teams/"+teamID+"/members/"+dave.ID, dave.Token,
		map[string]string{"role": "admin"}, &errResp))
	assert.Equal(t, "FORBIDDEN", errResp.Error.Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPut, "/tasks/"+taskID+"/evaluation", dave.Token,
		map[string]interface{}{"evaluation": 5}, nil))

	assert.Equal(t, http.StatusOK, c.do(http.MethodPatch, "/teams/"+teamID+"/members/"+dave.ID, alice.Token,
		map[string]string{"role": "admin"}, &membership))
	assert.Equal(t, "admin", membership.Role)
	assert.Equal(t, http.StatusOK, c.do(http.MethodPut, "/tasks/"+taskID+"/evaluation", dave.Token,
		map[string]interface{}{"evaluation": 5}, nil))
}

func TestDeleteTeam_WithTasks(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	teamID := c.createTeam(alice, "backend")
	taskID := c.createTask(alice, teamID, alice.ID)

	var errResp errorBody
	assert.Equal(t, http.StatusConflict, c.do(http.MethodDelete, "/teams/"+teamID, alice.Token, nil, &errResp))
	assert.Equal(t, "TEAM_HAS_TASKS", errResp.Error.Code)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/tasks/"+taskID, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/teams/"+teamID, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/teams/"+teamID, alice.Token, nil, nil))
}

func TestTasksAndComments(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	teamID := c.createTeam(alice, "backend")
	taskID := c.createTask(alice, teamID, alice.ID)

	var task struct {
		Status string `json:"status"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodPatch, "/tasks/"+taskID, alice.Token,
		map[string]string{"status": "done"}, &task))
	assert.Equal(t, "done", task.Status)

	var errResp errorBody
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPatch, "/tasks/"+taskID, alice.Token,
		map[string]string{"status": "archived"}, &errResp))
	assert.Contains(t, errResp.Error.Fields, "status")

	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/tasks/"+taskID+"/comments", alice.Token,
		map[string]string{"text": "looks good"}, nil))

	var comments []struct {
		Text string `json:"text"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/tasks/"+taskID+"/comments", alice.Token, nil, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "looks good", comments[0].Text)

	var tasks []struct {
		ID string `json:"id"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/teams/"+teamID+"/tasks?status=done", alice.Token, nil, &tasks))
	assert.Len(t, tasks, 1)
}

func TestMeetingOverlap(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")

	var meeting struct {
		ID           string   `json:"id"`
		Participants []string `json:"participants"`
	}
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/meetings", alice.Token, map[string]interface{}{
		"start_datetime": "2030-01-02T10:00:00Z",
		"end_datetime":   "2030-01-02T11:00:00Z",
		"participants":   []string{alice.ID},
	}, &meeting))
	assert.Equal(t, []string{alice.ID}, meeting.Participants)

	var errResp errorBody
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/meetings", alice.Token, map[string]interface{}{
		"start_datetime": "2030-01-02T10:30:00Z",
		"end_datetime":   "2030-01-02T11:30:00Z",
		"participants":   []string{alice.ID},
	}, &errResp))
	assert.Equal(t, "OVERLAPPING_MEETING", errResp.Error.Code)

	// Касание границ не считается пересечением
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/meetings", alice.Token, map[string]interface{}{
		"start_datetime": "2030-01-02T11:00:00Z",
		"end_datetime":   "2030-01-02T12:00:00Z",
		"participants":   []string{alice.ID},
	}, nil))

	assert.Equal(t, http.StatusUnprocessableEntity, c.do(http.MethodPost, "/meetings", alice.Token, map[string]interface{}{
		"start_datetime": "2030-01-02T12:00:00Z",
		"end_datetime":   "2030-01-02T12:00:00Z",
	}, &errResp))
	assert.Equal(t, "INVALID_INTERVAL", errResp.Error.Code)
	assert.Contains(t, errResp.Error.Fields, "end_datetime")

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/meetings/"+meeting.ID+"/participants", alice.Token,
		map[string]string{"user_id": alice.ID}, &errResp))
	assert.Equal(t, "ALREADY_PARTICIPANT", errResp.Error.Code)

	var meetings []struct {
		ID string `json:"id"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/"+alice.ID+"/meetings", alice.Token, nil, &meetings))
	assert.Len(t, meetings, 2)
}

func TestMeetings_AnyUserMayReschedule(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	bob := c.signUp("bob")

	var meeting struct {
		ID    string `json:"id"`
		Start string `json:"start_datetime"`
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/meetings", alice.Token, map[string]interface{}{
		"start_datetime": "2030-01-02T10:00:00Z",
		"end_datetime":   "2030-01-02T11:00:00Z",
		"participants":   []string{alice.ID},
	}, &meeting))

	assert.Equal(t, http.StatusOK, c.do(http.MethodPatch, "/meetings/"+meeting.ID, bob.Token, map[string]interface{}{
		"start_datetime": "2030-01-02T14:00:00Z",
		"end_datetime":   "2030-01-02T15:00:00Z",
	}, &meeting))
	assert.Equal(t, "2030-01-02T14:00:00Z", meeting.Start)

	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/meetings/"+meeting.ID+"/participants", bob.Token,
		map[string]string{"user_id": bob.ID}, nil))
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/meetings/"+meeting.ID, bob.Token, nil, nil))
}

func TestEvaluation(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	bob := c.signUp("bob")
	teamID := c.createTeam(alice, "backend")
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/teams/"+teamID+"/members", alice.Token,
		map[string]string{"user_id": bob.ID}, nil))
	taskID := c.createTask(alice, teamID, bob.ID)

	var errResp errorBody
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPut, "/tasks/"+taskID+"/evaluation", bob.Token,
		map[string]interface{}{"evaluation": 5}, &errResp))
	assert.Equal(t, "UNAUTHORIZED", errResp.Error.Code)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPut, "/tasks/"+taskID+"/evaluation", alice.Token,
		map[string]interface{}{"evaluation": 6}, &errResp))
	assert.Contains(t, errResp.Error.Fields, "evaluation")

	var evaluation struct {
		ID         string `json:"id"`
		Evaluation *int   `json:"evaluation"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodPut, "/tasks/"+taskID+"/evaluation", alice.Token,
		map[string]interface{}{"evaluation": 4}, &evaluation))
	require.NotNil(t, evaluation.Evaluation)
	assert.Equal(t, 4, *evaluation.Evaluation)
	firstID := evaluation.ID

	assert.Equal(t, http.StatusOK, c.do(http.MethodPut, "/tasks/"+taskID+"/evaluation", alice.Token,
		map[string]interface{}{"evaluation": nil}, &evaluation))
	assert.Nil(t, evaluation.Evaluation)
	assert.Equal(t, firstID, evaluation.ID)

	var evaluations []struct {
		TaskID string `json:"task_id"`
	}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/"+bob.ID+"/evaluations", alice.Token, nil, &evaluations))
	assert.Len(t, evaluations, 1)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/tasks/"+taskID+"/evaluation", alice.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/tasks/"+taskID+"/evaluation", alice.Token, nil, nil))
}

func TestStatisticsEndpoint(t *testing.T) {
	c := newTestServer(t)
	alice := c.signUp("alice")
	teamID := c.createTeam(alice, "backend")
	c.createTask(alice, teamID, alice.ID)

	var stats entity.Statistics
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/statistics", alice.Token, nil, &stats))
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.TasksByStatus["open"])
}
