package e2e_tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBaseURL    = "http://app:8080"
	defaultAdminToken = "secret_admin_token_change_me"
)

// Client представляет HTTP клиент для тестов
type Client struct {
	baseURL    string
	httpClient *http.Client
	adminToken string
}

// NewClient создает новый тестовый клиент. Адрес сервиса и админский токен
// можно переопределить через E2E_BASE_URL и E2E_ADMIN_TOKEN.
func NewClient() *Client {
	return &Client{
		baseURL: envOr("E2E_BASE_URL", defaultBaseURL),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		adminToken: envOr("E2E_ADMIN_TOKEN", defaultAdminToken),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// doRequest выполняет HTTP запрос с bearer токеном, если он передан
func (c *Client) doRequest(method, path string, body interface{}, token string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// call выполняет запрос и декодирует тело ответа в map
func (c *Client) call(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := c.doRequest(method, path, body, token)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&result)
	}
	return resp.StatusCode, result
}

type account struct {
	ID    string
	Token string
}

// signUp регистрирует пользователя с уникальным именем и логинится
func (c *Client) signUp(t *testing.T, prefix string) account {
	t.Helper()

	username := fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())

	status, user := c.call(t, http.MethodPost, "/users/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password",
	}, "")
	require.Equal(t, http.StatusCreated, status)

	status, login := c.call(t, http.MethodPost, "/users/login", map[string]string{
		"username": username,
		"password": "password",
	}, "")
	require.Equal(t, http.StatusOK, status)

	return account{ID: user["id"].(string), Token: login["access_token"].(string)}
}

func errorCode(body map[string]interface{}) string {
	detail, ok := body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := detail["code"].(string)
	return code
}

// waitForService ждет, пока сервис станет доступным
func waitForService(t *testing.T) {
	client := NewClient()
	maxAttempts := 30
	for i := 0; i < maxAttempts; i++ {
		resp, err := client.httpClient.Get(client.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(1 * time.Second)
	}
	t.Fatal("Service did not become available in time")
}

// TestHealthCheck проверяет health endpoint
func TestHealthCheck(t *testing.T) {
	waitForService(t)
	client := NewClient()

	status, result := client.call(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", result["status"])
}

// TestTeamMembershipFlow проверяет создание команды и уникальность членства
func TestTeamMembershipFlow(t *testing.T) {
	waitForService(t)
	client := NewClient()

	alice := client.signUp(t, "alice")
	bob := client.signUp(t, "bob")

	status, team := client.call(t, http.MethodPost, "/teams", map[string]string{"name": "engineering"}, alice.Token)
	require.Equal(t, http.StatusCreated, status)
	teamID := team["id"].(string)
	assert.Len(t, team["members"], 1)

	// Добавляем участника
	status, _ = client.call(t, http.MethodPost, "/teams/"+teamID+"/members", map[string]string{"user_id": bob.ID}, alice.Token)
	assert.Equal(t, http.StatusCreated, status)

	// Повторное добавление отклоняется
	status, errResult := client.call(t, http.MethodPost, "/teams/"+teamID+"/members", map[string]string{"user_id": bob.ID}, alice.Token)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_MEMBERSHIP", errorCode(errResult))

	// Создателя нельзя исключить
	status, errResult = client.call(t, http.MethodDelete, "/teams/"+teamID+"/members/"+alice.ID, nil, alice.Token)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "PROTECTED_CREATOR", errorCode(errResult))

	status, team = client.call(t, http.MethodGet, "/teams/"+teamID, nil, bob.Token)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, team["members"], 2)
}

// TestMeetingOverlapFlow проверяет запрет пересекающихся встреч
func TestMeetingOverlapFlow(t *testing.T) {
	waitForService(t)
	client := NewClient()

	alice := client.signUp(t, "alice")
	day := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	slot := func(h, m int) string {
		return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute).Format(time.RFC3339)
	}

	status, meeting := client.call(t, http.MethodPost, "/meetings", map[string]interface{}{
		"start_datetime": slot(10, 0),
		"end_datetime":   slot(11, 0),
		"participants":   []string{alice.ID},
	}, alice.Token)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, meeting["id"])

	status, errResult := client.call(t, http.MethodPost, "/meetings", map[string]interface{}{
		"start_datetime": slot(10, 30),
		"end_datetime":   slot(11, 30),
		"participants":   []string{alice.ID},
	}, alice.Token)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "OVERLAPPING_MEETING", errorCode(errResult))

	// Встреча, начинающаяся в момент окончания предыдущей, разрешена
	status, _ = client.call(t, http.MethodPost, "/meetings", map[string]interface{}{
		"start_datetime": slot(11, 0),
		"end_datetime":   slot(12, 0),
		"participants":   []string{alice.ID},
	}, alice.Token)
	assert.Equal(t, http.StatusCreated, status)

	status, errResult = client.call(t, http.MethodPost, "/meetings", map[string]interface{}{
		"start_datetime": time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339),
		"end_datetime":   time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	}, alice.Token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "PAST_START", errorCode(errResult))
}

// TestEvaluationFlow проверяет запись оценки и права на нее
func TestEvaluationFlow(t *testing.T) {
	waitForService(t)
	client := NewClient()

	alice := client.signUp(t, "alice")
	bob := client.signUp(t, "bob")

	status, team := client.call(t, http.MethodPost, "/teams", map[string]string{"name": "qa"}, alice.Token)
	require.Equal(t, http.StatusCreated, status)
	teamID := team["id"].(string)

	status, _ = client.call(t, http.MethodPost, "/teams/"+teamID+"/members", map[string]string{"user_id": bob.ID}, alice.Token)
	require.Equal(t, http.StatusCreated, status)

	status, task := client.call(t, http.MethodPost, "/tasks", map[string]interface{}{
		"team_id":      teamID,
		"description":  "regression suite",
		"performer_id": bob.ID,
	}, alice.Token)
	require.Equal(t, http.StatusCreated, status)
	taskID := task["id"].(string)

	// Обычный участник не может оценивать
	status, errResult := client.call(t, http.MethodPut, "/tasks/"+taskID+"/evaluation", map[string]interface{}{"evaluation": 5}, bob.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(errResult))

	status, evaluation := client.call(t, http.MethodPut, "/tasks/"+taskID+"/evaluation", map[string]interface{}{"evaluation": 5}, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(5), evaluation["evaluation"])

	// Повторная запись обновляет ту же оценку
	status, updated := client.call(t, http.MethodPut, "/tasks/"+taskID+"/evaluation", map[string]interface{}{"evaluation": 3}, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, evaluation["id"], updated["id"])
	assert.Equal(t, float64(3), updated["evaluation"])

	// Staff может оценивать задачи любой команды
	carol := client.signUp(t, "carol")
	status, _ = client.call(t, http.MethodPost, "/users/setIsStaff", map[string]interface{}{
		"user_id":  carol.ID,
		"is_staff": true,
	}, client.adminToken)
	require.Equal(t, http.StatusOK, status)

	status, updated = client.call(t, http.MethodPut, "/tasks/"+taskID+"/evaluation", map[string]interface{}{"evaluation": nil}, carol.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, updated["evaluation"])
}

// TestSetIsStaffRequiresAdmin проверяет доступ к админскому методу
func TestSetIsStaffRequiresAdmin(t *testing.T) {
	waitForService(t)
	client := NewClient()

	alice := client.signUp(t, "alice")
	status, _ := client.call(t, http.MethodPost, "/users/setIsStaff", map[string]interface{}{
		"user_id":  alice.ID,
		"is_staff": true,
	}, alice.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
}
