package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todoapp/apiserver/config"
	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/internal/server"
	"github.com/todoapp/apiserver/types"
)

func startServer(t *testing.T) string {
	t.Helper()

	cfg := config.Config{
		Database: config.DatabaseConfig{
			URL:         "sqlite:///" + filepath.Join(t.TempDir(), "todo.db"),
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			SecretKey:                "e2e-secret",
			AccessTokenExpireMinutes: 30,
			RefreshTokenExpireDays:   7,
			BcryptCost:               4,
		},
	}

	srv, err := server.New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts.URL
}

type client struct {
	t       *testing.T
	baseURL string
	token   string
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *client) login(email, password string) types.TokenPair {
	c.t.Helper()

	form := url.Values{"username": {email}, "password": {password}}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, data := c.send(req)
	require.Equal(c.t, http.StatusOK, resp.StatusCode, string(data))

	var pair types.TokenPair
	require.NoError(c.t, json.Unmarshal(data, &pair))
	return pair
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func register(t *testing.T, c *client, email string) types.PublicUser {
	t.Helper()
	resp, data := c.do(http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decode[types.PublicUser](t, data)
}

func TestTaskLifecycle(t *testing.T) {
	baseURL := startServer(t)
	anon := &client{t: t, baseURL: baseURL}
	email := fmt.Sprintf("alice_%d@example.com", time.Now().UnixNano())

	user := register(t, anon, email)
	assert.Equal(t, email, user.Email)
	assert.NotEmpty(t, user.ID)

	resp, data := anon.do(http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already registered", decode[apperr.Envelope](t, data).Error.Message)

	pair := anon.login(email, "password123")
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(30*60), pair.ExpiresIn)
	alice := &client{t: t, baseURL: baseURL, token: pair.AccessToken}

	resp, data = alice.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, user.ID, decode[types.PublicUser](t, data).ID)

	resp, data = alice.do(http.MethodPost, "/tasks/", map[string]any{
		"title":    "Buy milk",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	task := decode[types.Task](t, data)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, types.TaskStatusPending, task.Status)
	assert.Equal(t, types.TaskPriorityHigh, task.Priority)
	assert.Nil(t, task.UpdatedAt)
	taskPath := "/tasks/" + task.ID

	resp, data = alice.do(http.MethodGet, "/tasks/?priority=high", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	list := decode[types.TaskList](t, data)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, types.Pagination{Total: 1, Limit: 20, Offset: 0}, list.Pagination)

	resp, data = alice.do(http.MethodPut, taskPath, map[string]any{
		"title":       "Buy oat milk",
		"description": "two cartons",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	task = decode[types.Task](t, data)
	assert.Equal(t, "Buy oat milk", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "two cartons", *task.Description)
	assert.NotNil(t, task.UpdatedAt)

	resp, data = alice.do(http.MethodPatch, taskPath+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, types.TaskStatusCompleted, decode[types.Task](t, data).Status)

	// Another user cannot see the task.
	bobEmail := fmt.Sprintf("bob_%d@example.com", time.Now().UnixNano())
	register(t, anon, bobEmail)
	bob := &client{t: t, baseURL: baseURL, token: anon.login(bobEmail, "password123").AccessToken}
	resp, _ = bob.do(http.MethodGet, taskPath, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = alice.do(http.MethodDelete, taskPath, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = alice.do(http.MethodGet, taskPath, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	envelope := decode[apperr.Envelope](t, data)
	assert.Equal(t, apperr.CodeHTTP, envelope.Error.Code)
	assert.Equal(t, "Task not found", envelope.Error.Message)
	assert.Equal(t, taskPath, envelope.Path)
}

func TestRefreshFlow(t *testing.T) {
	baseURL := startServer(t)
	anon := &client{t: t, baseURL: baseURL}
	email := fmt.Sprintf("carol_%d@example.com", time.Now().UnixNano())
	register(t, anon, email)
	pair := anon.login(email, "password123")

	resp, data := anon.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.NotEmpty(t, decode[types.TokenPair](t, data).AccessToken)

	resp, data = anon.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": pair.AccessToken})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid refresh token", decode[apperr.Envelope](t, data).Error.Message)
}

func TestUnauthenticated(t *testing.T) {
	baseURL := startServer(t)
	anon := &client{t: t, baseURL: baseURL}

	resp, data := anon.do(http.MethodGet, "/tasks/", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, "Not authenticated", decode[apperr.Envelope](t, data).Error.Message)

	bad := &client{t: t, baseURL: baseURL, token: "not-a-jwt"}
	resp, data = bad.do(http.MethodGet, "/tasks/", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid authentication", decode[apperr.Envelope](t, data).Error.Message)

	resp, _ = anon.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidationEnvelope(t *testing.T) {
	baseURL := startServer(t)
	anon := &client{t: t, baseURL: baseURL}
	email := fmt.Sprintf("dave_%d@example.com", time.Now().UnixNano())
	register(t, anon, email)
	c := &client{t: t, baseURL: baseURL, token: anon.login(email, "password123").AccessToken}

	resp, data := c.do(http.MethodPost, "/tasks/", map[string]any{"title": "", "priority": "urgent"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	envelope := decode[apperr.Envelope](t, data)
	assert.Equal(t, apperr.CodeValidation, envelope.Error.Code)
	assert.Contains(t, envelope.Error.Details, "title")
	assert.Contains(t, envelope.Error.Details, "priority")

	resp, _ = c.do(http.MethodGet, "/tasks/?limit=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLongPassword(t *testing.T) {
	baseURL := startServer(t)
	anon := &client{t: t, baseURL: baseURL}
	email := fmt.Sprintf("frank_%d@example.com", time.Now().UnixNano())
	password := strings.Repeat("x", 80)

	resp, data := anon.do(http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	pair := anon.login(email, password)
	assert.NotEmpty(t, pair.AccessToken)

	resp, data = anon.do(http.MethodPost, "/auth/register", map[string]string{
		"email":    "other_" + email,
		"password": strings.Repeat("x", 101),
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(data))
	assert.Contains(t, decode[apperr.Envelope](t, data).Error.Details, "password")
}

func TestDueDates(t *testing.T) {
	baseURL := startServer(t)
	anon := &client{t: t, baseURL: baseURL}
	email := fmt.Sprintf("gina_%d@example.com", time.Now().UnixNano())
	register(t, anon, email)
	c := &client{t: t, baseURL: baseURL, token: anon.login(email, "password123").AccessToken}

	resp, data := c.do(http.MethodPost, "/tasks/", map[string]any{"title": "Plan", "dueDate": "2026-05-01T10:00:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	task := decode[types.Task](t, data)
	require.NotNil(t, task.DueDate)
	assert.True(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).Equal(*task.DueDate))
	taskPath := "/tasks/" + task.ID

	resp, data = c.do(http.MethodPut, taskPath, map[string]any{"dueDate": "2026-06-01T08:30:00+02:00"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	task = decode[types.Task](t, data)
	require.NotNil(t, task.DueDate)
	assert.True(t, time.Date(2026, 6, 1, 6, 30, 0, 0, time.UTC).Equal(*task.DueDate))

	for _, req := range []struct {
		method string
		path   string
		body   map[string]any
	}{
		{method: http.MethodPost, path: "/tasks/", body: map[string]any{"title": "Plan", "dueDate": "not a date"}},
		{method: http.MethodPut, path: taskPath, body: map[string]any{"dueDate": "not a date"}},
	} {
		resp, data = c.do(req.method, req.path, req.body)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(data))
		envelope := decode[apperr.Envelope](t, data)
		assert.Equal(t, apperr.CodeValidation, envelope.Error.Code)
		assert.Contains(t, envelope.Error.Details, "dueDate", req.method)
		assert.NotContains(t, envelope.Error.Details, "body", req.method)
	}

	resp, data = c.do(http.MethodPut, taskPath, map[string]any{"dueDate": nil})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Nil(t, decode[types.Task](t, data).DueDate)
}

func TestCategories(t *testing.T) {
	baseURL := startServer(t)
	anon := &client{t: t, baseURL: baseURL}

	resp, data := anon.do(http.MethodGet, "/categories/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data))

	resp, data = anon.do(http.MethodPost, "/categories/", map[string]string{"name": "Work", "color": "#FF0000"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	category := decode[types.Category](t, data)
	assert.Equal(t, "/categories/"+category.ID, resp.Header.Get("Location"))

	resp, data = anon.do(http.MethodGet, "/categories/"+category.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Work", decode[types.Category](t, data).Name)

	email := fmt.Sprintf("erin_%d@example.com", time.Now().UnixNano())
	register(t, anon, email)
	c := &client{t: t, baseURL: baseURL, token: anon.login(email, "password123").AccessToken}
	resp, data = c.do(http.MethodPost, "/tasks/", map[string]any{"title": "Report", "categoryId": category.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	task := decode[types.Task](t, data)
	require.NotNil(t, task.CategoryID)
	assert.Equal(t, category.ID, *task.CategoryID)
}
