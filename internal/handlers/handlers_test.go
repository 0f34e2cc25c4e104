package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/types"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apperr.Envelope {
	t.Helper()
	var envelope apperr.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func validationDetails(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Details()
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		message    string
		wwwAuth    string
		hasDetails bool
	}{
		{
			name:    "not found",
			err:     apperr.NotFound("Task not found"),
			status:  http.StatusNotFound,
			code:    apperr.CodeHTTP,
			message: "Task not found",
		},
		{
			name:    "unauthorized",
			err:     apperr.Unauthorized("Invalid authentication"),
			status:  http.StatusUnauthorized,
			code:    apperr.CodeHTTP,
			message: "Invalid authentication",
			wwwAuth: "Bearer",
		},
		{
			name:       "validation",
			err:        apperr.Invalid(apperr.LocBody, "Field required", "title"),
			status:     http.StatusUnprocessableEntity,
			code:       apperr.CodeValidation,
			message:    "Invalid request data",
			hasDetails: true,
		},
		{
			name:    "internal",
			err:     errors.New("pq: connection refused"),
			status:  http.StatusInternalServerError,
			code:    apperr.CodeInternal,
			message: "An unexpected error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks/abc", nil)
			rec := httptest.NewRecorder()

			writeError(rec, req, logging.Discard(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wwwAuth, rec.Header().Get("WWW-Authenticate"))

			envelope := decodeEnvelope(t, rec)
			assert.Equal(t, tt.code, envelope.Error.Code)
			assert.Equal(t, tt.message, envelope.Error.Message)
			assert.Equal(t, "/tasks/abc", envelope.Path)
			assert.False(t, envelope.Timestamp.IsZero())
			assert.Equal(t, tt.hasDetails, envelope.Error.Details != nil)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "empty", body: "", field: "body"},
		{name: "malformed", body: `{"title":`, field: "body"},
		{name: "syntax", body: `{title}`, field: "body"},
		{name: "not an object", body: `["a"]`, field: "body"},
		{name: "wrong type", body: `{"title": 12}`, field: "title"},
		{name: "bad date", body: `{"title": "x", "dueDate": "tomorrow"}`, field: "dueDate"},
		{name: "numeric date", body: `{"title": "x", "dueDate": 1714550400}`, field: "dueDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tasks/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var dst types.TaskCreate
			err := decodeJSON(rec, req, &dst)
			assert.Contains(t, validationDetails(t, err), tt.field)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/tasks/", strings.NewReader(`{"title":"ok","description":null}`))
	var dst types.TaskCreate
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "ok", dst.Title)
	assert.Nil(t, dst.Description)
}

func TestDecodeJSON_DueDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "rfc3339", raw: "2026-05-01T10:00:00Z", want: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "offset", raw: "2026-05-01T12:00:00+02:00", want: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "naive", raw: "2026-05-01T10:00:00", want: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "naive fraction", raw: "2026-05-01T10:00:00.250", want: time.Date(2026, 5, 1, 10, 0, 0, 250_000_000, time.UTC)},
		{name: "date only", raw: "2026-05-01", want: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"title": "x", "dueDate": "` + tt.raw + `"}`
			req := httptest.NewRequest(http.MethodPost, "/tasks/", strings.NewReader(body))
			var dst types.TaskCreate
			require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
			require.NotNil(t, dst.DueDate)
			assert.True(t, tt.want.Equal(dst.DueDate.Time), dst.DueDate.Time)

			req = httptest.NewRequest(http.MethodPut, "/tasks/1", strings.NewReader(`{"dueDate": "`+tt.raw+`"}`))
			var patch types.TaskPatch
			require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &patch))
			require.True(t, patch.DueDate.Valid)
			assert.True(t, tt.want.Equal(patch.DueDate.Value.Time))
		})
	}
}

func TestDecodeJSON_TaskPatchBadDueDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/tasks/1", strings.NewReader(`{"dueDate": "next week"}`))
	var patch types.TaskPatch
	err := decodeJSON(httptest.NewRecorder(), req, &patch)

	details := validationDetails(t, err)
	require.Contains(t, details, "dueDate")
	assert.Equal(t, []string{"Input should be a valid datetime"}, details["dueDate"])
	assert.NotContains(t, details, "body")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"body", "dueDate"}, verr.Issues[0].Loc)
}

func TestDecodeJSON_TaskPatchNulls(t *testing.T) {
	body := `{"title": null, "description": null, "categoryId": "3f1b7f0e-8f43-4a61-9a4c-1d2e3f405162"}`
	req := httptest.NewRequest(http.MethodPut, "/tasks/1", strings.NewReader(body))

	var patch types.TaskPatch
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &patch))
	assert.Nil(t, patch.Title)
	assert.True(t, patch.Description.Set)
	assert.False(t, patch.Description.Valid)
	assert.False(t, patch.DueDate.Set)
	assert.True(t, patch.CategoryID.Valid)
}

func TestParseTaskQuery(t *testing.T) {
	q, err := parseTaskQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, types.TaskQuery{Limit: 20}, q)

	q, err = parseTaskQuery(url.Values{
		"status":   {"completed"},
		"priority": {"high"},
		"limit":    {"5"},
		"offset":   {"10"},
	})
	require.NoError(t, err)
	require.NotNil(t, q.Status)
	require.NotNil(t, q.Priority)
	assert.Equal(t, types.TaskStatusCompleted, *q.Status)
	assert.Equal(t, types.TaskPriorityHigh, *q.Priority)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 10, q.Offset)

	_, err = parseTaskQuery(url.Values{"limit": {"ten"}, "offset": {"x"}})
	details := validationDetails(t, err)
	assert.Equal(t, []string{msgInvalidInteger}, details["limit"])
	assert.Equal(t, []string{msgInvalidInteger}, details["offset"])
}

func TestParseLogin(t *testing.T) {
	form := url.Values{"username": {"alice@example.com"}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	login, err := parseLogin(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, types.LoginRequest{Username: "alice@example.com", Password: "password123"}, login)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"bob@example.com","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	login, err = parseLogin(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, types.LoginRequest{Username: "bob@example.com", Password: "secret123"}, login)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc.def", token: "abc.def", ok: true},
		{header: "bearer   abc.def ", token: "abc.def", ok: true},
		{header: "", ok: false},
		{header: "Basic dXNlcjpwYXNz", ok: false},
		{header: "Bearer ", ok: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/tasks/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		token, err := bearerToken(req)
		if !tt.ok {
			assert.Error(t, err, tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.token, token)
	}
}

func TestRecoverer(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Recoverer(logging.Discard()))
	router.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, apperr.CodeInternal, envelope.Error.Code)
	assert.Equal(t, "/boom", envelope.Path)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	router := chi.NewRouter()
	router.NotFound(NotFound)
	router.MethodNotAllowed(MethodNotAllowed)
	router.Get("/categories/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nope", decodeEnvelope(t, rec).Path)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/categories/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, apperr.CodeHTTP, decodeEnvelope(t, rec).Error.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(pingFunc(func(context.Context) error { return nil }), logging.Discard()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Healthz(pingFunc(func(context.Context) error { return errors.New("down") }), logging.Discard()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Database unavailable", decodeEnvelope(t, rec).Error.Message)
}

func TestUserIDFromContext(t *testing.T) {
	_, err := userIDFromContext(context.Background())
	assert.Error(t, err)

	id, err := userIDFromContext(withUserID(context.Background(), "user-1"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}
