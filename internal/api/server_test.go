package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/cache"
	"todo-planner/internal/engine"
	"todo-planner/internal/model"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
)

type testServer struct {
	*Server
	userID uint
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB("file:"+name+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	store := repository.NewStore(db)

	user, err := store.Users.UpsertFromTelegram(t.Context(), 42, "Ada", "", "ada")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	schedule := service.NewScheduleService(store, store, engine.New(time.UTC), cache.DefaultConfig, log)
	t.Cleanup(schedule.Close)
	todos := service.NewTodoService(store, schedule)
	reminders := service.NewReminderService(store, store, schedule, nil, log)

	return &testServer{Server: NewServer(todos, schedule, reminders, log), userID: user.ID}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) userPath(suffix string) string {
	return "/api/users/" + strconv.FormatUint(uint64(ts.userID), 10) + suffix
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (ts *testServer) createTodo(t *testing.T, body map[string]any) model.Todo {
	t.Helper()
	rec := ts.do(t, http.MethodPost, ts.userPath("/todos"), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Todo](t, rec)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInvalidUserID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/users/abc/todos", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodoLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, ts.userPath("/todos"), map[string]any{"folder": "Home"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, ts.userPath("/todos"), map[string]any{
		"text":             "gym",
		"recurringPattern": map[string]any{"type": "weekly", "daysOfWeek": []int{9}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	regular := ts.createTodo(t, map[string]any{"text": "pay rent", "folder": "Home", "dueDate": "2025-06-20"})
	require.NotNil(t, regular.DueDate)
	assert.Equal(t, "2025-06-20", regular.DueDate.Format(model.DayLayout))
	recurring := ts.createTodo(t, map[string]any{
		"text":             "stretch",
		"recurringPattern": map[string]any{"type": "daily"},
	})

	rec = ts.do(t, http.MethodGet, ts.userPath("/todos"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Todos []model.Todo `json:"todos"`
		Total int          `json:"total"`
	}](t, rec)
	assert.Equal(t, 2, list.Total)

	rec = ts.do(t, http.MethodPatch, ts.userPath("/todos/"+regular.ID+"/completion"), map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.Todo](t, rec).Completed)

	rec = ts.do(t, http.MethodPatch, ts.userPath("/todos/"+recurring.ID+"/completion"), map[string]any{"completed": true})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPatch, ts.userPath("/todos/"+regular.ID+"/completion"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, ts.userPath("/todos/"+regular.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, ts.userPath("/todos/"+regular.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOccurrencesAndAnalytics(t *testing.T) {
	ts := newTestServer(t)
	todo := ts.createTodo(t, map[string]any{
		"text":             "stretch",
		"dueDate":          "2025-06-01",
		"recurringPattern": map[string]any{"type": "daily"},
	})

	rec := ts.do(t, http.MethodGet, ts.userPath("/occurrences?from=2025-06-01&to=2025-06-07"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	occs := decode[struct {
		Occurrences []model.Occurrence `json:"occurrences"`
		Count       int                `json:"count"`
	}](t, rec)
	assert.Equal(t, 7, occs.Count)
	assert.Equal(t, "2025-06-07", occs.Occurrences[0].ScheduledDate)
	assert.Equal(t, model.StatusMissed, occs.Occurrences[0].Status)

	rec = ts.do(t, http.MethodPut, ts.userPath("/todos/"+todo.ID+"/occurrences/2025-06-03"), map[string]any{
		"completed": true,
		"from":      "2025-06-01",
		"to":        "2025-06-07",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[service.CompletionResult](t, rec)
	assert.Equal(t, model.StatusCompleted, result.Status)
	assert.Equal(t, "2025-06-03", result.Record.ScheduledDate)
	require.NotNil(t, result.Analytics)
	assert.Equal(t, 1, result.Analytics.TotalRecurringCompleted)
	assert.Equal(t, 6, result.Analytics.TotalRecurringMissed)
	assert.Equal(t, 14, result.Analytics.CompletionRate)

	rec = ts.do(t, http.MethodGet, ts.userPath("/analytics?from=2025-06-01&to=2025-06-07"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, *result.Analytics, decode[model.AnalyticsData](t, rec))

	rec = ts.do(t, http.MethodGet, ts.userPath("/todos/"+todo.ID+"/completions"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Completions []model.CompletionRecord `json:"completions"`
		Count       int                      `json:"count"`
	}](t, rec)
	require.Equal(t, 1, history.Count)
	assert.Equal(t, "2025-06-03", history.Completions[0].ScheduledDate)

	rec = ts.do(t, http.MethodGet, ts.userPath("/todos/missing/completions"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRangeAndCompletionErrors(t *testing.T) {
	ts := newTestServer(t)
	regular := ts.createTodo(t, map[string]any{"text": "pay rent"})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"inverted range", http.MethodGet, "/analytics?from=2025-06-07&to=2025-06-01", nil, http.StatusBadRequest},
		{"bad from", http.MethodGet, "/occurrences?from=june", nil, http.StatusBadRequest},
		{"whole calendar", http.MethodGet, "/occurrences?from=0001-01-01&to=9999-12-31", nil, http.StatusBadRequest},
		{"leap year", http.MethodGet, "/occurrences?from=2024-01-01&to=2024-12-31", nil, http.StatusOK},
		{"one day past a year", http.MethodGet, "/analytics?from=2024-01-01&to=2025-01-01", nil, http.StatusBadRequest},
		{"default range", http.MethodGet, "/analytics", nil, http.StatusOK},
		{"unknown todo", http.MethodPut, "/todos/missing/occurrences/2025-06-03", map[string]any{"completed": true}, http.StatusNotFound},
		{"regular todo", http.MethodPut, "/todos/" + regular.ID + "/occurrences/2025-06-03", map[string]any{"completed": true}, http.StatusBadRequest},
		{"bad date", http.MethodPut, "/todos/" + regular.ID + "/occurrences/03.06.2025", map[string]any{"completed": true}, http.StatusBadRequest},
		{"bad reminder instant", http.MethodGet, "/reminders?at=noon", nil, http.StatusBadRequest},
		{"reminders", http.MethodGet, "/reminders?at=2025-06-03T10:00:00Z", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, ts.userPath(tt.path), tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	ts.createTodo(t, map[string]any{
		"text":             "gym",
		"dueDate":          "2025-06-02",
		"recurringPattern": map[string]any{"type": "weekly", "daysOfWeek": []int{1}},
	})

	rec := ts.do(t, http.MethodGet, ts.userPath("/export.ics"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VTODO")
	assert.Contains(t, body, "SUMMARY:gym")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY")
}
