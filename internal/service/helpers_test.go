package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"todo-planner/internal/cache"
	"todo-planner/internal/engine"
	"todo-planner/internal/model"
	"todo-planner/internal/reminder"
	"todo-planner/internal/repository"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB("file:"+name+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewStore(db)
}

func newTestUser(t *testing.T, store *repository.Store, telegramID int64) model.User {
	t.Helper()
	user, err := store.Users.UpsertFromTelegram(context.Background(), telegramID, "Ada", "", "ada")
	require.NoError(t, err)
	return *user
}

func newTestSchedule(t *testing.T, todos TodoSource, completions CompletionSource) *ScheduleService {
	t.Helper()
	s := NewScheduleService(todos, completions, engine.New(time.UTC), cache.Config{TTL: time.Hour, MaxEntries: 100, CleanupInterval: time.Hour}, nil)
	s.now = func() time.Time { return testNow }
	t.Cleanup(s.Close)
	return s
}

func createTodo(t *testing.T, store *repository.Store, todo model.Todo) model.Todo {
	t.Helper()
	require.NoError(t, store.CreateTodo(context.Background(), &todo))
	return todo
}

// completionsFunc wraps a CompletionSource and intercepts upserts.
type completionsFunc struct {
	CompletionSource
	upsert func(ctx context.Context, rec model.CompletionRecord) (model.CompletionRecord, error)
}

func (c completionsFunc) UpsertCompletion(ctx context.Context, rec model.CompletionRecord) (model.CompletionRecord, error) {
	return c.upsert(ctx, rec)
}

type sentReminder struct {
	userID uint
	todoID string
	kind   reminder.Kind
}

type fakeNotifier struct {
	mu        sync.Mutex
	reminders []sentReminder
	digests   map[uint]string
	err       error
}

func (n *fakeNotifier) NotifyReminder(_ context.Context, user model.User, todo model.Todo, due reminder.Due) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, sentReminder{userID: user.ID, todoID: todo.ID, kind: due.Kind})
	return n.err
}

func (n *fakeNotifier) SendDigest(_ context.Context, user model.User, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.digests == nil {
		n.digests = make(map[uint]string)
	}
	n.digests[user.ID] = text
	return n.err
}
