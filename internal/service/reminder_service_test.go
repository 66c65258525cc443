package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
	"todo-planner/internal/reminder"
)

func TestReminderService_CheckReminders(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ada := newTestUser(t, store, 1)
	bob := newTestUser(t, store, 2)
	schedule := newTestSchedule(t, store, store)
	notifier := &fakeNotifier{}
	svc := NewReminderService(store, store, schedule, notifier, nil)

	at := time.Date(2025, 6, 16, 10, 30, 0, 0, time.UTC)
	explicit := createTodo(t, store, model.Todo{UserID: ada.ID, Text: "call mom", ReminderAt: ptr(at.Add(-5 * time.Minute))})
	recurring := createTodo(t, store, model.Todo{UserID: bob.ID, Text: "pills", Recurrence: &model.RecurrencePattern{Type: model.RecurDaily, NotifyAt: "10:30"}})
	createTodo(t, store, model.Todo{UserID: ada.ID, Text: "later", ReminderAt: ptr(at.Add(72 * time.Hour))})
	createTodo(t, store, model.Todo{UserID: bob.ID, Text: "done", Completed: true, CompletedAt: ptr(at), ReminderAt: ptr(at.Add(-time.Minute))})

	sent, err := svc.CheckReminders(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []sentReminder{
		{userID: ada.ID, todoID: explicit.ID, kind: reminder.KindExplicit},
		{userID: bob.ID, todoID: recurring.ID, kind: reminder.KindRecurring},
	}, notifier.reminders)

	cleared, err := store.FindTodo(ctx, ada.ID, explicit.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.ReminderAt, "explicit reminders are one-shot")

	// Still inside the tolerance window, but this instant already fired.
	sent, err = svc.CheckReminders(ctx, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, sent)

	// Next day fires again.
	sent, err = svc.CheckReminders(ctx, at.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestReminderService_CheckRemindersDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := newTestUser(t, store, 1)
	schedule := newTestSchedule(t, store, store)
	notifier := &fakeNotifier{err: errors.New("chat not found")}
	svc := NewReminderService(store, store, schedule, notifier, nil)

	at := time.Date(2025, 6, 16, 10, 30, 0, 0, time.UTC)
	todo := createTodo(t, store, model.Todo{UserID: user.ID, Text: "call", ReminderAt: ptr(at)})

	sent, err := svc.CheckReminders(ctx, at)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, notifier.reminders, 1)

	found, err := store.FindTodo(ctx, user.ID, todo.ID)
	require.NoError(t, err)
	assert.Nil(t, found.ReminderAt, "failed one-shot reminders are not retried")
}

func TestReminderService_NoNotifier(t *testing.T) {
	store := newTestStore(t)
	schedule := newTestSchedule(t, store, store)
	svc := NewReminderService(store, store, schedule, nil, nil)

	sent, err := svc.CheckReminders(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.NoError(t, svc.SendDigests(context.Background(), testNow))
}

func TestReminderService_DueReminders(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := newTestUser(t, store, 1)
	schedule := newTestSchedule(t, store, store)
	svc := NewReminderService(store, store, schedule, nil, nil)

	at := time.Date(2025, 6, 16, 10, 30, 20, 0, time.UTC)
	todo := createTodo(t, store, model.Todo{UserID: user.ID, Text: "stand up", Recurrence: &model.RecurrencePattern{Type: model.RecurDaily, NotifyAt: "10:30"}})

	due, err := svc.DueReminders(ctx, user.ID, at)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, todo.ID, due[0].TodoID)
	assert.Equal(t, reminder.KindRecurring, due[0].Kind)

	due, err = svc.DueReminders(ctx, user.ID, at.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestReminderService_DailyDigest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := newTestUser(t, store, 1)
	schedule := newTestSchedule(t, store, store)
	notifier := &fakeNotifier{}
	svc := NewReminderService(store, store, schedule, notifier, nil)

	createTodo(t, store, model.Todo{UserID: user.ID, Text: "stretch <daily>", DueDate: ptr(day(6, 9)), Recurrence: &model.RecurrencePattern{Type: model.RecurDaily}})
	createTodo(t, store, model.Todo{UserID: user.ID, Text: "pay rent", DueDate: ptr(day(6, 16))})
	createTodo(t, store, model.Todo{UserID: user.ID, Text: "renew passport", DueDate: ptr(day(6, 1))})
	createTodo(t, store, model.Todo{UserID: user.ID, Text: "archived", Completed: true, CompletedAt: ptr(day(6, 14))})

	text, err := svc.DailyDigest(ctx, user, testNow)
	require.NoError(t, err)
	assert.Contains(t, text, "15.06.2025")
	assert.Contains(t, text, "stretch &lt;daily&gt;")
	assert.Contains(t, text, "pay rent")
	assert.Contains(t, text, "просрочено")
	assert.NotContains(t, text, "archived")
	assert.Less(t, strings.Index(text, "renew passport"), strings.Index(text, "pay rent"), "earliest due date first")
	// June 9..14 missed, one regular completion on June 14.
	assert.Contains(t, text, "Выполнено: 1 · пропущено: 6 · 14%")

	require.NoError(t, svc.SendDigests(ctx, testNow))
	assert.Equal(t, text, notifier.digests[user.ID])
}
