package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"todo-planner/internal/metrics"
	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
	"todo-planner/internal/reminder"
)

// Notifier delivers reminders and digests to a user.
type Notifier interface {
	NotifyReminder(ctx context.Context, user model.User, todo model.Todo, due reminder.Due) error
	SendDigest(ctx context.Context, user model.User, text string) error
}

// ReminderService fires due reminders and builds daily digests.
type ReminderService struct {
	store    ReminderStore
	todos    TodoSource
	schedule *ScheduleService
	notifier Notifier
	loc      *time.Location
	log      *slog.Logger

	mu    sync.Mutex
	fired map[string]time.Time
}

func NewReminderService(store ReminderStore, todos TodoSource, schedule *ScheduleService, notifier Notifier, log *slog.Logger) *ReminderService {
	if log == nil {
		log = slog.Default()
	}
	return &ReminderService{
		store:    store,
		todos:    todos,
		schedule: schedule,
		notifier: notifier,
		loc:      schedule.Engine().Location(),
		log:      log,
		fired:    make(map[string]time.Time),
	}
}

// SetNotifier replaces the notifier; the bot registers itself once it is up.
func (s *ReminderService) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// DueReminders evaluates the user's reminders at now without delivering them.
func (s *ReminderService) DueReminders(ctx context.Context, userID uint, now time.Time) ([]reminder.Due, error) {
	todos, err := s.store.ListReminderTodos(ctx, userID)
	if err != nil {
		return nil, err
	}
	var due []reminder.Due
	for _, todo := range todos {
		if d, ok := reminder.Evaluate(todo, now, s.loc); ok {
			due = append(due, d)
		}
	}
	return due, nil
}

// CheckReminders delivers every reminder due at now and returns how many
// were sent. Explicit reminders are cleared after the attempt; a recurring
// reminder fires at most once per scheduled instant.
func (s *ReminderService) CheckReminders(ctx context.Context, now time.Time) (int, error) {
	notifier := s.currentNotifier()
	if notifier == nil {
		return 0, nil
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}
		todos, err := s.store.ListReminderTodos(ctx, user.ID)
		if err != nil {
			s.log.Error("list reminder todos", "user_id", user.ID, "error", err)
			continue
		}
		for _, todo := range todos {
			due, ok := reminder.Evaluate(todo, now, s.loc)
			if !ok || !s.markFired(due, now) {
				continue
			}
			err := notifier.NotifyReminder(ctx, user, todo, due)
			metrics.RecordReminder(string(due.Kind), err == nil)
			if err != nil {
				s.log.Error("send reminder", "user_id", user.ID, "todo_id", todo.ID, "kind", due.Kind, "error", err)
			} else {
				sent++
				s.log.Info("reminder sent", "user_id", user.ID, "todo_id", todo.ID, "kind", due.Kind)
			}
			if due.Kind == reminder.KindExplicit {
				if err := s.store.ClearReminder(ctx, user.ID, todo.ID); err != nil {
					s.log.Error("clear reminder", "user_id", user.ID, "todo_id", todo.ID, "error", err)
				}
			}
		}
	}
	return sent, nil
}

func (s *ReminderService) currentNotifier() Notifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifier
}

// markFired records due and reports whether it is new. Entries older than
// twice the tolerance can no longer be due and are pruned.
func (s *ReminderService) markFired(due reminder.Due, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, at := range s.fired {
		if now.Sub(at) > 2*reminder.Tolerance {
			delete(s.fired, key)
		}
	}
	if due.Kind != reminder.KindRecurring {
		return true
	}
	key := due.TodoID + "@" + due.At.UTC().Format(time.RFC3339)
	if _, ok := s.fired[key]; ok {
		return false
	}
	s.fired[key] = due.At
	return true
}

// SendDigests sends the daily digest to every user.
func (s *ReminderService) SendDigests(ctx context.Context, now time.Time) error {
	notifier := s.currentNotifier()
	if notifier == nil {
		return nil
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := s.DailyDigest(ctx, user, now)
		if err != nil {
			s.log.Error("build digest", "user_id", user.ID, "error", err)
			continue
		}
		if err := notifier.SendDigest(ctx, user, text); err != nil {
			s.log.Error("send digest", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

// DailyDigest builds a human-readable summary: today's recurring
// occurrences, open todos and the last week's statistics.
func (s *ReminderService) DailyDigest(ctx context.Context, user model.User, now time.Time) (string, error) {
	today := recurrence.DayOf(now, s.loc)
	occs, err := s.schedule.Occurrences(ctx, user.ID, DateRange{Start: today, End: today})
	if err != nil {
		return "", err
	}
	week, err := s.schedule.Analytics(ctx, user.ID, DateRange{Start: recurrence.AddDays(today, -6, s.loc), End: today})
	if err != nil {
		return "", err
	}
	todos, err := s.todos.ListTodos(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var open []model.Todo
	for _, todo := range todos {
		if !todo.IsRecurring() && !todo.Completed {
			open = append(open, todo)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		switch {
		case open[i].DueDate == nil && open[j].DueDate == nil:
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		case open[i].DueDate == nil:
			return false
		case open[j].DueDate == nil:
			return true
		default:
			return open[i].DueDate.Before(*open[j].DueDate)
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.In(s.loc).Format("02.01.2006")))

	builder.WriteString("♻️ <b>Сегодня по расписанию</b>\n")
	if len(occs) == 0 {
		builder.WriteString("— ничего не запланировано\n")
	} else {
		for _, occ := range occs {
			builder.WriteString(formatOccurrence(occ))
		}
	}

	builder.WriteString("\n🔥 <b>Открытые задачи</b>\n")
	if len(open) == 0 {
		builder.WriteString("— нет открытых задач\n")
	} else {
		for _, todo := range open {
			builder.WriteString(formatTodo(todo, now, s.loc))
		}
	}

	builder.WriteString("\n📈 <b>За неделю</b>\n")
	builder.WriteString(fmt.Sprintf("Выполнено: %d · пропущено: %d · %d%%\n",
		week.TotalRegularCompleted+week.TotalRecurringCompleted, week.TotalRecurringMissed, week.CompletionRate))
	builder.WriteString(fmt.Sprintf("Серия: %d дн.\n", week.CurrentStreak))

	return strings.TrimSpace(builder.String()), nil
}

func formatOccurrence(occ model.Occurrence) string {
	icon := "⬜"
	if occ.Status == model.StatusCompleted {
		icon = "✅"
	}
	return fmt.Sprintf("%s %s\n", icon, html.EscapeString(strings.TrimSpace(occ.TodoText)))
}

func formatTodo(todo model.Todo, now time.Time, loc *time.Location) string {
	var sb strings.Builder

	icon := "🟢"
	if todo.DueDate != nil {
		d := todo.DueDate.In(loc)
		switch {
		case now.After(d):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(todo.Text))))

	if todo.DueDate != nil {
		d := todo.DueDate.In(loc)
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ до %s, <b>просрочено</b>", d.Format(model.DayLayout)))
		} else {
			daysLeft := recurrence.DaysBetween(recurrence.DayOf(now, loc), recurrence.DayOf(d, loc))
			sb.WriteString(fmt.Sprintf("\n   ⏰ до %s · осталось %d дн.", d.Format(model.DayLayout), daysLeft))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}
