package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"todo-planner/internal/cache"
	"todo-planner/internal/engine"
	"todo-planner/internal/metrics"
	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

// MaxRangeDays is the longest range one occurrence or analytics request may
// span.
const MaxRangeDays = 366

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days counts the calendar days in r as seen in loc.
func (r DateRange) Days(loc *time.Location) int {
	return recurrence.DaysBetween(r.Start.In(loc), r.End.In(loc)) + 1
}

func (s *ScheduleService) checkRange(r DateRange) error {
	days := r.Days(s.engine.Location())
	switch {
	case days < 1:
		return fmt.Errorf("%w: range ends before it starts", ErrInvalidInput)
	case days > MaxRangeDays:
		return fmt.Errorf("%w: range spans %d days, at most %d allowed", ErrInvalidInput, days, MaxRangeDays)
	}
	return nil
}

// CompletionUpdate marks one occurrence of a recurring todo done or undone.
// When Range is set the cached analytics for it are patched optimistically.
type CompletionUpdate struct {
	UserID    uint
	TodoID    string
	Date      string
	Completed bool
	Range     *DateRange
}

// CompletionResult is the outcome of UpdatePastCompletion.
type CompletionResult struct {
	Record    model.CompletionRecord `json:"record"`
	Status    model.OccurrenceStatus `json:"status"`
	Analytics *model.AnalyticsData   `json:"analytics,omitempty"`
}

// ScheduleService serves occurrence lists and analytics on top of the
// engine, caching results per user until their data changes.
type ScheduleService struct {
	todos       TodoSource
	completions CompletionSource
	engine      *engine.Engine
	occurrences *cache.Cache[[]model.Occurrence]
	analytics   *cache.Cache[model.AnalyticsData]
	log         *slog.Logger
	now         func() time.Time

	// writes serializes completion updates so a rollback never clobbers a
	// newer optimistic value.
	writes sync.Mutex
}

func NewScheduleService(todos TodoSource, completions CompletionSource, eng *engine.Engine, cacheCfg cache.Config, log *slog.Logger) *ScheduleService {
	if log == nil {
		log = slog.Default()
	}
	return &ScheduleService{
		todos:       todos,
		completions: completions,
		engine:      eng,
		occurrences: cache.New[[]model.Occurrence](cacheCfg),
		analytics:   cache.New[model.AnalyticsData](cacheCfg),
		log:         log,
		now:         time.Now,
	}
}

func (s *ScheduleService) Engine() *engine.Engine {
	return s.engine
}

// Close stops the caches' cleanup goroutines.
func (s *ScheduleService) Close() {
	s.occurrences.Close()
	s.analytics.Close()
}

// Invalidate drops everything cached for userID.
func (s *ScheduleService) Invalidate(userID uint) {
	scope := cache.Scope(userScope(userID))
	s.occurrences.DeletePrefix(scope)
	s.analytics.DeletePrefix(scope)
}

// Occurrences lists the user's recurring occurrences in r, newest first.
func (s *ScheduleService) Occurrences(ctx context.Context, userID uint, r DateRange) ([]model.Occurrence, error) {
	if err := s.checkRange(r); err != nil {
		return nil, err
	}
	now := s.now()
	key := s.key(userID, "occurrences", r, now)
	if cached, ok := s.occurrences.Get(key); ok {
		metrics.RecordScheduleRequest("occurrences", true)
		return slices.Clone(cached), nil
	}
	metrics.RecordScheduleRequest("occurrences", false)

	todos, records, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	occs := s.engine.ListOccurrences(todos, records, r.Start, r.End, now)
	metrics.ObserveCompute("occurrences", started)

	s.occurrences.Set(key, slices.Clone(occs))
	return occs, nil
}

// Analytics aggregates the user's completions over r.
func (s *ScheduleService) Analytics(ctx context.Context, userID uint, r DateRange) (model.AnalyticsData, error) {
	if err := s.checkRange(r); err != nil {
		return model.AnalyticsData{}, err
	}
	now := s.now()
	key := s.key(userID, "analytics", r, now)
	if cached, ok := s.analytics.Get(key); ok {
		metrics.RecordScheduleRequest("analytics", true)
		return engine.CloneAnalytics(cached), nil
	}
	metrics.RecordScheduleRequest("analytics", false)

	data, err := s.computeAnalytics(ctx, userID, r, now)
	if err != nil {
		return model.AnalyticsData{}, err
	}
	s.analytics.Set(key, engine.CloneAnalytics(data))
	return data, nil
}

func (s *ScheduleService) computeAnalytics(ctx context.Context, userID uint, r DateRange, now time.Time) (model.AnalyticsData, error) {
	todos, records, err := s.load(ctx, userID)
	if err != nil {
		return model.AnalyticsData{}, err
	}
	started := time.Now()
	occs := s.engine.ListOccurrences(todos, records, r.Start, r.End, now)
	data := s.engine.ComputeAnalytics(todos, occs, r.Start, r.End)
	metrics.ObserveCompute("analytics", started)
	return data, nil
}

// UpdatePastCompletion sets or clears the completion of one occurrence. The
// write is an idempotent upsert on (todo, day). Unknown todos are rejected
// with ErrTodoNotFound and regular todos with ErrInvalidInput.
//
// With a Range, the cached analytics for that range are patched before the
// write and restored if the write fails.
func (s *ScheduleService) UpdatePastCompletion(ctx context.Context, upd CompletionUpdate) (CompletionResult, error) {
	loc := s.engine.Location()
	day, err := recurrence.ParseDate(upd.Date, loc)
	if err != nil {
		metrics.RecordCompletionUpdate("rejected")
		return CompletionResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	dayKey := recurrence.FormatDay(day, loc)
	if upd.Range != nil {
		if err := s.checkRange(*upd.Range); err != nil {
			metrics.RecordCompletionUpdate("rejected")
			return CompletionResult{}, err
		}
	}

	todo, err := s.todos.FindTodo(ctx, upd.UserID, upd.TodoID)
	if err != nil {
		metrics.RecordCompletionUpdate("rejected")
		return CompletionResult{}, mapNotFound(err)
	}
	if !todo.IsRecurring() {
		metrics.RecordCompletionUpdate("rejected")
		return CompletionResult{}, fmt.Errorf("%w: todo %s is not recurring", ErrInvalidInput, todo.ID)
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	history, err := s.completions.ListTodoCompletions(ctx, upd.UserID, todo.ID)
	if err != nil {
		return CompletionResult{}, mapNotFound(err)
	}
	var prev *model.CompletionRecord
	if rec, ok := engine.NewCompletionSet(history).Lookup(todo.ID, dayKey); ok {
		prev = &rec
	}

	now := s.now()
	next := engine.ResolveCompletion(prev, upd.UserID, todo.ID, dayKey, upd.Completed, now)
	to := s.engine.Status(next.CompletedAt, day, now)

	var (
		mutation *engine.Mutation
		statsKey string
	)
	if upd.Range != nil && s.engine.IsOccurrence(*todo, day) {
		var prevAt *time.Time
		if prev != nil {
			prevAt = prev.CompletedAt
		}
		change := engine.OccurrenceChange{
			ScheduledDate: dayKey,
			From:          s.engine.Status(prevAt, day, now),
			To:            to,
		}

		current, err := s.Analytics(ctx, upd.UserID, *upd.Range)
		if err != nil {
			return CompletionResult{}, err
		}
		r := *upd.Range
		mutation = engine.BeginMutation(current, func(d model.AnalyticsData) model.AnalyticsData {
			return s.engine.ApplyOccurrenceChange(d, change, r.Start, r.End)
		})
		statsKey = s.key(upd.UserID, "analytics", r, now)
		s.analytics.Set(statsKey, mutation.Optimistic())
	}

	stored, err := s.completions.UpsertCompletion(ctx, next)
	if err != nil {
		if mutation != nil {
			if snapshot, rbErr := mutation.Rollback(); rbErr == nil {
				s.analytics.Set(statsKey, snapshot)
			}
		}
		metrics.RecordCompletionUpdate("rolled_back")
		s.log.Warn("completion update failed", "user_id", upd.UserID, "todo_id", todo.ID, "date", dayKey, "error", err)
		return CompletionResult{}, err
	}

	s.Invalidate(upd.UserID)
	result := CompletionResult{Record: stored, Status: to}
	if mutation != nil {
		kept, err := mutation.Commit()
		if err != nil {
			return CompletionResult{}, err
		}
		s.analytics.Set(statsKey, engine.CloneAnalytics(kept))
		result.Analytics = &kept
	}
	metrics.RecordCompletionUpdate("committed")
	s.log.Info("completion updated", "user_id", upd.UserID, "todo_id", todo.ID, "date", dayKey, "completed", upd.Completed)
	return result, nil
}

// History lists the stored completion records of one todo, newest day first.
func (s *ScheduleService) History(ctx context.Context, userID uint, todoID string) ([]model.CompletionRecord, error) {
	records, err := s.completions.ListTodoCompletions(ctx, userID, todoID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return records, nil
}

// ReportCacheStats publishes the size of both result caches.
func (s *ScheduleService) ReportCacheStats() {
	for name, stats := range map[string]cache.Stats{
		"occurrences": s.occurrences.Stats(),
		"analytics":   s.analytics.Stats(),
	} {
		metrics.SetCacheEntries(name, stats.ActiveEntries, stats.ExpiredEntries)
	}
}

// load fetches todos and completion records concurrently.
func (s *ScheduleService) load(ctx context.Context, userID uint) ([]model.Todo, []model.CompletionRecord, error) {
	var (
		todos   []model.Todo
		records []model.CompletionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		todos, err = s.todos.ListTodos(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.completions.ListCompletions(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load schedule: %w", err)
	}
	return todos, records, nil
}

// key identifies a cached result. Today is part of it because occurrence
// statuses move from pending to missed at midnight.
func (s *ScheduleService) key(userID uint, operation string, r DateRange, now time.Time) string {
	loc := s.engine.Location()
	return cache.Key(userScope(userID),
		operation,
		recurrence.FormatDay(r.Start, loc),
		recurrence.FormatDay(r.End, loc),
		recurrence.FormatDay(now, loc),
	)
}

func userScope(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}
