package engine

import (
	"errors"
	"slices"
	"sync"

	"todo-planner/internal/model"
)

var ErrMutationSettled = errors.New("mutation already settled")

// MutationState tracks an optimistic update: pending until the store confirms
// (committed) or fails (rolled back).
type MutationState int

const (
	MutationPending MutationState = iota
	MutationCommitted
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationCommitted:
		return "committed"
	case MutationRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Mutation keeps the snapshot taken before a speculative analytics patch so
// the patch can be undone if the write behind it fails.
type Mutation struct {
	mu         sync.Mutex
	state      MutationState
	before     model.AnalyticsData
	optimistic model.AnalyticsData
}

// BeginMutation snapshots current and applies patch to a copy of it.
func BeginMutation(current model.AnalyticsData, patch func(model.AnalyticsData) model.AnalyticsData) *Mutation {
	before := CloneAnalytics(current)
	return &Mutation{
		state:      MutationPending,
		before:     before,
		optimistic: patch(CloneAnalytics(before)),
	}
}

func (m *Mutation) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Optimistic is the speculative value to show while the mutation is pending.
func (m *Mutation) Optimistic() model.AnalyticsData {
	return CloneAnalytics(m.optimistic)
}

// Commit settles the mutation and returns the value to keep.
func (m *Mutation) Commit() (model.AnalyticsData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MutationPending {
		return model.AnalyticsData{}, ErrMutationSettled
	}
	m.state = MutationCommitted
	return CloneAnalytics(m.optimistic), nil
}

// Rollback settles the mutation and returns the pre-mutation snapshot.
func (m *Mutation) Rollback() (model.AnalyticsData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MutationPending {
		return model.AnalyticsData{}, ErrMutationSettled
	}
	m.state = MutationRolledBack
	return CloneAnalytics(m.before), nil
}

// CloneAnalytics copies data so the result shares no slice with it.
func CloneAnalytics(data model.AnalyticsData) model.AnalyticsData {
	data.DailyBreakdown = slices.Clone(data.DailyBreakdown)
	return data
}
