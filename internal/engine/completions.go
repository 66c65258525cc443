package engine

import (
	"time"

	"todo-planner/internal/model"
)

type completionKey struct {
	todoID string
	day    string
}

// CompletionSet indexes completion records by their natural key
// (todo id, scheduled day). When the input holds duplicates the last one wins.
type CompletionSet struct {
	records []model.CompletionRecord
	index   map[completionKey]int
}

func NewCompletionSet(records []model.CompletionRecord) *CompletionSet {
	s := &CompletionSet{
		records: make([]model.CompletionRecord, 0, len(records)),
		index:   make(map[completionKey]int, len(records)),
	}
	for _, rec := range records {
		s.put(rec)
	}
	return s
}

func (s *CompletionSet) Lookup(todoID, day string) (model.CompletionRecord, bool) {
	i, ok := s.index[completionKey{todoID, day}]
	if !ok {
		return model.CompletionRecord{}, false
	}
	return s.records[i], true
}

// Upsert stores rec under its natural key, keeping the identity and creation
// time of an existing record. Repeating the same upsert is a no-op.
func (s *CompletionSet) Upsert(rec model.CompletionRecord) model.CompletionRecord {
	if prev, ok := s.Lookup(rec.TodoID, rec.ScheduledDate); ok {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
		if rec.UserID == 0 {
			rec.UserID = prev.UserID
		}
	}
	s.put(rec)
	return rec
}

// RemoveTodo drops every record of todoID and returns how many were removed.
func (s *CompletionSet) RemoveTodo(todoID string) int {
	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.TodoID == todoID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	s.reindex()
	return removed
}

func (s *CompletionSet) Records() []model.CompletionRecord {
	out := make([]model.CompletionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *CompletionSet) Len() int {
	return len(s.records)
}

func (s *CompletionSet) put(rec model.CompletionRecord) {
	key := completionKey{rec.TodoID, rec.ScheduledDate}
	if i, ok := s.index[key]; ok {
		s.records[i] = rec
		return
	}
	s.index[key] = len(s.records)
	s.records = append(s.records, rec)
}

func (s *CompletionSet) reindex() {
	s.index = make(map[completionKey]int, len(s.records))
	for i, rec := range s.records {
		s.index[completionKey{rec.TodoID, rec.ScheduledDate}] = i
	}
}

// ResolveCompletion builds the record written when an occurrence is marked
// complete (CompletedAt = now) or incomplete (CompletedAt = nil). prev is the
// stored record for the same day, if any; when it is already in the requested
// state it is returned as is, so a repeated call keeps the first CompletedAt.
func ResolveCompletion(prev *model.CompletionRecord, userID uint, todoID, day string, completed bool, now time.Time) model.CompletionRecord {
	if prev != nil && (prev.CompletedAt != nil) == completed {
		return *prev
	}
	rec := model.CompletionRecord{
		UserID:        userID,
		TodoID:        todoID,
		ScheduledDate: day,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if completed {
		at := now
		rec.CompletedAt = &at
	}
	return rec
}
