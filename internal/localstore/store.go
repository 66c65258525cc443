// Package localstore keeps todos and completion records in a single JSON
// document on disk. It is meant for one writer at a time (the CLI) and
// implements the same storage interfaces as the database repositories.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo-planner/internal/engine"
	"todo-planner/internal/model"
)

type document struct {
	Folders          []model.Folder           `json:"folders"`
	Todos            []model.Todo             `json:"todos"`
	Completions      []model.CompletionRecord `json:"completions"`
	NextFolderID     uint                     `json:"nextFolderId"`
	NextCompletionID uint                     `json:"nextCompletionId"`
}

// Store is a JSON file backed store. Every write rewrites the whole file.
type Store struct {
	path string
	now  func() time.Time

	mu  sync.Mutex
	doc document
}

// Open loads the document at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) ListTodos(_ context.Context, userID uint) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Todo
	for _, todo := range s.doc.Todos {
		if todo.UserID == userID {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (s *Store) FindTodo(_ context.Context, userID uint, todoID string) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(userID, todoID)
	if i < 0 {
		return nil, fmt.Errorf("find todo: %w", model.ErrNotFound)
	}
	todo := s.doc.Todos[i]
	return &todo, nil
}

func (s *Store) CreateTodo(_ context.Context, todo *model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	now := s.now()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = now
	}
	todo.UpdatedAt = now
	s.doc.Todos = append(s.doc.Todos, *todo)
	if err := s.flush(); err != nil {
		s.doc.Todos = s.doc.Todos[:len(s.doc.Todos)-1]
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (s *Store) SaveTodo(_ context.Context, todo *model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(todo.UserID, todo.ID)
	if i < 0 {
		return fmt.Errorf("save todo: %w", model.ErrNotFound)
	}
	prev := s.doc.Todos[i]
	todo.UpdatedAt = s.now()
	s.doc.Todos[i] = *todo
	if err := s.flush(); err != nil {
		s.doc.Todos[i] = prev
		return fmt.Errorf("save todo: %w", err)
	}
	return nil
}

// DeleteTodo removes the todo and every completion record that points at it.
func (s *Store) DeleteTodo(_ context.Context, userID uint, todoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(userID, todoID)
	if i < 0 {
		return fmt.Errorf("delete todo: %w", model.ErrNotFound)
	}
	prev := s.doc
	set := engine.NewCompletionSet(s.doc.Completions)
	set.RemoveTodo(todoID)
	s.doc.Todos = slices.Delete(slices.Clone(s.doc.Todos), i, i+1)
	s.doc.Completions = set.Records()
	if err := s.flush(); err != nil {
		s.doc = prev
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

func (s *Store) FolderID(_ context.Context, userID uint, name string) (*uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.doc.Folders {
		if f.UserID == userID && f.Name == name {
			id := f.ID
			return &id, nil
		}
	}
	s.doc.NextFolderID++
	now := s.now()
	folder := model.Folder{ID: s.doc.NextFolderID, UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}
	s.doc.Folders = append(s.doc.Folders, folder)
	if err := s.flush(); err != nil {
		s.doc.Folders = s.doc.Folders[:len(s.doc.Folders)-1]
		s.doc.NextFolderID--
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return &folder.ID, nil
}

func (s *Store) ListCompletions(_ context.Context, userID uint) ([]model.CompletionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CompletionRecord
	for _, rec := range s.doc.Completions {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) ListTodoCompletions(_ context.Context, userID uint, todoID string) ([]model.CompletionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(userID, todoID) < 0 {
		return nil, fmt.Errorf("list todo completions: %w", model.ErrNotFound)
	}
	var out []model.CompletionRecord
	for _, rec := range s.doc.Completions {
		if rec.UserID == userID && rec.TodoID == todoID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b model.CompletionRecord) int {
		return strings.Compare(b.ScheduledDate, a.ScheduledDate)
	})
	return out, nil
}

// UpsertCompletion stores rec under its (todo, day) key.
func (s *Store) UpsertCompletion(_ context.Context, rec model.CompletionRecord) (model.CompletionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc
	set := engine.NewCompletionSet(s.doc.Completions)
	if _, exists := set.Lookup(rec.TodoID, rec.ScheduledDate); !exists {
		s.doc.NextCompletionID++
		rec.ID = s.doc.NextCompletionID
	}
	stored := set.Upsert(rec)
	s.doc.Completions = set.Records()
	if err := s.flush(); err != nil {
		s.doc = prev
		return model.CompletionRecord{}, fmt.Errorf("upsert completion: %w", err)
	}
	return stored, nil
}

func (s *Store) indexOf(userID uint, todoID string) int {
	return slices.IndexFunc(s.doc.Todos, func(t model.Todo) bool {
		return t.UserID == userID && t.ID == todoID
	})
}

// flush writes the document to a temp file and renames it over the target.
// Callers hold s.mu.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".todo-planner-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
