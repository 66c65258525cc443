package service

import (
	"context"
	"errors"

	"todo-planner/internal/model"
)

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrInvalidInput = errors.New("invalid input")
)

// TodoSource reads a user's todos.
type TodoSource interface {
	ListTodos(ctx context.Context, userID uint) ([]model.Todo, error)
	FindTodo(ctx context.Context, userID uint, todoID string) (*model.Todo, error)
}

// CompletionSource reads and writes completion records. UpsertCompletion is
// keyed by (TodoID, ScheduledDate) and must be idempotent.
type CompletionSource interface {
	ListCompletions(ctx context.Context, userID uint) ([]model.CompletionRecord, error)
	// ListTodoCompletions returns one todo's records, newest day first, and
	// fails with model.ErrNotFound when the user has no such todo.
	ListTodoCompletions(ctx context.Context, userID uint, todoID string) ([]model.CompletionRecord, error)
	UpsertCompletion(ctx context.Context, rec model.CompletionRecord) (model.CompletionRecord, error)
}

// TodoStore is a TodoSource that can also change todos.
type TodoStore interface {
	TodoSource
	CreateTodo(ctx context.Context, todo *model.Todo) error
	SaveTodo(ctx context.Context, todo *model.Todo) error
	// DeleteTodo also removes the todo's completion records.
	DeleteTodo(ctx context.Context, userID uint, todoID string) error
	// FolderID resolves a folder name, creating the folder when needed.
	FolderID(ctx context.Context, userID uint, name string) (*uint, error)
}

// ReminderStore lists reminder candidates across users.
type ReminderStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListReminderTodos(ctx context.Context, userID uint) ([]model.Todo, error)
	ClearReminder(ctx context.Context, userID uint, todoID string) error
}

// Invalidator drops cached results derived from a user's data.
type Invalidator interface {
	Invalidate(userID uint)
}

func mapNotFound(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return ErrTodoNotFound
	}
	return err
}
