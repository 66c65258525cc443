package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

// ErrRecurringTodo is returned when a whole recurring todo is completed;
// its occurrences are completed one by one instead.
var ErrRecurringTodo = errors.New("recurring todos are completed per occurrence")

// TodoInput represents data required to create a todo.
type TodoInput struct {
	Text       string                   `json:"text"`
	Folder     string                   `json:"folder"`
	DueDate    *time.Time               `json:"dueDate"`
	ReminderAt *time.Time               `json:"reminderAt"`
	Recurrence *model.RecurrencePattern `json:"recurringPattern"`
}

// TodoService wraps todo-related business logic.
type TodoService struct {
	store       TodoStore
	invalidator Invalidator
}

// NewTodoService builds the service; inv may be nil.
func NewTodoService(store TodoStore, inv Invalidator) *TodoService {
	return &TodoService{store: store, invalidator: inv}
}

func (s *TodoService) Create(ctx context.Context, userID uint, input TodoInput) (*model.Todo, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if input.Recurrence != nil {
		if err := recurrence.Validate(*input.Recurrence); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	folderID, err := s.store.FolderID(ctx, userID, input.Folder)
	if err != nil {
		return nil, err
	}

	todo := model.Todo{
		UserID:     userID,
		FolderID:   folderID,
		Text:       text,
		DueDate:    input.DueDate,
		ReminderAt: input.ReminderAt,
		Recurrence: input.Recurrence,
	}
	if err := s.store.CreateTodo(ctx, &todo); err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return &todo, nil
}

func (s *TodoService) List(ctx context.Context, userID uint) ([]model.Todo, error) {
	return s.store.ListTodos(ctx, userID)
}

func (s *TodoService) Get(ctx context.Context, userID uint, todoID string) (*model.Todo, error) {
	todo, err := s.store.FindTodo(ctx, userID, todoID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return todo, nil
}

// SetCompleted marks a regular todo done (or open again when completed is
// false). Recurring todos are rejected with ErrRecurringTodo.
func (s *TodoService) SetCompleted(ctx context.Context, userID uint, todoID string, completed bool, now time.Time) (*model.Todo, error) {
	todo, err := s.Get(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}
	if todo.IsRecurring() {
		return nil, ErrRecurringTodo
	}

	todo.Completed = completed
	if completed {
		at := now
		todo.CompletedAt = &at
	} else {
		todo.CompletedAt = nil
	}
	if err := s.store.SaveTodo(ctx, todo); err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return todo, nil
}

// Delete removes a todo completely (for both one-time and recurring todos).
func (s *TodoService) Delete(ctx context.Context, userID uint, todoID string) error {
	if err := s.store.DeleteTodo(ctx, userID, todoID); err != nil {
		return mapNotFound(err)
	}
	s.invalidate(userID)
	return nil
}

func (s *TodoService) invalidate(userID uint) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
