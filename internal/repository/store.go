package repository

import (
	"context"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

// Store bundles the repositories behind the planner's storage interfaces.
type Store struct {
	Users       *UserRepository
	Folders     *FolderRepository
	Todos       *TodoRepository
	Completions *CompletionRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Users:       NewUserRepository(db),
		Folders:     NewFolderRepository(db),
		Todos:       NewTodoRepository(db),
		Completions: NewCompletionRepository(db),
	}
}

func (s *Store) ListTodos(ctx context.Context, userID uint) ([]model.Todo, error) {
	return s.Todos.ListByUser(ctx, userID)
}

func (s *Store) FindTodo(ctx context.Context, userID uint, todoID string) (*model.Todo, error) {
	return s.Todos.FindByID(ctx, userID, todoID)
}

func (s *Store) CreateTodo(ctx context.Context, todo *model.Todo) error {
	return s.Todos.Create(ctx, todo)
}

func (s *Store) SaveTodo(ctx context.Context, todo *model.Todo) error {
	return s.Todos.Save(ctx, todo)
}

func (s *Store) DeleteTodo(ctx context.Context, userID uint, todoID string) error {
	return s.Todos.Delete(ctx, userID, todoID)
}

func (s *Store) FolderID(ctx context.Context, userID uint, name string) (*uint, error) {
	folder, err := s.Folders.GetOrCreate(ctx, userID, name)
	if err != nil || folder == nil {
		return nil, err
	}
	return &folder.ID, nil
}

func (s *Store) ListCompletions(ctx context.Context, userID uint) ([]model.CompletionRecord, error) {
	return s.Completions.ListByUser(ctx, userID)
}

func (s *Store) ListTodoCompletions(ctx context.Context, userID uint, todoID string) ([]model.CompletionRecord, error) {
	if _, err := s.Todos.FindByID(ctx, userID, todoID); err != nil {
		return nil, err
	}
	return s.Completions.ListByTodo(ctx, todoID)
}

func (s *Store) UpsertCompletion(ctx context.Context, rec model.CompletionRecord) (model.CompletionRecord, error) {
	return s.Completions.Upsert(ctx, rec)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.Users.ListAll(ctx)
}

func (s *Store) ListReminderTodos(ctx context.Context, userID uint) ([]model.Todo, error) {
	return s.Todos.ListWithReminders(ctx, userID)
}

func (s *Store) ClearReminder(ctx context.Context, userID uint, todoID string) error {
	return s.Todos.ClearReminder(ctx, userID, todoID)
}
