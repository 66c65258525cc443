package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"todo-planner/internal/model"
)

// TodoRepository handles CRUD for todos.
type TodoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) Save(ctx context.Context, todo *model.Todo) error {
	if err := r.db.WithContext(ctx).Save(todo).Error; err != nil {
		return fmt.Errorf("save todo: %w", err)
	}
	return nil
}

// ListByUser returns every todo of the user, oldest first.
func (r *TodoRepository) ListByUser(ctx context.Context, userID uint) ([]model.Todo, error) {
	var todos []model.Todo
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// ListWithReminders returns open todos that carry an explicit reminder or a
// recurrence pattern, the only ones a reminder check can fire for.
func (r *TodoRepository) ListWithReminders(ctx context.Context, userID uint) ([]model.Todo, error) {
	var todos []model.Todo
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND (reminder_at IS NOT NULL OR recurrence IS NOT NULL)", userID, false).
		Order("created_at ASC, id ASC").
		Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list reminder todos: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) FindByID(ctx context.Context, userID uint, todoID string) (*model.Todo, error) {
	var todo model.Todo
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, todoID).First(&todo).Error; err != nil {
		return nil, notFound("find todo", err)
	}
	return &todo, nil
}

// ClearReminder drops a fired one-shot reminder.
func (r *TodoRepository) ClearReminder(ctx context.Context, userID uint, todoID string) error {
	res := r.db.WithContext(ctx).Model(&model.Todo{}).
		Where("user_id = ? AND id = ?", userID, todoID).
		Updates(map[string]interface{}{"reminder_at": nil, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("clear reminder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("clear reminder: %w", model.ErrNotFound)
	}
	return nil
}

// Delete removes a todo together with its completion records.
func (r *TodoRepository) Delete(ctx context.Context, userID uint, todoID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, todoID).Delete(&model.Todo{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNotFound
		}
		return tx.Where("todo_id = ?", todoID).Delete(&model.CompletionRecord{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}
