package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-planner/internal/model"
)

// CompletionRepository stores per-occurrence completion records.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) ListByUser(ctx context.Context, userID uint) ([]model.CompletionRecord, error) {
	var records []model.CompletionRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("scheduled_date ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return records, nil
}

// ListByTodo returns the records of one todo, newest day first.
func (r *CompletionRepository) ListByTodo(ctx context.Context, todoID string) ([]model.CompletionRecord, error) {
	var records []model.CompletionRecord
	if err := r.db.WithContext(ctx).Where("todo_id = ?", todoID).
		Order("scheduled_date DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list todo completions: %w", err)
	}
	return records, nil
}

// Upsert writes rec under its (todo_id, scheduled_date) key: the first write
// inserts, later ones only update the completion time. It returns the stored
// row.
func (r *CompletionRepository) Upsert(ctx context.Context, rec model.CompletionRecord) (model.CompletionRecord, error) {
	rec.ID = 0
	var stored model.CompletionRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "todo_id"}, {Name: "scheduled_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed_at", "updated_at"}),
		}).Create(&rec).Error; err != nil {
			return err
		}
		return tx.Where("todo_id = ? AND scheduled_date = ?", rec.TodoID, rec.ScheduledDate).First(&stored).Error
	})
	if err != nil {
		return model.CompletionRecord{}, fmt.Errorf("upsert completion: %w", err)
	}
	return stored, nil
}
