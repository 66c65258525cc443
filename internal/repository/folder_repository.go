package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

// FolderRepository manages todo folders.
type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// GetOrCreate returns the user's folder called name, creating it on first
// use. An empty name means no folder.
func (r *FolderRepository) GetOrCreate(ctx context.Context, userID uint, name string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var folder model.Folder
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND name = ?", userID, name).First(&folder).Error
	switch {
	case err == nil:
		return &folder, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		folder = model.Folder{UserID: userID, Name: name}
		if err := db.Create(&folder).Error; err != nil {
			return nil, fmt.Errorf("create folder: %w", err)
		}
		return &folder, nil
	default:
		return nil, fmt.Errorf("find folder: %w", err)
	}
}

func (r *FolderRepository) ListByUser(ctx context.Context, userID uint) ([]model.Folder, error) {
	var folders []model.Folder
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

func (r *FolderRepository) GetByID(ctx context.Context, id uint) (*model.Folder, error) {
	var folder model.Folder
	if err := r.db.WithContext(ctx).First(&folder, id).Error; err != nil {
		return nil, notFound("find folder", err)
	}
	return &folder, nil
}
