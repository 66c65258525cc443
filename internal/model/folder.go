package model

import "time"

// Folder groups todos (inbox, work, home, etc.).
type Folder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;index:idx_user_folder_name,unique" json:"userId"`
	Name      string    `gorm:"index:idx_user_folder_name,unique" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Todos     []Todo    `gorm:"foreignKey:FolderID" json:"-"`
}
