package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID            uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          NotificationType `gorm:"size:20;not null" json:"type"`
	Title         string           `gorm:"size:160;not null" json:"title"`
	Message       string           `gorm:"type:text;not null" json:"message"`
	AttachmentURL *string          `gorm:"size:255" json:"attachment_url"`
	ReadAt        *time.Time       `gorm:"index" json:"read_at"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
}
