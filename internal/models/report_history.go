package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportHistory is one append-only audit row. Rows are never updated; they
// are removed only together with their report.
type ReportHistory struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"report_id"`
	ChangedBy  *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
	Action     Action     `gorm:"size:60;not null" json:"action"`
	FromStatus *Status    `gorm:"size:20" json:"from_status"`
	ToStatus   *Status    `gorm:"size:20" json:"to_status"`
	Note       *string    `gorm:"size:255" json:"note"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (ReportHistory) TableName() string {
	return "report_history"
}
