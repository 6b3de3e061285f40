package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report is a citizen-submitted record of an illegal dumping incident.
// Status, urgency, reviewer and the marked-false flag change only through
// the lifecycle service.
type Report struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title        string     `gorm:"size:30;not null" json:"title"`
	Description  string     `gorm:"size:500;not null" json:"description"`
	Category     Category   `gorm:"size:30;not null;default:'industrial';index" json:"category"`
	Location     *string    `gorm:"size:255" json:"location"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
	Image        *string    `gorm:"size:255" json:"image"`
	Status       Status     `gorm:"size:20;not null;default:'open';index" json:"status"`
	Urgency      *Urgency   `gorm:"size:10" json:"urgency"`
	RejectReason *string    `gorm:"size:255" json:"reject_reason"`
	MarkedFalse  bool       `gorm:"not null;default:false" json:"marked_false"`
	ReviewedBy   *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	User         User       `gorm:"foreignKey:UserID" json:"-"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Report) HasCoordinates() bool {
	return r.Lat != nil && r.Lng != nil
}
