package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string     `gorm:"size:40;not null" json:"name"`
	NameKey          string     `gorm:"size:40;not null;uniqueIndex" json:"-"`
	CPF              string     `gorm:"size:11;not null;uniqueIndex" json:"cpf"`
	Password         string     `gorm:"not null" json:"-"`
	Role             Role       `gorm:"size:20;not null;default:'citizen'" json:"role"`
	Avatar           *string    `gorm:"size:255" json:"avatar,omitempty"`
	IsBanned         bool       `gorm:"not null;default:false" json:"is_banned"`
	BannedReason     *string    `gorm:"size:255" json:"banned_reason,omitempty"`
	BannedAt         *time.Time `json:"banned_at,omitempty"`
	BanCount         int        `gorm:"not null;default:0" json:"ban_count"`
	FalseReportCount int        `gorm:"not null;default:0" json:"false_report_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
