package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/models"
	"gorm.io/gorm"
)

// MyHistoryLimit caps the per-citizen history feed.
const MyHistoryLimit = 120

// HistoryLedger is the append-only audit trail of report changes.
type HistoryLedger struct {
	db *gorm.DB
}

func NewHistoryLedger(db *gorm.DB) *HistoryLedger {
	return &HistoryLedger{db: db}
}

type HistoryRecord struct {
	ReportID  uuid.UUID
	ChangedBy *uuid.UUID
	Action    models.Action
	From      *models.Status
	To        *models.Status
	Note      string
}

// Record appends one entry using tx, which should be the transaction that
// changed the report.
func (l *HistoryLedger) Record(tx *gorm.DB, rec HistoryRecord) (*models.ReportHistory, error) {
	entry := models.ReportHistory{
		ReportID:   rec.ReportID,
		ChangedBy:  rec.ChangedBy,
		Action:     rec.Action,
		FromStatus: rec.From,
		ToStatus:   rec.To,
	}
	if rec.Note != "" {
		note := rec.Note
		entry.Note = &note
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record history: %w", err)
	}
	return &entry, nil
}

// ListForReport returns a report's entries newest first.
func (l *HistoryLedger) ListForReport(ctx context.Context, reportID uuid.UUID) ([]dto.HistoryEntry, error) {
	entries := []dto.HistoryEntry{}
	err := l.db.WithContext(ctx).
		Table("report_history AS h").
		Select("h.*, u.name AS changed_by_name").
		Joins("LEFT JOIN users u ON u.id = h.changed_by").
		Where("h.report_id = ?", reportID).
		Order("h.created_at DESC, h.id DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// ListForUser returns the latest entries across every report userID authored.
func (l *HistoryLedger) ListForUser(ctx context.Context, userID uuid.UUID) ([]dto.HistoryEntry, error) {
	entries := []dto.HistoryEntry{}
	err := l.db.WithContext(ctx).
		Table("report_history AS h").
		Select("h.*, u.name AS changed_by_name, r.title AS report_title").
		Joins("JOIN reports r ON r.id = h.report_id").
		Joins("LEFT JOIN users u ON u.id = h.changed_by").
		Where("r.user_id = ?", userID).
		Order("h.created_at DESC, h.id DESC").
		Limit(MyHistoryLimit).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// deleteForReport is only used when the report itself is purged.
func (l *HistoryLedger) deleteForReport(tx *gorm.DB, reportID uuid.UUID) error {
	return tx.Where("report_id = ?", reportID).Delete(&models.ReportHistory{}).Error
}
