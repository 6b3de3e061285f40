package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/metrics"
	"github.com/scdri/backend/internal/models"
	"github.com/scdri/backend/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultFalseReason = "Denuncia falsa"

// ReportLifecycle applies administrative transitions. Each one locks the
// report row, checks its precondition, updates the report and appends history
// in a single transaction, so concurrent transitions on a report serialize.
type ReportLifecycle struct {
	db         *gorm.DB
	ledger     *HistoryLedger
	escalation *EscalationEngine
	storage    storage.Storage
	metrics    *metrics.Recorder
}

func NewReportLifecycle(db *gorm.DB, ledger *HistoryLedger, escalation *EscalationEngine, store storage.Storage, rec *metrics.Recorder) *ReportLifecycle {
	return &ReportLifecycle{db: db, ledger: ledger, escalation: escalation, storage: store, metrics: rec}
}

// step is one transition run by apply.
type step struct {
	action  models.Action
	note    string
	updates map[string]any
	// check runs after the lock and the status check.
	check func(r *models.Report) error
	// after runs once the report row and history are written.
	after func(tx *gorm.DB, r *models.Report) error
}

func (l *ReportLifecycle) apply(ctx context.Context, reportID uuid.UUID, admin Actor, s step) (*models.Report, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	var report models.Report
	var from, to models.Status

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReport(tx, reportID, &report); err != nil {
			return err
		}

		from = report.Status
		next, err := NextStatus(s.action, from)
		if err != nil {
			return err
		}
		to = next
		if s.check != nil {
			if err := s.check(&report); err != nil {
				return err
			}
		}

		updates := map[string]any{}
		for k, v := range s.updates {
			updates[k] = v
		}
		moves := s.action != models.ActionSetUrgency
		if moves {
			updates["status"] = to
			updates["reviewed_by"] = admin.ID
		}
		if len(updates) > 0 {
			if err := tx.Model(&report).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update report: %w", err)
			}
		}

		rec := HistoryRecord{
			ReportID:  report.ID,
			ChangedBy: &admin.ID,
			Action:    s.action,
			Note:      s.note,
		}
		if moves {
			rec.From, rec.To = &from, &to
		}
		if _, err := l.ledger.Record(tx, rec); err != nil {
			return err
		}

		if s.after != nil {
			if err := s.after(tx, &report); err != nil {
				return err
			}
		}

		return tx.First(&report, "id = ?", report.ID).Error
	})
	if err != nil {
		return nil, err
	}

	l.metrics.Transition(string(s.action))
	slog.Info("report transition applied",
		"report_id", report.ID.String(),
		"user_id", admin.ID.String(),
		"action", string(s.action),
		"from", string(from),
		"to", string(to),
	)
	return &report, nil
}

func lockReport(tx *gorm.DB, id uuid.UUID, dst *models.Report) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dst, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("report not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}
	return nil
}

// Verify starts field verification of an open report.
func (l *ReportLifecycle) Verify(ctx context.Context, reportID uuid.UUID, admin Actor) (*models.Report, error) {
	return l.apply(ctx, reportID, admin, step{
		action: models.ActionVerify,
		note:   "Denuncia em verificacao",
	})
}

// FinishVerification confirms the incident, sets its urgency and queues cleanup.
func (l *ReportLifecycle) FinishVerification(ctx context.Context, reportID uuid.UUID, admin Actor, urgency models.Urgency) (*models.Report, error) {
	if !urgency.Valid() {
		return nil, validationFailed("urgency must be one of low, medium, high")
	}
	return l.apply(ctx, reportID, admin, step{
		action:  models.ActionFinishVerification,
		note:    "Verificacao finalizada",
		updates: map[string]any{"urgency": urgency},
	})
}

func (l *ReportLifecycle) CompleteCleanup(ctx context.Context, reportID uuid.UUID, admin Actor) (*models.Report, error) {
	return l.apply(ctx, reportID, admin, step{
		action: models.ActionCompleteCleanup,
		note:   "Limpeza realizada",
	})
}

// ResolveDirect closes a report from any status, skipping the pipeline.
func (l *ReportLifecycle) ResolveDirect(ctx context.Context, reportID uuid.UUID, admin Actor) (*models.Report, error) {
	return l.apply(ctx, reportID, admin, step{
		action: models.ActionResolveDirect,
		note:   "Encerramento direto",
	})
}

func (l *ReportLifecycle) Reject(ctx context.Context, reportID uuid.UUID, admin Actor, reason string) (*models.Report, error) {
	reason, err := validateRejectReason(reason)
	if err != nil {
		return nil, err
	}
	return l.apply(ctx, reportID, admin, step{
		action:  models.ActionReject,
		note:    reason,
		updates: map[string]any{"reject_reason": reason},
	})
}

// SetUrgency changes urgency without moving the report.
func (l *ReportLifecycle) SetUrgency(ctx context.Context, reportID uuid.UUID, admin Actor, urgency models.Urgency) (*models.Report, error) {
	if !urgency.Valid() {
		return nil, validationFailed("urgency must be one of low, medium, high")
	}
	return l.apply(ctx, reportID, admin, step{
		action:  models.ActionSetUrgency,
		note:    fmt.Sprintf("Urgencia definida para %s", urgency),
		updates: map[string]any{"urgency": urgency},
	})
}

// MarkFalseResult is what the caller learns about the penalty issued.
type MarkFalseResult struct {
	Report  *models.Report
	Penalty *Penalty
}

// MarkFalse rejects the report as a false report and escalates against its
// author. A report is penalized at most once.
func (l *ReportLifecycle) MarkFalse(ctx context.Context, reportID uuid.UUID, admin Actor) (*MarkFalseResult, error) {
	var penalty *Penalty

	report, err := l.apply(ctx, reportID, admin, step{
		action: models.ActionMarkFalse,
		note:   DefaultFalseReason,
		check: func(r *models.Report) error {
			if r.MarkedFalse {
				return newError(ErrAlreadyMarked, "report was already marked as false")
			}
			return nil
		},
		updates: map[string]any{"marked_false": true},
		after: func(tx *gorm.DB, r *models.Report) error {
			if r.RejectReason == nil || *r.RejectReason == "" {
				if err := tx.Model(r).UpdateColumn("reject_reason", DefaultFalseReason).Error; err != nil {
					return fmt.Errorf("failed to update report: %w", err)
				}
			}
			p, err := l.escalation.Escalate(ctx, tx, r)
			if err != nil {
				return err
			}
			penalty = p
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	l.metrics.Penalty(string(penalty.Tier))
	// The penalty stands even when the summons file cannot be stored.
	if err := l.escalation.dispatcher.Publish(ctx, penalty.attachment); err != nil {
		penalty.Notification.AttachmentURL = nil
	}
	return &MarkFalseResult{Report: report, Penalty: penalty}, nil
}

// Purge deletes a report with its history. The stored image is removed
// after commit; failing to remove it only logs.
func (l *ReportLifecycle) Purge(ctx context.Context, reportID uuid.UUID, admin Actor) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}

	var report models.Report
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReport(tx, reportID, &report); err != nil {
			return err
		}
		if err := l.ledger.deleteForReport(tx, report.ID); err != nil {
			return fmt.Errorf("failed to delete history: %w", err)
		}
		if err := tx.Delete(&report).Error; err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("report purged", "report_id", report.ID.String(), "user_id", admin.ID.String())

	if report.Image != nil && l.storage != nil {
		delCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := l.storage.Delete(delCtx, *report.Image); err != nil {
			slog.Warn("failed to remove report image", "error", err, "report_id", report.ID.String())
		}
	}
	return nil
}
