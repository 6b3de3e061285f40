package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scdri/backend/internal/documents"
	"github.com/scdri/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TierFor maps a citizen's cumulative false-report count to a penalty.
func TierFor(count int) models.NotificationType {
	switch {
	case count <= 1:
		return models.NotificationWarning
	case count == 2:
		return models.NotificationFine
	default:
		return models.NotificationSummons
	}
}

// Penalty is the outcome of one escalation.
type Penalty struct {
	FalseReportCount int
	Tier             models.NotificationType
	Notification     *models.Notification

	// attachment is stored by the caller after commit.
	attachment *pendingDocument
}

type EscalationEngine struct {
	dispatcher *NotificationDispatcher
}

func NewEscalationEngine(dispatcher *NotificationDispatcher) *EscalationEngine {
	return &EscalationEngine{dispatcher: dispatcher}
}

// Escalate bumps the author's false-report counter and issues the matching
// penalty. It must run inside the transaction that marked report false.
func (e *EscalationEngine) Escalate(ctx context.Context, tx *gorm.DB, report *models.Report) (*Penalty, error) {
	var author models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&author, "id = ?", report.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("report author not found")
		}
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	count := author.FalseReportCount + 1
	if err := tx.Model(&author).UpdateColumn("false_report_count", count).Error; err != nil {
		return nil, fmt.Errorf("failed to update false report count: %w", err)
	}

	tier := TierFor(count)
	n := &models.Notification{UserID: author.ID, Type: tier}
	var attachment *pendingDocument

	switch tier {
	case models.NotificationWarning:
		n.Title = "Aviso por denuncia falsa"
		n.Message = fmt.Sprintf("Sua denuncia \"%s\" foi analisada como falsa. Este e um aviso oficial.", report.Title)
		err = e.dispatcher.Notify(ctx, tx, n)
	case models.NotificationFine:
		n.Title = "Multa administrativa"
		n.Message = "Sua segunda denuncia falsa foi registrada. Uma multa administrativa foi aplicada."
		err = e.dispatcher.Notify(ctx, tx, n)
	default:
		n.Title = "Intimacao oficial"
		n.Message = fmt.Sprintf("Foi registrada sua %da denuncia falsa. Voce recebeu uma intimacao oficial para comparecimento.", count)
		city, _ := ExtractLocality(deref(report.Location))
		attachment, err = e.dispatcher.NotifyWithSummons(ctx, tx, n, documents.SummonsData{
			CPF:              author.CPF,
			City:             city,
			ReportTitle:      report.Title,
			FalseReportCount: count,
		})
	}
	if err != nil {
		return nil, err
	}

	slog.Info("false report penalty issued",
		"user_id", author.ID.String(),
		"report_id", report.ID.String(),
		"tier", string(tier),
		"false_report_count", count,
	)

	return &Penalty{FalseReportCount: count, Tier: tier, Notification: n, attachment: attachment}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
