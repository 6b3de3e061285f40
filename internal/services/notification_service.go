package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/documents"
	"github.com/scdri/backend/internal/models"
	"github.com/scdri/backend/internal/storage"
	"gorm.io/gorm"
)

const (
	NotificationListLimit = 40
	notificationsPrefix   = "notifications/"
)

// NotificationDispatcher writes user-facing notices and, for summons,
// renders and stores the attached document.
type NotificationDispatcher struct {
	db        *gorm.DB
	storage   storage.Storage
	documents documents.Generator
}

func NewNotificationDispatcher(db *gorm.DB, store storage.Storage, docs documents.Generator) *NotificationDispatcher {
	return &NotificationDispatcher{db: db, storage: store, documents: docs}
}

// Notify inserts n through tx so it commits or rolls back with the caller.
func (d *NotificationDispatcher) Notify(ctx context.Context, tx *gorm.DB, n *models.Notification) error {
	if !n.Type.Valid() {
		return validationFailed("invalid notification type %q", n.Type)
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// pendingDocument is a rendered attachment whose notification row is written
// but whose bytes are not stored yet.
type pendingDocument struct {
	notificationID uint
	key            string
	doc            *documents.Document
}

// NotifyWithSummons renders the summons and links its future URL to n inside
// tx. Nothing leaves the process here; the caller hands the returned document
// to Publish once tx has committed.
func (d *NotificationDispatcher) NotifyWithSummons(ctx context.Context, tx *gorm.DB, n *models.Notification, data documents.SummonsData) (*pendingDocument, error) {
	doc, err := d.documents.Summons(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summons: %w", err)
	}

	key := notificationsPrefix + doc.Name
	url, err := d.storage.URL(key)
	if err != nil {
		return nil, fmt.Errorf("failed to address summons: %w", err)
	}
	n.AttachmentURL = &url

	if err := d.Notify(ctx, tx, n); err != nil {
		return nil, err
	}
	return &pendingDocument{notificationID: n.ID, key: key, doc: doc}, nil
}

// Publish stores a committed notification's attachment. When the upload
// fails the link is cleared so the notice never points at a missing file.
func (d *NotificationDispatcher) Publish(ctx context.Context, p *pendingDocument) error {
	if p == nil {
		return nil
	}
	if _, err := d.storage.Save(ctx, p.key, p.doc.Body, p.doc.ContentType); err != nil {
		slog.Error("failed to store notification attachment",
			"notification_id", p.notificationID,
			"key", p.key,
			"error", err.Error(),
		)
		if clearErr := d.db.WithContext(context.WithoutCancel(ctx)).Model(&models.Notification{}).
			Where("id = ?", p.notificationID).
			Update("attachment_url", nil).Error; clearErr != nil {
			slog.Error("failed to clear attachment link", "notification_id", p.notificationID, "error", clearErr.Error())
		}
		return fmt.Errorf("failed to store summons: %w", err)
	}
	return nil
}

func (d *NotificationDispatcher) ListRecent(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	list := []models.Notification{}
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(NotificationListLimit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

func (d *NotificationDispatcher) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	list := []models.Notification{}
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

func (d *NotificationDispatcher) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkAllRead stamps every unread notice of userID. Already read ones keep
// their original timestamp.
func (d *NotificationDispatcher) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
