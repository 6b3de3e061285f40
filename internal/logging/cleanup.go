package logging

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/scdri/backend/internal/models"
	"gorm.io/gorm"
)

// StartCleanup schedules deletion of system_logs older than retentionDays.
// The returned cron instance must be stopped on shutdown.
func StartCleanup(db *gorm.DB, spec string, retentionDays int) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() {
		deleted, err := PurgeOlderThan(db, time.Now().AddDate(0, 0, -retentionDays))
		if err != nil {
			slog.Error("log cleanup failed", "error", err)
			return
		}
		if deleted > 0 {
			slog.Info("log cleanup completed", "deleted", deleted)
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func PurgeOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
