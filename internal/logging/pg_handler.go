package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const pgBatchSize = 50

// PGHandler is an slog.Handler that batches ERROR+ records into system_logs.
type PGHandler struct {
	db     *gorm.DB
	mu     *sync.Mutex
	buffer *[]models.SystemLog
	attrs  []slog.Attr
	ticker *time.Ticker
	done   chan struct{}
	once   *sync.Once
}

func NewPGHandler(db *gorm.DB, flushEvery time.Duration) *PGHandler {
	buf := make([]models.SystemLog, 0, pgBatchSize)
	h := &PGHandler{
		db:     db,
		mu:     &sync.Mutex{},
		buffer: &buf,
		ticker: time.NewTicker(flushEvery),
		done:   make(chan struct{}),
		once:   &sync.Once{},
	}
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.done:
			h.flush()
			return
		}
	}
}

func (h *PGHandler) flush() {
	h.mu.Lock()
	if len(*h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	batch := *h.buffer
	*h.buffer = make([]models.SystemLog, 0, pgBatchSize)
	h.mu.Unlock()

	if err := h.db.CreateInBatches(batch, pgBatchSize).Error; err != nil {
		// Warn is below this handler's threshold, so this cannot recurse.
		slog.Warn("failed to flush system logs to DB", "err", err.Error(), "count", len(batch))
	}
}

// Stop flushes whatever is buffered and ends the background loop.
func (h *PGHandler) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "trace_id", "request_id":
			entry.TraceID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "report_id":
			s := a.Value.String()
			entry.ReportID = &s
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.mu.Lock()
	*h.buffer = append(*h.buffer, entry)
	needFlush := len(*h.buffer) >= pgBatchSize
	h.mu.Unlock()

	if needFlush {
		go h.flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}
