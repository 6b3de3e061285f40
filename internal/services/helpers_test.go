package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/config"
	"github.com/scdri/backend/internal/database"
	"github.com/scdri/backend/internal/documents"
	"github.com/scdri/backend/internal/geocode"
	"github.com/scdri/backend/internal/models"
	"github.com/scdri/backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	uploads    string
	storage    *storage.Local
	ledger     *HistoryLedger
	dispatcher *NotificationDispatcher
	lifecycle  *ReportLifecycle
	reports    *ReportService
	geocoder   *fakeGeocoder
}

type fakeGeocoder struct {
	point *geocode.Point
	calls atomic.Int32
}

func (g *fakeGeocoder) Resolve(ctx context.Context, address string) *geocode.Point {
	g.calls.Add(1)
	return g.point
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	uploads := t.TempDir()
	store, err := storage.NewLocal(uploads, "/uploads")
	require.NoError(t, err)
	docs, err := documents.NewTemplateGenerator()
	require.NoError(t, err)

	ledger := NewHistoryLedger(db)
	dispatcher := NewNotificationDispatcher(db, store, docs)
	escalation := NewEscalationEngine(dispatcher)
	geo := &fakeGeocoder{}

	return &testEnv{
		db:         db,
		uploads:    uploads,
		storage:    store,
		ledger:     ledger,
		dispatcher: dispatcher,
		lifecycle:  NewReportLifecycle(db, ledger, escalation, store, nil),
		reports:    NewReportService(db, ledger, store, geo, docs, nil, 20),
		geocoder:   geo,
	}
}

var cpfSeq atomic.Int64

func createUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		NameKey:  NameKey(name),
		CPF:      fmt.Sprintf("%011d", 10000000000+cpfSeq.Add(1)),
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createReport(t *testing.T, db *gorm.DB, author *models.User, title string, status models.Status) *models.Report {
	t.Helper()
	r := &models.Report{
		UserID:      author.ID,
		Title:       title,
		Description: "Descricao de teste suficiente",
		Category:    models.CategoryHousehold,
		Status:      status,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Report {
	t.Helper()
	var r models.Report
	require.NoError(t, db.First(&r, "id = ?", id).Error)
	return &r
}

func historyCount(t *testing.T, db *gorm.DB, reportID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ReportHistory{}).Where("report_id = ?", reportID).Count(&n).Error)
	return n
}
