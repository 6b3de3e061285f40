package database

import (
	"path/filepath"
	"testing"

	"github.com/scdri/backend/internal/config"
	"github.com/scdri/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAndPing(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "migrate.db")})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	assert.NoError(t, Ping(db))

	for _, m := range []interface{}{&models.User{}, &models.Report{}, &models.ReportHistory{}, &models.Notification{}, &models.SystemLog{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
