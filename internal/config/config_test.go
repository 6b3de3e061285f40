package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("GEO_BACKFILL_LIMIT", "")

	cfg := Load()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 8*time.Hour, cfg.JWTAccessExpiry)
	assert.Equal(t, 20, cfg.GeoBackfillLimit)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, "/uploads", cfg.UploadsPublicPath)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_ACCESS_EXPIRY", "30m")
	t.Setenv("GEO_BACKFILL_LIMIT", "5")
	t.Setenv("LOG_RETENTION_DAYS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 5, cfg.GeoBackfillLimit)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "h", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "1", DBSSLMode: "disable"}
	assert.Equal(t, "host=h user=u password=p dbname=n port=1 sslmode=disable TimeZone=UTC", cfg.DSN())
}
