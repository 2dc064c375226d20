package services

import (
	"os"
	"testing"

	"puzzle-game-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens the database named by TEST_DATABASE_URL. Transactional tests
// need real Postgres semantics (row locks, advisory locks, unique
// violations), so they skip when no database is available.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database-backed test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.ProgressRecord{},
		&models.LeaderboardEntry{},
		&models.FCMToken{},
		&models.NotificationPreferences{},
		&models.NotificationLog{},
		&models.AppConfig{},
	))
	return db
}
