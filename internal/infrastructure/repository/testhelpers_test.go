package repository

import (
	"testing"

	"github.com/sangkips/recibo-api/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory SQLite database with the schema applied
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewSQLiteDB("file::memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
