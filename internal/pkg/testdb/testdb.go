// Package testdb opens a migrated in-memory database for store tests.
package testdb

import (
	"testing"

	"github.com/dealdesk/core/internal/database"
	"github.com/dealdesk/core/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh schema. One connection keeps every statement on the
// same in-memory database, so never issue queries on the outer handle while a
// transaction is open.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// User inserts a user row and returns it.
func User(t testing.TB, db *gorm.DB, username string) models.UserModel {
	t.Helper()
	u := models.UserModel{Username: username, Name: username}
	require.NoError(t, db.Create(&u).Error)
	return u
}
