package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go-bookstore-ws/internal/logger"
)

// ConnectSQLite opens a single-writer SQLite database for local runs and tests.
// Use "file:<name>?mode=memory&cache=shared" for an in-memory database.
func ConnectSQLite(path string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.NewGorm(log),
	})
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite hanya satu writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	return db, nil
}
