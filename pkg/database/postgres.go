package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go-bookstore-ws/internal/logger"
)

func ConnectPostgres(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for Supabase Transaction Mode
	}), &gorm.Config{
		Logger:      logger.NewGorm(log),
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// Connection Pooling Setup (Penting untuk Production)
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Database connection established")
	return db, nil
}
