// internal/database/database.go
package database

import (
	"fmt"

	"cardio-wsi-back/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.AnalysisRun{}, &models.ArchivedPrediction{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
