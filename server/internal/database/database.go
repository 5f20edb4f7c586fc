package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"testons-go/server/internal/config"
	logging "testons-go/server/internal/logging"
	"testons-go/server/internal/models"
)

// DSN builds the postgres connection string from the database settings.
func DSN(dbConf config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)
}

// Open connects to postgres and migrates the documents table.
func Open(dbConf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(dbConf)), &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the documents table and its prefix index.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(&models.Document{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	// Session listing scans keys by prefix.
	prefixIndex := `CREATE INDEX IF NOT EXISTS idx_documents_key_prefix ON documents (key text_pattern_ops);`
	if err := db.Exec(prefixIndex).Error; err != nil {
		return fmt.Errorf("failed to create prefix index on documents table: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
