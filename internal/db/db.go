package db

import (
	"database/sql"
	"errors"
	"fmt"

	"builders-pos/internal/config"
	"builders-pos/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when neither DB_URL nor DB_HOST is set.
var ErrNotConfigured = errors.New("relational mirror is not configured")

// NewDatabase opens and pings the postgres relational mirror.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.DSN() == "" {
		return nil, ErrNotConfigured
	}
	return newDatabaseWithDriver(cfg, "postgres")
}

func newDatabaseWithDriver(cfg *config.Config, driverName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.L().Info("database connection established",
		zap.String("host", cfg.DBHost),
		zap.String("name", cfg.DBName),
	)
	return db, nil
}
