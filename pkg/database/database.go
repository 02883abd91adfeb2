package database

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cashflow/models"
	"cashflow/pkg/config"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. Postgres is the production store;
// sqlite is accepted for local runs and tests.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("database dsn is not set (DB_DSN or CASHFLOW_DATABASE_DSN)")
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLogger := logger.Default
	if !cfg.LogSQL {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// in-memory databases vanish with their last connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Migrate creates or updates the application tables. Models are migrated
// individually so a failure on one doesn't block the others.
func Migrate(db *gorm.DB) error {
	var failed []string
	for _, m := range []struct {
		name  string
		model any
	}{
		{"users", &models.User{}},
		{"refresh_tokens", &models.RefreshToken{}},
		{"cash_flows", &models.CashFlow{}},
	} {
		if err := db.AutoMigrate(m.model); err != nil {
			log.Printf("migration warning (%s): %v", m.name, err)
			failed = append(failed, m.name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("migration failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}
