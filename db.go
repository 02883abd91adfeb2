package main

import (
	"context"
	"errors"
	"log"

	"cashflow/pkg/config"
	"cashflow/pkg/database"
	"cashflow/pkg/users"

	"gorm.io/gorm"
)

const (
	adminUsername = "admin"
	adminPassword = "admin123"
)

// initDB connects and, when auto_migrate is on or force is set, migrates and seeds.
// Migration problems are only warnings unless force is set.
func initDB(cfg *config.Config, force bool) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if !cfg.Database.AutoMigrate && !force {
		return db, nil
	}
	if err := database.Migrate(db); err != nil {
		if force {
			return nil, err
		}
		log.Printf("migration warning: %v", err)
	}
	if err := seedDB(db, cfg); err != nil {
		if force {
			return nil, err
		}
		log.Printf("seed warning: %v", err)
	}
	return db, nil
}

// seedDB makes sure the admin account exists.
func seedDB(db *gorm.DB, cfg *config.Config) error {
	store := users.NewStore(db, cfg.Auth.RefreshTTL)
	_, err := store.Register(context.Background(), adminUsername, "Administrator", adminPassword)
	switch {
	case err == nil:
		log.Printf("Seeded admin user: username=%s, password=%s", adminUsername, adminPassword)
		return nil
	case errors.Is(err, users.ErrUserExists):
		return nil
	default:
		return err
	}
}
