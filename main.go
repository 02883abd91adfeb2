package main

import (
	"fmt"
	"log"
	"os"

	"cashflow/pkg/config"

	"github.com/gin-gonic/gin"
)

func main() {
	// CASHFLOW_CONFIG points at a config file; without it ./config.yaml is used when present
	cfg, loader, err := config.Load(os.Getenv("CASHFLOW_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.InsecureSecret() {
		log.Println("warning: using the development JWT secret; set JWT_SECRET or CASHFLOW_AUTH_JWT_SECRET")
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	// Support a lightweight migrate command: `./cashflow migrate`
	// It runs the migrations and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if _, err := initDB(cfg, true); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		fmt.Println("migration and seeding completed")
		return
	}

	db, err := initDB(cfg, false)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	s := newServer(db, cfg)
	loader.Watch(func(next *config.Config) {
		s.issuer.SetTTL(next.Auth.TokenTTL)
		log.Printf("access token lifetime is now %s", s.issuer.TTL())
	})

	r := gin.Default()
	s.setupRoutes(r)

	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("server: %v", err)
	}
}
