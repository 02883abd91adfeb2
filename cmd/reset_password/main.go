package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"cashflow/pkg/config"
	"cashflow/pkg/database"
	"cashflow/pkg/users"
)

func main() {
	username := flag.String("username", "", "username to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *username == "" || *password == "" {
		log.Fatal("--username and --password are required")
	}

	cfg, _, err := config.Load(os.Getenv("CASHFLOW_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	if err := users.NewStore(db, cfg.Auth.RefreshTTL).SetPassword(context.Background(), *username, *password); err != nil {
		log.Fatalf("reset failed: %v", err)
	}
	fmt.Printf("Password reset for user %s\n", *username)
}
