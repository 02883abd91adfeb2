package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"cashflow/pkg/config"
	"cashflow/pkg/database"
	"cashflow/pkg/users"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <username> <password> [name]")
		os.Exit(2)
	}
	username := os.Args[1]
	password := os.Args[2]
	name := ""
	if len(os.Args) > 3 {
		name = os.Args[3]
	}

	cfg, _, err := config.Load(os.Getenv("CASHFLOW_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	store := users.NewStore(db, cfg.Auth.RefreshTTL)
	user, err := store.Register(context.Background(), username, name, password)
	if errors.Is(err, users.ErrUserExists) {
		existing, _ := store.ByUsername(context.Background(), username)
		if existing != nil {
			fmt.Printf("user %s already exists (id=%s)\n", username, existing.ID)
		}
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%s\n", user.Username, user.ID)
}
