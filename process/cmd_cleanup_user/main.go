package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// Deletes every cash flow and refresh token of one user, leaving the account itself.
func main() {
	username := flag.String("username", "admin", "user whose data is removed")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("CASHFLOW_DATABASE_DSN")
	}
	if dsn == "" {
		log.Fatal("DB_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var userID sql.NullString
	err = db.QueryRow(`SELECT id FROM users WHERE username=$1 LIMIT 1`, *username).Scan(&userID)
	if err == sql.ErrNoRows || (err == nil && !userID.Valid) {
		fmt.Printf("user %s not found; nothing to cleanup\n", *username)
		return
	}
	if err != nil {
		log.Fatalf("find user: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	res1, err := tx.Exec(`DELETE FROM cash_flows WHERE user_id=$1`, userID.String)
	if err != nil {
		log.Fatalf("delete cash flows: %v", err)
	}
	n1, _ := res1.RowsAffected()
	res2, err := tx.Exec(`DELETE FROM refresh_tokens WHERE user_id=$1`, userID.String)
	if err != nil {
		log.Fatalf("delete refresh tokens: %v", err)
	}
	n2, _ := res2.RowsAffected()
	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Printf("cleanup done for %s: cash flows deleted=%d, refresh tokens deleted=%d\n", *username, n1, n2)
}
