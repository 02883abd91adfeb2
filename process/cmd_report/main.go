package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"cashflow/pkg/config"
	"cashflow/pkg/database"
	"cashflow/process/report"
)

func main() {
	username := flag.String("username", "admin", "username to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	cfgPath := flag.String("config", os.Getenv("CASHFLOW_CONFIG"), "config file")
	flag.Parse()

	cfg, _, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	gdb, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	if err := report.Run(context.Background(), gdb, os.Stdout, *username, *month, *list); err != nil {
		log.Fatal(err)
	}
}
