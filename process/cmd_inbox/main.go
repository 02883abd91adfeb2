package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cashflow/pkg/cashflow"
	"cashflow/pkg/config"
	"cashflow/pkg/database"
	"cashflow/pkg/ocr"
	"cashflow/pkg/users"
	"cashflow/process/inbox"
)

// Imports receipt images from a directory as expenses of one user, optionally watching for new files.
func main() {
	dir := flag.String("dir", "public/keu", "directory to scan for receipt images")
	processed := flag.String("processed", "public/processed", "directory processed images are moved to (empty keeps them in place)")
	username := flag.String("username", "admin", "owner of the imported expenses")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	minConf := flag.Float64("min-conf", 0.15, "minimum OCR confidence to accept")
	lang := flag.String("lang", "eng", "tesseract language")
	verbose := flag.Bool("verbose", false, "Verbose per-file logging")
	cfgPath := flag.String("config", os.Getenv("CASHFLOW_CONFIG"), "config file")
	flag.Parse()

	cfg, _, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := users.NewStore(db, cfg.Auth.RefreshTTL).ByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("user %s not found: %v", *username, err)
	}

	im := &inbox.Importer{
		Dir:           *dir,
		ProcessedDir:  *processed,
		Owner:         owner.ID,
		Scanner:       ocr.Tesseract{Language: *lang},
		Service:       cashflow.NewService(cashflow.NewRepository(db)),
		Workers:       *workers,
		MinConfidence: *minConf,
		MaxBytes:      cfg.Upload.MaxBytes,
		Verbose:       *verbose,
	}
	n, err := im.Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Printf("imported %d receipts for %s", n, owner.Username)

	if *watch {
		if err := im.Watch(ctx); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}
