package sanitize

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"cashflow/pkg/config"
	"cashflow/pkg/database"
	"cashflow/pkg/users"

	"gorm.io/gorm"
)

// DefaultTables are the application tables, children first.
const DefaultTables = "refresh_tokens,cash_flows,users"

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Options struct {
	DryRun bool
	Yes    bool
	Reseed bool
	Tables string
}

// Run executes the db_sanitize CLI behavior. Exported so a small cmd/main can call it.
func Run() {
	var opts Options
	flag.BoolVar(&opts.DryRun, "dry-run", true, "Don't perform destructive actions; show what would be done")
	flag.BoolVar(&opts.Yes, "yes", false, "Confirm destructive action (required to actually truncate)")
	flag.BoolVar(&opts.Reseed, "reseed", false, "After truncation, reseed the admin user")
	flag.StringVar(&opts.Tables, "tables", DefaultTables, "Comma-separated list of tables to truncate")
	cfgPath := flag.String("config", os.Getenv("CASHFLOW_CONFIG"), "config file")
	flag.Parse()

	cfg, _, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	gdb, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := Sanitize(context.Background(), gdb, os.Stdout, opts); err != nil {
		log.Fatal(err)
	}
}

// Tables validates the requested names and keeps those present in the database.
func Tables(gdb *gorm.DB, requested string) []string {
	var existing []string
	for _, p := range strings.Split(requested, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			log.Printf("warning: skipping invalid table name '%s'", p)
			continue
		}
		if !gdb.Migrator().HasTable(p) {
			log.Printf("info: table %s not found, skipping", p)
			continue
		}
		existing = append(existing, p)
	}
	return existing
}

// Sanitize empties the selected tables when opts allow it and optionally reseeds the admin.
func Sanitize(ctx context.Context, gdb *gorm.DB, w io.Writer, opts Options) error {
	existing := Tables(gdb, opts.Tables)
	if len(existing) == 0 {
		fmt.Fprintln(w, "no requested tables present in the database; nothing to do")
		return nil
	}

	fmt.Fprintln(w, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(w, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return nil
	}
	if !opts.Yes {
		fmt.Fprintln(w, "Destructive operation. Pass --yes to confirm execution. Aborting.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := truncate(gdb.WithContext(ctx), existing); err != nil {
		return fmt.Errorf("truncate failed: %w", err)
	}
	fmt.Fprintln(w, "Truncate completed.")

	if opts.Reseed {
		store := users.NewStore(gdb, 0)
		if _, err := store.Register(ctx, "admin", "Administrator", "admin123"); err != nil {
			return fmt.Errorf("reseed failed: %w", err)
		}
		fmt.Fprintln(w, "Reseeded admin user.")
	}
	return nil
}

func truncate(gdb *gorm.DB, tables []string) error {
	// names were validated; quote them to preserve case
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, fmt.Sprintf("\"%s\"", t))
	}
	if gdb.Dialector.Name() != "postgres" {
		return gdb.Transaction(func(tx *gorm.DB) error {
			for _, q := range quoted {
				if err := tx.Exec("DELETE FROM " + q).Error; err != nil {
					return err
				}
			}
			return nil
		})
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
	log.Printf("Executing: %s", stmt)
	return gdb.Exec(stmt).Error
}
