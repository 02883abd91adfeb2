package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"cashflow/models"

	"gorm.io/gorm"
)

// Totals is the month-bounded aggregate of one type.
type Totals struct {
	Type   string
	Count  int64
	Amount int64
}

// Monthly computes per-type totals for username in month (YYYY-MM, UTC bounds).
func Monthly(ctx context.Context, gdb *gorm.DB, username, month string) (*models.User, []Totals, time.Time, time.Time, error) {
	var user models.User
	if err := gdb.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, nil, time.Time{}, time.Time{}, fmt.Errorf("user %s not found: %w", username, err)
	}
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, nil, time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	out := make([]Totals, 0, 2)
	for _, typ := range []string{models.TypeIncome, models.TypeExpense} {
		var (
			total sql.NullInt64
			cnt   int64
		)
		row := gdb.WithContext(ctx).Model(&models.CashFlow{}).
			Select("CAST(SUM(amount) AS BIGINT), COUNT(*)").
			Where("user_id = ? AND type = ? AND created_at >= ? AND created_at < ?", user.ID, typ, start, end).
			Row()
		if err := row.Scan(&total, &cnt); err != nil {
			return nil, nil, start, end, fmt.Errorf("query %s totals: %w", typ, err)
		}
		out = append(out, Totals{Type: typ, Count: cnt, Amount: total.Int64})
	}
	return &user, out, start, end, nil
}

// Run prints a month-bounded report for username and optionally lists the matching rows.
func Run(ctx context.Context, gdb *gorm.DB, w io.Writer, username, month string, list bool) error {
	user, totals, start, end, err := Monthly(ctx, gdb, username, month)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", user.Username, month)
	var balance int64
	for _, t := range totals {
		fmt.Fprintf(w, "  %s records=%d total_amount=%d\n", t.Type, t.Count, t.Amount)
		if t.Type == models.TypeIncome {
			balance += t.Amount
		} else {
			balance -= t.Amount
		}
	}
	fmt.Fprintf(w, "  balance=%d\n", balance)

	if !list {
		return nil
	}
	var rows []models.CashFlow
	if err := gdb.WithContext(ctx).Where("user_id = ? AND created_at >= ? AND created_at < ?", user.ID, start, end).
		Order("created_at").Find(&rows).Error; err != nil {
		return fmt.Errorf("fetch rows failed: %w", err)
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s|%s|%s|%s|%d|%s\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.Type, r.Label, r.Amount, r.Source)
	}
	return nil
}
