package export

import (
	"strconv"
	"strings"

	"cashflow/models"
	"cashflow/pkg/cashflow"
)

const dateLayout = "2006-01-02 15:04"

var header = []string{"Tanggal", "Tipe", "Sumber", "Label", "Jumlah", "Deskripsi"}

// Summarize totals the given rows the same way the dashboard does.
func Summarize(rows []models.CashFlow) cashflow.Summary {
	var s cashflow.Summary
	for _, r := range rows {
		switch r.Type {
		case models.TypeIncome:
			s.TotalIncome += r.Amount
		case models.TypeExpense:
			s.TotalExpense += r.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	return s
}

// FormatRupiah renders an amount with dot grouping, e.g. Rp 5.000.000.
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	ds := strconv.FormatInt(amount, 10)
	var b strings.Builder
	pre := len(ds) % 3
	if pre > 0 {
		b.WriteString(ds[:pre])
	}
	for i := pre; i < len(ds); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(ds[i : i+3])
	}
	return sign + "Rp " + b.String()
}
