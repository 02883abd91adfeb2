package export

import (
	"fmt"
	"io"

	"cashflow/models"
	"cashflow/pkg/cashflow"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Cash Flow"

// WriteXLSX writes one row per record followed by the totals block.
func WriteXLSX(w io.Writer, rows []models.CashFlow, sum cashflow.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "F1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{r.CreatedAt.Format(dateLayout), r.Type, r.Source, r.Label, r.Amount, r.Description}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	next := len(rows) + 3
	for i, line := range []struct {
		label string
		value int64
	}{
		{"Total Pemasukan", sum.TotalIncome},
		{"Total Pengeluaran", sum.TotalExpense},
		{"Saldo", sum.Balance},
	} {
		cell, _ := excelize.CoordinatesToCellName(4, next+i)
		row := []interface{}{line.label, line.value}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "F", 20); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return f.Write(w)
}
