package export

import (
	"fmt"
	"io"
	"time"

	"cashflow/models"
	"cashflow/pkg/cashflow"

	"github.com/phpdave11/gofpdf"
)

var pdfWidths = []float64{30, 28, 24, 36, 30, 42}

// WritePDF renders an A4 statement for owner with a totals footer.
func WritePDF(w io.Writer, owner string, rows []models.CashFlow, sum cashflow.Summary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Laporan Cash Flow", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Laporan Cash Flow")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Pengguna: %s", owner)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Dibuat: %s", time.Now().Format(dateLayout)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	for i, h := range header {
		pdf.CellFormat(pdfWidths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		cells := []string{
			r.CreatedAt.Format(dateLayout),
			r.Type,
			tr(truncate(r.Source, 14)),
			tr(truncate(r.Label, 22)),
			FormatRupiah(r.Amount),
			tr(truncate(r.Description, 26)),
		}
		for i, v := range cells {
			align := "L"
			if i == 4 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 9)
	for _, line := range []struct {
		label string
		value int64
	}{
		{"Total Pemasukan", sum.TotalIncome},
		{"Total Pengeluaran", sum.TotalExpense},
		{"Saldo", sum.Balance},
	} {
		pdf.CellFormat(60, 6, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, FormatRupiah(line.value), "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
