package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cashflow/models"
	"cashflow/pkg/auth"
	"cashflow/pkg/export"
	"cashflow/pkg/ocr"

	"github.com/gin-gonic/gin"
)

// Scanner reads an amount suggestion from a receipt image.
type Scanner interface {
	Scan(r io.Reader) (ocr.Result, error)
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

func (h *Handler) exportXLSX(c *gin.Context) {
	h.writeExport(c, "xlsx", xlsxContentType, func(w io.Writer, p auth.Principal, rows []models.CashFlow) error {
		return export.WriteXLSX(w, rows, export.Summarize(rows))
	})
}

func (h *Handler) exportPDF(c *gin.Context) {
	h.writeExport(c, "pdf", pdfContentType, func(w io.Writer, p auth.Principal, rows []models.CashFlow) error {
		return export.WritePDF(w, p.Username, rows, export.Summarize(rows))
	})
}

func (h *Handler) writeExport(c *gin.Context, ext, contentType string, render func(io.Writer, auth.Principal, []models.CashFlow) error) {
	from, to, ok := dateRange(c)
	if !ok {
		Fail(c, http.StatusBadRequest, msgInvalidDate)
		return
	}
	p, _ := auth.FromContext(c)
	rows, err := h.svc.ListBetween(c.Request.Context(), p.UserID, from, to)
	if err != nil {
		serverError(c, "export", err)
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, p, rows); err != nil {
		serverError(c, "export "+ext, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"cash_flows_%s.%s\"", time.Now().Format("20060102"), ext))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// scan suggests an amount from an uploaded receipt; nothing is stored.
func (h *Handler) scan(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		Fail(c, http.StatusBadRequest, msgFileMissing)
		return
	}
	if file.Size > h.maxBytes {
		Fail(c, http.StatusBadRequest, msgFileTooLarge)
		return
	}
	f, err := file.Open()
	if err != nil {
		serverError(c, "scan open", err)
		return
	}
	defer f.Close()

	res, err := h.scanner.Scan(f)
	if errors.Is(err, ocr.ErrNoAmount) {
		Fail(c, http.StatusUnprocessableEntity, msgNoAmount)
		return
	}
	if err != nil {
		serverError(c, "scan", err)
		return
	}
	Success(c, msgScanned, res)
}
