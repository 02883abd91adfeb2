package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cashflow/models"
	"cashflow/pkg/auth"
	"cashflow/pkg/cashflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Service is the part of cashflow.Service the JSON surface relies on.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, in cashflow.Input) (*models.CashFlow, error)
	List(ctx context.Context, ownerID uuid.UUID, search string) ([]models.CashFlow, error)
	ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.CashFlow, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.CashFlow, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in cashflow.Input) (*models.CashFlow, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	Summary(ctx context.Context, ownerID uuid.UUID) (cashflow.Summary, error)
}

// Handler serves /api/cash-flows.
type Handler struct {
	svc      Service
	scanner  Scanner
	maxBytes int64
}

func NewHandler(svc Service, scanner Scanner, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, scanner: scanner, maxBytes: maxUploadBytes}
}

// Register mounts the routes. The guard order per route is part of the contract:
// create and update validate the body before checking authentication.
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/cash-flows")
	g.POST("", validateCashFlow(), requireUser(), h.create)
	g.GET("", requireUser(), h.list)
	g.GET("/summary", requireUser(), h.summary)
	g.GET("/export/xlsx", requireUser(), h.exportXLSX)
	g.GET("/export/pdf", requireUser(), h.exportPDF)
	g.POST("/scan", requireUser(), h.scan)
	g.GET("/:id", requireUser(), h.get)
	g.PUT("/:id", validateCashFlow(), requireUser(), h.update)
	g.DELETE("/:id", requireUser(), h.delete)
}

type cashFlowRequest struct {
	Type        string `json:"type"`
	Source      string `json:"source"`
	Label       string `json:"label"`
	Amount      *int64 `json:"amount"`
	Description string `json:"description"`
}

const inputKey = "api.cashFlowInput"

// validateCashFlow checks type, label and amount in that order and stops at the first failure.
func validateCashFlow() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cashFlowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, http.StatusBadRequest, msgInvalidBody)
			c.Abort()
			return
		}
		var msg string
		switch {
		case req.Type == "":
			msg = msgInvalidType
		case req.Label == "":
			msg = msgInvalidLabel
		case req.Amount == nil || *req.Amount <= 0:
			msg = msgInvalidAmount
		}
		if msg != "" {
			Fail(c, http.StatusBadRequest, msg)
			c.Abort()
			return
		}
		c.Set(inputKey, cashflow.Input{
			Type:        req.Type,
			Source:      req.Source,
			Label:       req.Label,
			Amount:      *req.Amount,
			Description: req.Description,
		})
		c.Next()
	}
}

// requireUser rejects callers without a resolved principal.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.FromContext(c); !ok {
			Fail(c, http.StatusForbidden, msgUnauthenticated)
			c.Abort()
			return
		}
		c.Next()
	}
}

func owner(c *gin.Context) uuid.UUID {
	p, _ := auth.FromContext(c)
	return p.UserID
}

func input(c *gin.Context) cashflow.Input {
	v, _ := c.Get(inputKey)
	in, _ := v.(cashflow.Input)
	return in
}

// pathID parses :id; a malformed id cannot match any record.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, http.StatusNotFound, msgNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) create(c *gin.Context) {
	cf, err := h.svc.Create(c.Request.Context(), owner(c), input(c))
	if err != nil {
		serverError(c, "create", err)
		return
	}
	Success(c, msgCreated, gin.H{"id": cf.ID})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), owner(c), c.Query("search"))
	if err != nil {
		serverError(c, "list", err)
		return
	}
	if items == nil {
		items = []models.CashFlow{}
	}
	Success(c, msgListed, gin.H{"cashFlows": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cf, err := h.svc.GetByID(c.Request.Context(), owner(c), id)
	if err != nil {
		serverError(c, "get", err)
		return
	}
	if cf == nil {
		Fail(c, http.StatusNotFound, msgNotFound)
		return
	}
	Success(c, msgFetched, gin.H{"cashFlow": cf})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cf, err := h.svc.Update(c.Request.Context(), owner(c), id, input(c))
	if err != nil {
		serverError(c, "update", err)
		return
	}
	if cf == nil {
		Fail(c, http.StatusNotFound, msgNotFound)
		return
	}
	Success(c, msgUpdated, nil)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	deleted, err := h.svc.Delete(c.Request.Context(), owner(c), id)
	if err != nil {
		serverError(c, "delete", err)
		return
	}
	if !deleted {
		Fail(c, http.StatusNotFound, msgNotFound)
		return
	}
	Success(c, msgDeleted, nil)
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), owner(c))
	if err != nil {
		serverError(c, "summary", err)
		return
	}
	Success(c, msgSummary, sum)
}

// dateRange reads optional inclusive from/to (YYYY-MM-DD) and returns a half-open range.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, false
		}
		from = t
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, false
		}
		to = t.AddDate(0, 0, 1)
	}
	return from, to, true
}
