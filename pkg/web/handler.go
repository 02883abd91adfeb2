package web

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"cashflow/models"
	"cashflow/pkg/auth"
	"cashflow/pkg/cashflow"
	"cashflow/pkg/export"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"rupiah": export.FormatRupiah,
	"date":   func(t time.Time) string { return t.Format("02/01/2006 15:04") },
}).ParseFS(templatesFS, "templates/*.html"))

const (
	homePath   = "/cash-flows"
	loginPath  = "/auth/login"
	logoutPath = "/auth/logout"
)

// Service is the part of cashflow.Service the pages use.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, in cashflow.Input) (*models.CashFlow, error)
	List(ctx context.Context, ownerID uuid.UUID, search string) ([]models.CashFlow, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.CashFlow, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in cashflow.Input) (*models.CashFlow, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	Summary(ctx context.Context, ownerID uuid.UUID) (cashflow.Summary, error)
}

// Authenticator checks login form credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// Handler serves the browser pages under /cash-flows and /auth.
type Handler struct {
	svc   Service
	users Authenticator
}

func NewHandler(svc Service, users Authenticator) *Handler {
	return &Handler{svc: svc, users: users}
}

// Register installs the page templates and routes. mw runs before every page
// and must include the session middleware.
func (h *Handler) Register(r *gin.Engine, mw ...gin.HandlerFunc) {
	r.SetHTMLTemplate(pages)
	g := r.Group("", mw...)

	g.GET(loginPath, h.loginPage)
	g.POST(loginPath, h.login)
	g.GET(logoutPath, h.logout)

	cf := g.Group(homePath, requireSession())
	cf.GET("", h.list)
	cf.POST("/add", h.add)
	cf.POST("/edit", h.edit)
	cf.POST("/delete", h.delete)
}

// requireSession resolves the page principal; without one the browser is sent to logout.
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.SessionUser(c)
		if !ok {
			c.Redirect(http.StatusFound, logoutPath)
			c.Abort()
			return
		}
		auth.SetPrincipal(c, p)
		c.Next()
	}
}

func owner(c *gin.Context) uuid.UUID {
	p, _ := auth.FromContext(c)
	return p.UserID
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	p, _ := auth.FromContext(c)
	search := c.Query("search")

	items, err := h.svc.List(ctx, p.UserID, search)
	if err != nil {
		log.Printf("page list failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	sum, err := h.svc.Summary(ctx, p.UserID)
	if err != nil {
		log.Printf("page summary failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	s := sessions.Default(c)
	data := gin.H{
		"auth":            p,
		"cashFlows":       items,
		"search":          search,
		"totalIncome":     sum.TotalIncome,
		"totalExpense":    sum.TotalExpense,
		"balance":         sum.Balance,
		"types":           []string{models.TypeIncome, models.TypeExpense},
		"success":         takeFlash(s, flashSuccess),
		"error":           takeFlash(s, flashError),
		"addModalOpen":    takeFlash(s, flashAddModal) != "",
		"editModalOpen":   takeFlash(s, flashEditModal) != "",
		"editModalId":     takeFlash(s, flashEditModalID),
		"deleteModalOpen": takeFlash(s, flashDeleteModal) != "",
		"deleteModalId":   takeFlash(s, flashDeleteModalID),
	}
	if err := s.Save(); err != nil {
		log.Printf("session save failed: %v", err)
	}
	c.HTML(http.StatusOK, "cash_flows.html", data)
}

func (h *Handler) add(c *gin.Context) {
	var form cashFlowForm
	if err := c.ShouldBind(&form); err != nil {
		flash(c, flashError, "Data tidak valid: "+fieldError(err))
		flash(c, flashAddModal, "true")
		redirectHome(c)
		return
	}
	if _, err := h.svc.Create(c.Request.Context(), owner(c), form.input()); err != nil {
		log.Printf("page create failed: %v", err)
		flash(c, flashError, "Gagal menambahkan data")
		redirectHome(c)
		return
	}
	flash(c, flashSuccess, "Data berhasil ditambahkan")
	redirectHome(c)
}

func (h *Handler) edit(c *gin.Context) {
	var form cashFlowForm
	bindErr := c.ShouldBind(&form)
	id, err := uuid.Parse(form.ID)
	if err != nil {
		flash(c, flashError, "ID tidak valid")
		redirectHome(c)
		return
	}
	if bindErr != nil {
		flash(c, flashError, "Data tidak valid: "+fieldError(bindErr))
		openEditModal(c, id)
		redirectHome(c)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), owner(c), id, form.input())
	if err != nil {
		log.Printf("page update failed: %v", err)
	}
	if updated == nil {
		flash(c, flashError, "Gagal memperbarui data")
		openEditModal(c, id)
		redirectHome(c)
		return
	}
	flash(c, flashSuccess, "Data berhasil diperbarui")
	redirectHome(c)
}

func (h *Handler) delete(c *gin.Context) {
	var form deleteForm
	_ = c.ShouldBind(&form)
	id, err := uuid.Parse(form.ID)
	if err != nil {
		flash(c, flashError, "ID tidak valid")
		redirectHome(c)
		return
	}
	ctx := c.Request.Context()

	existing, err := h.svc.GetByID(ctx, owner(c), id)
	if err != nil {
		log.Printf("page delete lookup failed: %v", err)
	}
	if existing == nil {
		flash(c, flashError, "Data tidak ditemukan")
		redirectHome(c)
		return
	}
	if form.ConfirmLabel != existing.Label {
		flash(c, flashError, "Konfirmasi Label tidak sesuai")
		flash(c, flashDeleteModal, "true")
		flash(c, flashDeleteModalID, id.String())
		redirectHome(c)
		return
	}

	deleted, err := h.svc.Delete(ctx, owner(c), id)
	if err != nil {
		log.Printf("page delete failed: %v", err)
	}
	if !deleted {
		flash(c, flashError, "Gagal menghapus data")
	} else {
		flash(c, flashSuccess, "Data berhasil dihapus")
	}
	redirectHome(c)
}

func openEditModal(c *gin.Context, id uuid.UUID) {
	flash(c, flashEditModal, "true")
	flash(c, flashEditModalID, id.String())
}
