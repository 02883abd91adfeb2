package main

import (
	"cashflow/pkg/api"
	"cashflow/pkg/auth"
	"cashflow/pkg/cashflow"
	"cashflow/pkg/config"
	"cashflow/pkg/ocr"
	"cashflow/pkg/users"
	"cashflow/pkg/web"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// server holds what the route handlers share.
type server struct {
	cfg      *config.Config
	issuer   *auth.Issuer
	users    *users.Store
	cashFlow *cashflow.Service
	scanner  api.Scanner
}

func newServer(db *gorm.DB, cfg *config.Config) *server {
	return &server{
		cfg:      cfg,
		issuer:   auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		users:    users.NewStore(db, cfg.Auth.RefreshTTL),
		cashFlow: cashflow.NewService(cashflow.NewRepository(db)),
		scanner:  ocr.Tesseract{},
	}
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.POST("/register", s.registerHandler)
	r.POST("/login", s.loginHandler)
	r.POST("/refresh", s.refreshHandler)
	r.POST("/revoke_refresh", s.revokeRefreshHandler)
	r.GET("/me", auth.Identify(s.issuer), s.meHandler)

	apiGroup := r.Group("/api", auth.Identify(s.issuer))
	api.NewHandler(s.cashFlow, s.scanner, s.cfg.Upload.MaxBytes).Register(apiGroup)

	secure := gin.Mode() == gin.ReleaseMode
	web.NewHandler(s.cashFlow, s.users).Register(r, auth.Sessions(s.cfg.Auth.SessionSecret, secure))
}
