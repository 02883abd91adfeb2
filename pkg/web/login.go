package web

import (
	"log"
	"net/http"

	"cashflow/pkg/auth"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *Handler) loginPage(c *gin.Context) {
	if _, ok := auth.SessionUser(c); ok {
		c.Redirect(http.StatusFound, homePath)
		return
	}
	s := sessions.Default(c)
	msg := takeFlash(s, flashError)
	if err := s.Save(); err != nil {
		log.Printf("session save failed: %v", err)
	}
	c.HTML(http.StatusOK, "login.html", gin.H{"error": msg})
}

func (h *Handler) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		flash(c, flashError, "Username dan password wajib diisi")
		redirect(c, loginPath)
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		flash(c, flashError, "Username atau password salah")
		redirect(c, loginPath)
		return
	}
	if err := auth.LoginSession(c, auth.Principal{UserID: user.ID, Username: user.Username}); err != nil {
		log.Printf("login session failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusSeeOther, homePath)
}

func (h *Handler) logout(c *gin.Context) {
	if err := auth.LogoutSession(c); err != nil {
		log.Printf("logout session failed: %v", err)
	}
	c.Redirect(http.StatusFound, loginPath)
}
