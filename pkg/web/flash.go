package web

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Flash keys live until the next page that reads them.
const (
	flashSuccess       = "success"
	flashError         = "error"
	flashAddModal      = "addModalOpen"
	flashEditModal     = "editModalOpen"
	flashEditModalID   = "editModalId"
	flashDeleteModal   = "deleteModalOpen"
	flashDeleteModalID = "deleteModalId"
)

func flash(c *gin.Context, key, value string) {
	sessions.Default(c).AddFlash(value, key)
}

// takeFlash consumes the first value queued under key. The caller saves the session.
func takeFlash(s sessions.Session, key string) string {
	values := s.Flashes(key)
	if len(values) == 0 {
		return ""
	}
	v, _ := values[0].(string)
	return v
}

func redirect(c *gin.Context, path string) {
	if err := sessions.Default(c).Save(); err != nil {
		log.Printf("session save failed: %v", err)
	}
	c.Redirect(http.StatusSeeOther, path)
}

func redirectHome(c *gin.Context) {
	redirect(c, homePath)
}
