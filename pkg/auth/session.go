package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionName is the cookie that carries the page session.
const SessionName = "cashflow_session"

const (
	sessionUserID   = "uid"
	sessionUsername = "uname"
)

// Sessions installs the signed cookie store used by the page surface.
func Sessions(secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionName, store)
}

// SessionUser returns the principal stored in the page session.
func SessionUser(c *gin.Context) (Principal, bool) {
	s := sessions.Default(c)
	raw, _ := s.Get(sessionUserID).(string)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return Principal{}, false
	}
	name, _ := s.Get(sessionUsername).(string)
	return Principal{UserID: id, Username: name}, true
}

// LoginSession stores the principal in the page session.
func LoginSession(c *gin.Context, p Principal) error {
	s := sessions.Default(c)
	s.Set(sessionUserID, p.UserID.String())
	s.Set(sessionUsername, p.Username)
	return s.Save()
}

// LogoutSession drops everything kept in the page session.
func LogoutSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}
