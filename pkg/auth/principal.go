package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const principalKey = "auth.principal"

var ErrMissingToken = errors.New("missing bearer token")

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	Username string
}

// SetPrincipal attaches the caller to the request context.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// FromContext returns the caller resolved earlier in the chain, if any.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

// Identify resolves a bearer token into a Principal when one is present.
// It never rejects a request; handlers decide what an anonymous caller gets.
func Identify(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c.GetHeader("Authorization")); err == nil {
			if p, err := issuer.Parse(token); err == nil {
				SetPrincipal(c, p)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
