package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	p := Principal{UserID: uuid.New(), Username: "budi"}
	tok, err := iss.Issue(p)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != p {
		t.Fatalf("principal = %+v, want %+v", got, p)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	p := Principal{UserID: uuid.New(), Username: "budi"}
	other, _ := NewIssuer("other", time.Hour).Issue(p)
	if _, err := NewIssuer("secret", time.Hour).Parse(other); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}

	iss := NewIssuer("secret", time.Hour)
	iss.SetTTL(-time.Minute) // falls back to the default lifetime
	if iss.TTL() != 24*time.Hour {
		t.Fatalf("ttl fallback = %v", iss.TTL())
	}
	iss.ttl.Store(int64(-time.Minute))
	expired, _ := iss.Issue(p)
	if _, err := iss.Parse(expired); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestRefreshTokenHash(t *testing.T) {
	tok, hash, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("new refresh token: %v", err)
	}
	if len(tok) != 64 || hash != HashRefreshToken(tok) || hash == tok {
		t.Fatalf("unexpected token/hash pair %q %q", tok, hash)
	}
}

func TestPasswordPolicy(t *testing.T) {
	if _, err := HashPassword("123"); err != ErrPasswordTooShort {
		t.Fatalf("short password err = %v", err)
	}
	h, err := HashPassword("rahasia")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(h, "rahasia") || CheckPassword(h, "salah") {
		t.Fatalf("password check mismatch")
	}
}

func TestIdentifyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iss := NewIssuer("secret", time.Hour)
	p := Principal{UserID: uuid.New(), Username: "sari"}
	tok, _ := iss.Issue(p)

	r := gin.New()
	r.Use(Identify(iss))
	r.GET("/who", func(c *gin.Context) {
		if got, ok := FromContext(c); ok {
			c.String(http.StatusOK, got.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	cases := map[string]string{
		"":                "anonymous",
		"Bearer garbage":  "anonymous",
		"Basic abc":       "anonymous",
		"Bearer " + tok:   "sari",
		"bearer   " + tok: "sari",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Body.String() != want {
			t.Errorf("header %q: got %q want %q", header, rec.Body.String(), want)
		}
	}
}
