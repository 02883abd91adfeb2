package main

import (
	"errors"
	"log"
	"net/http"

	"cashflow/models"
	"cashflow/pkg/auth"
	"cashflow/pkg/users"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (s *server) registerHandler(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, err := s.users.Register(c.Request.Context(), req.Username, req.Name, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
	case errors.Is(err, users.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrUsernameRequired), errors.Is(err, auth.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("register failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
	}
}

func (s *server) loginHandler(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token, refresh, ok := s.issueTokens(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": token, "refresh_token": refresh})
}

// issueTokens writes the error response itself when it returns false.
func (s *server) issueTokens(c *gin.Context, user *models.User) (string, string, bool) {
	token, err := s.issuer.Issue(auth.Principal{UserID: user.ID, Username: user.Username})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return "", "", false
	}
	refresh, err := s.users.IssueRefresh(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return "", "", false
	}
	return token, refresh, true
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func (s *server) refreshHandler(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, refresh, err := s.users.Rotate(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, users.ErrInvalidRefresh) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("refresh rotation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	token, err := s.issuer.Issue(auth.Principal{UserID: user.ID, Username: user.Username})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "refresh_token": refresh})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func (s *server) revokeRefreshHandler(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.users.Revoke(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, users.ErrInvalidRefresh) {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

func (s *server) meHandler(c *gin.Context) {
	p, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.UserID, "username": p.Username})
}
