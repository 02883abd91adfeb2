package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cashflow/models"
	"cashflow/pkg/auth"
	"cashflow/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired   = errors.New("username required")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
)

// Store keeps accounts and their refresh tokens.
type Store struct {
	db         *gorm.DB
	refreshTTL time.Duration
}

func NewStore(db *gorm.DB, refreshTTL time.Duration) *Store {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &Store{db: db, refreshTTL: refreshTTL}
}

// Register creates an account with a bcrypt password.
func (s *Store) Register(ctx context.Context, username, name, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	}
	if strings.TrimSpace(name) == "" {
		name = username
	}
	user := models.User{Username: username, Name: name, HashedPassword: hashed}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) { // race after the initial check
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate never tells the caller which half of the credentials was wrong.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *Store) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IssueRefresh stores the hash of a new refresh token and returns the raw token.
func (s *Store) IssueRefresh(ctx context.Context, userID uuid.UUID) (string, error) {
	return issueRefresh(s.db.WithContext(ctx), userID, s.refreshTTL)
}

func issueRefresh(tx *gorm.DB, userID uuid.UUID, ttl time.Duration) (string, error) {
	raw, hash, err := auth.NewRefreshToken()
	if err != nil {
		return "", err
	}
	rt := models.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: time.Now().Add(ttl)}
	if err := tx.Create(&rt).Error; err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// Rotate revokes raw and returns its owner together with a fresh refresh token.
func (s *Store) Rotate(ctx context.Context, raw string) (*models.User, string, error) {
	var (
		user  models.User
		fresh string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.RefreshToken
		if err := tx.Where("token_hash = ?", auth.HashRefreshToken(raw)).First(&rt).Error; err != nil {
			return ErrInvalidRefresh
		}
		if rt.Revoked || time.Now().After(rt.ExpiresAt) {
			return ErrInvalidRefresh
		}
		if err := tx.First(&user, "id = ?", rt.UserID).Error; err != nil {
			return ErrInvalidRefresh
		}
		if err := tx.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true).Error; err != nil {
			return err
		}
		var err error
		fresh, err = issueRefresh(tx, user.ID, s.refreshTTL)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return &user, fresh, nil
}

// Revoke marks raw as unusable. Unknown tokens give ErrInvalidRefresh.
func (s *Store) Revoke(ctx context.Context, raw string) error {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", auth.HashRefreshToken(raw)).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidRefresh
	}
	return nil
}

// SetPassword replaces the password of username and revokes its refresh tokens.
func (s *Store) SetPassword(ctx context.Context, username, password string) error {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return fmt.Errorf("user %s not found: %w", username, err)
		}
		if err := tx.Model(&user).Update("hashed_password", hashed).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Update("revoked", true).Error
	})
}
