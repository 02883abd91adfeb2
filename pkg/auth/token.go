package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the access token payload.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens. The lifetime can be changed
// while the server runs.
type Issuer struct {
	secret []byte
	ttl    atomic.Int64
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	iss := &Issuer{secret: []byte(secret)}
	iss.SetTTL(ttl)
	return iss
}

func (i *Issuer) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	i.ttl.Store(int64(ttl))
}

func (i *Issuer) TTL() time.Duration {
	return time.Duration(i.ttl.Load())
}

// Issue returns a signed access token for the principal.
func (i *Issuer) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   p.UserID.String(),
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL())),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies the token signature and expiry and returns its principal.
func (i *Issuer) Parse(tokenString string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, jwt.ErrTokenInvalidClaims
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid user id claim: %w", err)
	}
	return Principal{UserID: id, Username: claims.Username}, nil
}

// NewRefreshToken generates a random refresh token and the hash to store for it.
func NewRefreshToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashRefreshToken(token), nil
}

// HashRefreshToken is the stored form of a raw refresh token.
func HashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
