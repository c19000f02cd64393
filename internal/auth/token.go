package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the claims to keep access and refresh tokens
// from being used interchangeably.
const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature,
	// expiry, or kind checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Config holds token manager configuration
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims are the JWT claims issued by this service.
type Claims struct {
	jwt.RegisteredClaims
	TokenKind string `json:"token_kind"`
	Username  string `json:"username"`
}

// TokenManager issues and verifies access/refresh token pairs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a token manager from config.
func NewTokenManager(cfg *Config) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// IssuePair issues an access and a refresh token for the user.
func (m *TokenManager) IssuePair(userID, username string) (access, refresh string, err error) {
	access, err = m.issue(userID, username, tokenKindAccess, m.accessTTL)
	if err != nil {
		return "", "", err
	}

	refresh, err = m.issue(userID, username, tokenKindRefresh, m.refreshTTL)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// VerifyAccess verifies an access token and returns its claims.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, tokenKindAccess)
}

// Refresh verifies a refresh token and issues a new access token.
func (m *TokenManager) Refresh(refreshToken string) (string, error) {
	claims, err := m.verify(refreshToken, tokenKindRefresh)
	if err != nil {
		return "", err
	}
	return m.issue(claims.Subject, claims.Username, tokenKindAccess, m.accessTTL)
}

func (m *TokenManager) issue(userID, username, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenKind: kind,
		Username:  username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signed, nil
}

func (m *TokenManager) verify(tokenStr, kind string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenKind != kind {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
