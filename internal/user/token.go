package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and verifies the access/refresh token pair used for
// authenticated requests. Refresh tokens carry a distinct type claim so they
// cannot be replayed as access tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

type claims struct {
	TokenType string `json:"typ"`
	Admin     bool   `json:"adm"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (m *TokenManager) Issue(u *User) (TokenPair, error) {
	access, err := m.sign("access", u.ID, u.Admin, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign("refresh", u.ID, u.Admin, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *TokenManager) sign(typ, userID string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		TokenType: typ,
		Admin:     admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	s, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (m *TokenManager) verify(typ, token string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.TokenType != typ || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// VerifyAccess implements identity.TokenVerifier.
func (m *TokenManager) VerifyAccess(token string) (string, bool, error) {
	c, err := m.verify("access", token)
	if err != nil {
		return "", false, err
	}
	return c.Subject, c.Admin, nil
}

// Refresh exchanges a valid refresh token for a new pair. The admin flag is
// re-read from the repository so a privilege change takes effect on refresh.
func (m *TokenManager) Refresh(token string, lookup func(userID string) (*User, error)) (TokenPair, error) {
	c, err := m.verify("refresh", token)
	if err != nil {
		return TokenPair{}, err
	}
	u, err := lookup(c.Subject)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	return m.Issue(u)
}
