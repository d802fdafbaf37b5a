package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/slidexpress/workflow-service/internal/domain"
)

const clockSkew = 30 * time.Second

var errNoSubject = errors.New("token has no subject")

// TokenManager verifies HS256 bearer tokens minted by the identity service.
// It can sign equivalent tokens for tests and local tooling.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager builds a manager. ttlMinutes only affects GenerateToken.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// WithIssuer makes ParseToken reject tokens whose iss claim differs, and
// stamps it on generated tokens. An empty issuer disables the check.
func (tm *TokenManager) WithIssuer(issuer string) *TokenManager {
	tm.issuer = issuer
	return tm
}

// Claims is the token payload shared with the identity service.
type Claims struct {
	WorkspaceID string      `json:"workspace"`
	Role        domain.Role `json:"role"`
	Name        string      `json:"name,omitempty"`
	Email       string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is what a token says about its bearer.
type Identity struct {
	UserID      string
	WorkspaceID string
	Role        domain.Role
	Name        string
	Email       string
}

// GenerateToken signs a token for id that expires after the manager's ttl.
func (tm *TokenManager) GenerateToken(id Identity) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		WorkspaceID: id.WorkspaceID,
		Role:        id.Role,
		Name:        id.Name,
		Email:       id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, expiry and issuer, and requires a subject.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	}, opts...); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errNoSubject
	}
	return claims, nil
}
