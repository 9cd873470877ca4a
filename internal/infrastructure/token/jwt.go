// Package token issues and verifies the HS256 access and refresh tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/task-manager/internal/core/domain"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Config holds the independent secret and lifetime of each token kind.
type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

type claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Issuer implements ports.TokenIssuer with golang-jwt.
type Issuer struct {
	access  keyPolicy
	refresh keyPolicy
	issuer  string
	now     func() time.Time
}

type keyPolicy struct {
	secret    []byte
	ttl       time.Duration
	tokenType string
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		access:  keyPolicy{secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL, tokenType: typeAccess},
		refresh: keyPolicy{secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL, tokenType: typeRefresh},
		issuer:  cfg.Issuer,
		now:     time.Now,
	}
}

func (i *Issuer) IssueAccess(payload domain.TokenPayload) (string, error) {
	return i.sign(i.access, payload)
}

func (i *Issuer) IssueRefresh(payload domain.TokenPayload) (string, error) {
	return i.sign(i.refresh, payload)
}

func (i *Issuer) VerifyAccess(token string) (*domain.TokenPayload, error) {
	return i.verify(i.access, token)
}

func (i *Issuer) VerifyRefresh(token string) (*domain.TokenPayload, error) {
	return i.verify(i.refresh, token)
}

func (i *Issuer) sign(p keyPolicy, payload domain.TokenPayload) (string, error) {
	now := i.now()
	c := claims{
		Email:     payload.Email,
		Role:      string(payload.Role),
		TokenType: p.tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   payload.Subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", p.tokenType, err)
	}
	return signed, nil
}

// verify checks signature, algorithm, expiry and token kind, then makes sure
// subject, email and role are all present before trusting the payload.
func (i *Issuer) verify(p keyPolicy, token string) (*domain.TokenPayload, error) {
	var c claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid || c.TokenType != p.tokenType {
		return nil, domain.ErrInvalidToken
	}

	payload := &domain.TokenPayload{
		Subject: c.Subject,
		Email:   c.Email,
		Role:    domain.Role(c.Role),
		ID:      c.ID,
	}
	if c.IssuedAt != nil {
		payload.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		payload.ExpiresAt = c.ExpiresAt.Time
	}
	if !payload.Complete() {
		return nil, fmt.Errorf("%w: incomplete payload", domain.ErrInvalidToken)
	}
	return payload, nil
}
