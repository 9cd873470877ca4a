package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// TokenPayload is the set of claims carried by access and refresh tokens.
type TokenPayload struct {
	Subject   string
	Email     string
	Role      Role
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Complete reports whether subject, email and a known role are all present.
func (p *TokenPayload) Complete() bool {
	return p != nil && p.Subject != "" && p.Email != "" && p.Role.Valid()
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
