package ports

import (
	"context"
	"time"

	"github.com/99minutos/task-manager/internal/core/domain"
)

// PasswordHasher is a one-way, salted password hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) bool
}

// TokenIssuer signs and verifies access and refresh tokens. Each kind has its
// own secret and lifetime. Verification failures wrap domain.ErrInvalidToken.
type TokenIssuer interface {
	IssueAccess(payload domain.TokenPayload) (string, error)
	IssueRefresh(payload domain.TokenPayload) (string, error)
	VerifyAccess(token string) (*domain.TokenPayload, error)
	VerifyRefresh(token string) (*domain.TokenPayload, error)
}

// TokenRevocationStore remembers refresh tokens that were already rotated.
type TokenRevocationStore interface {
	// Consume marks tokenID as used for ttl. It reports true only for the
	// first caller; concurrent and later callers get false.
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	// ValidateCredentials returns (nil, nil) when the email is unknown or the
	// password does not match.
	ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, user *domain.User) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
