package ports

import (
	"context"

	"github.com/99minutos/task-manager/internal/core/domain"
)

// UserRepository is the user directory, keyed uniquely by email.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when the id does not resolve.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create persists user and fills in its ID. A uniqueness conflict on the
	// email is reported as domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
}
