package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-manager/pkg/metrics"
	"github.com/99minutos/task-manager/internal/core/domain"
	"github.com/99minutos/task-manager/internal/core/ports"
)

// AuthService implements registration, credential checks and token issuance.
type AuthService struct {
	users       ports.UserRepository
	hasher      ports.PasswordHasher
	tokens      ports.TokenIssuer
	revocations ports.TokenRevocationStore
	adminEmails []string
	now         func() time.Time
	logger      zerolog.Logger
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithAdminEmails replaces the bootstrap admin email with an explicit
// allow-list.
func WithAdminEmails(emails ...string) AuthOption {
	return func(s *AuthService) {
		s.adminEmails = append([]string(nil), emails...)
	}
}

// WithRevocationStore makes refresh tokens single use. The token is consumed
// before the new pair is issued.
func WithRevocationStore(store ports.TokenRevocationStore) AuthOption {
	return func(s *AuthService) {
		s.revocations = store
	}
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	logger zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		adminEmails: []string{domain.BootstrapAdminEmail},
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if !domain.ValidEmail(email) {
		return nil, domain.InvalidInputf("email must be a valid email address")
	}
	if len(password) < domain.MinPasswordLength {
		return nil, domain.InvalidInputf("password must be at least %d characters", domain.MinPasswordLength)
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleForEmail(email, s.adminEmails),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store's unique index reports a concurrent registration of the same
	// email as ErrUserExists.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(string(user.Role)).Inc()
	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return user.Sanitized(), nil
}

func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.CredentialChecksTotal.WithLabelValues("mismatch").Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("validate credentials: %w", err)
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		metrics.CredentialChecksTotal.WithLabelValues("mismatch").Inc()
		return nil, nil
	}

	metrics.CredentialChecksTotal.WithLabelValues("match").Inc()
	return user.Sanitized(), nil
}

// Login issues a fresh token pair for an already authenticated user.
func (s *AuthService) Login(_ context.Context, user *domain.User) (*domain.TokenPair, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	payload := domain.TokenPayload{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	}

	access, err := s.tokens.IssueAccess(payload)
	if err != nil {
		return nil, fmt.Errorf("login: issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(payload)
	if err != nil {
		return nil, fmt.Errorf("login: issue refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new token pair. Every rejection is
// reported as domain.ErrUnauthorized regardless of its cause.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("invalid_token").Inc()
		s.logger.Debug().Err(err).Msg("refresh token rejected")
		return nil, domain.ErrUnauthorized
	}
	if !payload.Complete() {
		metrics.TokenRefreshesTotal.WithLabelValues("invalid_token").Inc()
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, payload.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenRefreshesTotal.WithLabelValues("unknown_user").Inc()
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if s.revocations != nil && payload.ID != "" {
		ttl := payload.ExpiresAt.Sub(s.now())
		if ttl < time.Second {
			ttl = time.Second
		}
		first, err := s.revocations.Consume(ctx, payload.ID, ttl)
		if err != nil {
			return nil, fmt.Errorf("refresh: consume token: %w", err)
		}
		if !first {
			metrics.TokenRefreshesTotal.WithLabelValues("revoked").Inc()
			s.logger.Warn().Str("user_id", payload.Subject).Str("jti", payload.ID).Msg("revoked refresh token replayed")
			return nil, domain.ErrUnauthorized
		}
	}

	pair, err := s.Login(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("rotated").Inc()
	return pair, nil
}

// Profile returns the current state of the user behind an access token.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user.Sanitized(), nil
}
