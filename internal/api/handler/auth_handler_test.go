package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-manager/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password string) (*domain.User, error)
	validateFn func(ctx context.Context, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, user *domain.User) (*domain.TokenPair, error)
	refreshFn  func(ctx context.Context, token string) (*domain.TokenPair, error)
	profileFn  func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, email, password)
}

func (s *stubAuthService) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	return s.validateFn(ctx, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	return s.loginFn(ctx, user)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*domain.TokenPair, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.profileFn(ctx, userID)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withActor(c echo.Context, id string, role domain.Role) echo.Context {
	c.Set(CtxUserID, id)
	c.Set(CtxEmail, id+"@example.com")
	c.Set(CtxRole, string(role))
	return c
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(_ context.Context, email, password string) (*domain.User, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.User{ID: "u1", Email: email, Role: domain.RoleUser}, nil
		},
	})

	c, rec := jsonRequest(e, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"secret1"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "alice@example.com" || resp["role"] != "USER" || resp["id"] != "u1" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatal("password hash must not be serialised")
	}
}

func TestAuthHandler_Register_ValidationFails(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, string, string) (*domain.User, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	})

	cases := map[string]string{
		"bad email":      `{"email":"bad-email","password":"secret1"}`,
		"short password": `{"email":"a@b.com","password":"123"}`,
		"missing fields": `{}`,
		"malformed json": `not-json`,
	}
	for name, body := range cases {
		c, _ := jsonRequest(e, http.MethodPost, "/auth/register", body)
		if err := h.Register(c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestAuthHandler_Register_ValidationMessageUsesJSONNames(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	c, _ := jsonRequest(e, http.MethodPost, "/auth/register", `{"email":"a@b.com","password":"123"}`)
	err := h.Register(c)
	if err == nil || !strings.Contains(err.Error(), "password must be at least 6 characters") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	})

	c, _ := jsonRequest(e, http.MethodPost, "/auth/register", `{"email":"bob@example.com","password":"secret1"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	user := &domain.User{ID: "u1", Email: "alice@example.com", Role: domain.RoleAdmin}
	h := NewAuthHandler(&stubAuthService{
		validateFn: func(_ context.Context, email, password string) (*domain.User, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return user, nil
		},
		loginFn: func(_ context.Context, u *domain.User) (*domain.TokenPair, error) {
			if u != user {
				t.Fatal("login must receive the validated user")
			}
			return &domain.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, nil
		},
	})

	c, rec := jsonRequest(e, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "acc" || resp["refresh_token"] != "ref" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		validateFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, nil
		},
		loginFn: func(context.Context, *domain.User) (*domain.TokenPair, error) {
			t.Fatal("login must not run without a validated user")
			return nil, nil
		},
	})

	c, _ := jsonRequest(e, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"bad"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	c, _ := jsonRequest(e, http.MethodPost, "/auth/login", "{")
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		refreshFn: func(_ context.Context, token string) (*domain.TokenPair, error) {
			if token != "old" {
				return nil, domain.ErrUnauthorized
			}
			return &domain.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}, nil
		},
	})

	c, rec := jsonRequest(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"old"}`)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ref2") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	c, _ = jsonRequest(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"stolen"}`)
	if err := h.Refresh(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	c, _ = jsonRequest(e, http.MethodPost, "/auth/refresh", `{}`)
	if err := h.Refresh(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing token, got %v", err)
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		profileFn: func(_ context.Context, userID string) (*domain.User, error) {
			return &domain.User{ID: userID, Email: "u1@example.com", Role: domain.RoleUser}, nil
		},
	})

	c, rec := jsonRequest(e, http.MethodGet, "/auth/profile", "")
	withActor(c, "u1", domain.RoleUser)
	if err := h.Profile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"u1"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_Profile_MissingClaims(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	c, _ := jsonRequest(e, http.MethodGet, "/auth/profile", "")
	err := h.Profile(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
