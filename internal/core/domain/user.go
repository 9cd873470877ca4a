package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// BootstrapAdminEmail is granted RoleAdmin at registration when no explicit
// allow-list is configured.
const BootstrapAdminEmail = "admin@example.com"

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r may act on every task.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleForEmail returns the role granted to email at registration. Only exact
// (case-sensitive) matches against adminEmails are promoted; an empty list
// falls back to BootstrapAdminEmail.
func RoleForEmail(email string, adminEmails []string) Role {
	if len(adminEmails) == 0 {
		adminEmails = []string{BootstrapAdminEmail}
	}
	for _, admin := range adminEmails {
		if strings.TrimSpace(admin) == email {
			return RoleAdmin
		}
	}
	return RoleUser
}

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitized returns a copy of u without the password hash.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// Actor is the authenticated user a request acts on behalf of.
type Actor struct {
	ID    string
	Email string
	Role  Role
}

// CanAccess reports whether the actor may read, update or delete t: admins
// may act on any task, everyone else only on tasks they own.
func (a Actor) CanAccess(t *Task) bool {
	if t == nil {
		return false
	}
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		return a.ID != "" && t.OwnerID == a.ID
	default:
		return false
	}
}
