package entities

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the dashboard operator accounts managed by the external
// auth provider. Rows are created lazily on first review when missing.
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AuthProviderID string    `json:"auth_provider_id" db:"auth_provider_id"`
	Email          string    `json:"email" db:"email"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	Role           string    `json:"role" db:"role"`
	EmailVerified  bool      `json:"email_verified" db:"email_verified"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Principal is the authenticated identity extracted from a bearer token.
type Principal struct {
	AuthProviderID string
	Email          string
	FirstName      string
	LastName       string
	Role           string
}
