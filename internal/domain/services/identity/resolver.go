package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
)

// UserStore is the subset of the user repository the resolver needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) error
}

// Resolver maps an authenticated principal to a row in the users table,
// creating the row lazily on first review. Review saves are blocked while
// resolution fails.
type Resolver struct {
	users  UserStore
	logger *zap.Logger
}

// NewResolver creates a new identity resolver
func NewResolver(users UserStore, logger *zap.Logger) *Resolver {
	return &Resolver{
		users:  users,
		logger: logger,
	}
}

// Resolve returns the user id for the principal, creating the user row
// keyed by email when absent.
func (r *Resolver) Resolve(ctx context.Context, principal entities.Principal) (uuid.UUID, error) {
	if principal.Email == "" {
		return uuid.Nil, apperrors.NotAuthenticated("no authenticated reviewer identity")
	}

	user, err := r.users.GetByEmail(ctx, principal.Email)
	if err == nil {
		return user.ID, nil
	}

	// Lookup missed (or failed); fall through to a lazy insert carrying
	// whatever profile fields the token provided.
	id := uuid.New()
	if parsed, parseErr := uuid.Parse(principal.AuthProviderID); parseErr == nil {
		id = parsed
	}

	role := principal.Role
	if role == "" {
		role = "analyst"
	}

	now := time.Now()
	newUser := &entities.User{
		ID:             id,
		AuthProviderID: principal.AuthProviderID,
		Email:          principal.Email,
		FirstName:      principal.FirstName,
		LastName:       principal.LastName,
		Role:           role,
		EmailVerified:  true,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if createErr := r.users.Create(ctx, newUser); createErr != nil {
		r.logger.Error("Reviewer identity resolution failed",
			zap.Error(createErr),
			zap.String("email", principal.Email),
			zap.NamedError("lookup_error", err))
		return uuid.Nil, apperrors.IdentityResolution(createErr)
	}

	r.logger.Info("Reviewer row created lazily",
		zap.String("user_id", newUser.ID.String()),
		zap.String("email", principal.Email))
	return newUser.ID, nil
}
