package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
)

// UserRepository manages dashboard operator accounts in PostgreSQL.
type UserRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, auth_provider_id, email, first_name, last_name, role,
	       email_verified, is_active, created_at, updated_at`

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (
			id, auth_provider_id, email, first_name, last_name, role,
			email_verified, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.AuthProviderID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.EmailVerified,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("user with email already exists: %w", err)
		}
		r.logger.Error("Failed to create user", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("User created", zap.String("user_id", user.ID.String()))
	return nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = true`

	var user entities.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user")
		}
		r.logger.Error("Failed to get user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByAuthProviderID retrieves a user by the external auth identifier
func (r *UserRepository) GetByAuthProviderID(ctx context.Context, authProviderID string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_provider_id = $1 AND is_active = true`

	var user entities.User
	if err := r.db.GetContext(ctx, &user, query, authProviderID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user")
		}
		r.logger.Error("Failed to get user by auth provider ID",
			zap.Error(err), zap.String("auth_provider_id", authProviderID))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND is_active = true)`

	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		r.logger.Error("Failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// Update updates mutable profile fields
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users SET
			first_name = $2, last_name = $3, role = $4, email_verified = $5, updated_at = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Role, user.EmailVerified, time.Now())
	if err != nil {
		r.logger.Error("Failed to update user", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("user")
	}

	r.logger.Debug("User updated", zap.String("user_id", user.ID.String()))
	return nil
}

// Deactivate sets is_active to false for the given user
func (r *UserRepository) Deactivate(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET is_active = false, updated_at = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, userID, time.Now())
	if err != nil {
		r.logger.Error("Failed to deactivate user", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	r.logger.Info("User deactivated", zap.String("user_id", userID.String()))
	return nil
}
