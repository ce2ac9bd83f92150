package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
)

// ReviewRepository appends to and reads the transaction_reviews audit log.
// The log is append-only: there are no update or delete operations.
type ReviewRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sqlx.DB, logger *zap.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends one review record.
func (r *ReviewRepository) Insert(ctx context.Context, review *entities.TransactionReview) error {
	query := `
		INSERT INTO transaction_reviews (
			id, transaction_id, reviewed_by_user_id,
			previous_status, new_status, notes, reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.TransactionID,
		review.ReviewedBy,
		review.PreviousStatus,
		review.NewStatus,
		review.Notes,
		review.ReviewedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert review",
			zap.Error(err),
			zap.String("transaction_id", review.TransactionID.String()))
		return fmt.Errorf("failed to insert review: %w", err)
	}

	r.logger.Debug("Review recorded",
		zap.String("transaction_id", review.TransactionID.String()),
		zap.String("new_status", string(review.NewStatus)))
	return nil
}

// ListByTransaction returns the review history for a transaction, newest
// first.
func (r *ReviewRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]entities.TransactionReview, error) {
	query := `
		SELECT id, transaction_id, reviewed_by_user_id,
		       previous_status, new_status, notes, reviewed_at
		FROM transaction_reviews
		WHERE transaction_id = $1
		ORDER BY reviewed_at DESC`

	reviews := []entities.TransactionReview{}
	if err := r.db.SelectContext(ctx, &reviews, query, transactionID); err != nil {
		r.logger.Error("Failed to list reviews",
			zap.Error(err),
			zap.String("transaction_id", transactionID.String()))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
