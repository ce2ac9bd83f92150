package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/database"
	"github.com/christi903/fraudwatch-service/pkg/metrics"
)

// fraudOnlyThreshold restricts the fraud-only filter to rows the scoring
// pipeline marked as high risk.
const fraudOnlyThreshold = 0.7

const transactionColumns = `id, initiator, recipient, amount, transaction_type, status,
	       fraud_probability, description, location, transaction_time, created_at`

// TransactionRepository reads and updates the transactions table.
type TransactionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sqlx.DB, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// applyFilters translates the filter state into WHERE predicates. The same
// predicate set must back both the page query and the count query so that
// total_count reflects the full filtered set.
func applyFilters(qb *database.QueryBuilder, filter entities.FilterState) {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		qb.Where("(initiator ILIKE $%d OR recipient ILIKE $%d OR id::text ILIKE $%d OR description ILIKE $%d)",
			pattern, pattern, pattern, pattern)
	}
	if filter.Type != "" {
		qb.Where("transaction_type = $%d", filter.Type)
	}
	if filter.Status != "" {
		qb.Where("status = $%d", filter.Status)
	}
	if filter.MinAmount != nil {
		qb.Where("amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		qb.Where("amount <= $%d", *filter.MaxAmount)
	}
	if filter.FraudOnly {
		qb.Where(fmt.Sprintf("fraud_probability > %g", fraudOnlyThreshold))
	}
}

// List returns one page of transactions matching the filter, most recent
// first, together with the total count of the filtered set.
func (r *TransactionRepository) List(ctx context.Context, filter entities.FilterState, page entities.PageRequest) ([]entities.Transaction, int, error) {
	page.Validate()
	start := time.Now()

	countQB := database.NewQueryBuilder(`SELECT COUNT(*) FROM transactions`)
	applyFilters(countQB, filter)
	countQuery, countArgs := countQB.Build()

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.Error("Failed to count transactions", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	qb := database.NewQueryBuilder(`SELECT ` + transactionColumns + ` FROM transactions`)
	applyFilters(qb, filter)
	qb.OrderBy("transaction_time", true).Limit(page.PageSize).Offset(page.Offset())
	query, args := qb.Build()

	rows := make([]entities.Transaction, 0, page.PageSize)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("Failed to list transactions", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	metrics.RecordQueryDuration("list", "transactions", time.Since(start))
	r.logger.Debug("Listed transactions",
		zap.Int("rows", len(rows)),
		zap.Int("total", total),
		zap.Int("page", page.Page))

	return rows, total, nil
}

// GetByID retrieves a single transaction
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var tx entities.Transaction
	if err := r.db.GetContext(ctx, &tx, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction not found")
		}
		r.logger.Error("Failed to get transaction", zap.Error(err), zap.String("transaction_id", id.String()))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// UpdateStatus sets the review status of a transaction.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.TransactionStatus) error {
	query := `UPDATE transactions SET status = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update transaction status",
			zap.Error(err), zap.String("transaction_id", id.String()))
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction not found")
	}

	r.logger.Debug("Transaction status updated",
		zap.String("transaction_id", id.String()),
		zap.String("status", string(status)))
	return nil
}

// UpdateStatusWithReview performs the status update and the audit insert
// in one database transaction. The default save path issues the two writes
// separately; callers wanting atomicity can use this instead.
func (r *TransactionRepository) UpdateStatusWithReview(ctx context.Context, review *entities.TransactionReview) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET status = $2 WHERE id = $1`,
			review.TransactionID, review.NewStatus); err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_reviews (id, transaction_id, reviewed_by_user_id, previous_status, new_status, notes, reviewed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			review.ID, review.TransactionID, review.ReviewedBy,
			review.PreviousStatus, review.NewStatus, review.Notes, review.ReviewedAt); err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
		return nil
	})
}
