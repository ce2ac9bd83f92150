package review

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
	"github.com/christi903/fraudwatch-service/pkg/metrics"
)

// TransactionStore is the write surface of the transaction repository.
type TransactionStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.TransactionStatus) error
}

// ReviewStore appends to the audit log.
type ReviewStore interface {
	Insert(ctx context.Context, review *entities.TransactionReview) error
}

// IdentityResolver resolves the authenticated principal to a user id.
type IdentityResolver interface {
	Resolve(ctx context.Context, principal entities.Principal) (uuid.UUID, error)
}

// Publisher announces row changes to other sessions.
type Publisher interface {
	Publish(ctx context.Context, event entities.ChangeEvent) error
}

// Service holds the session-local edit buffer and reconciles pending
// edits against the store. The buffer never outlives the session and is
// cleared per transaction only after a fully successful save.
type Service struct {
	mu    sync.RWMutex
	edits map[uuid.UUID]entities.ReviewEdit

	transactions TransactionStore
	reviews      ReviewStore
	identity     IdentityResolver
	notifier     Publisher
	logger       *zap.Logger
}

// NewService creates a new review service
func NewService(transactions TransactionStore, reviews ReviewStore, identity IdentityResolver, notifier Publisher, logger *zap.Logger) *Service {
	return &Service{
		edits:        make(map[uuid.UUID]entities.ReviewEdit),
		transactions: transactions,
		reviews:      reviews,
		identity:     identity,
		notifier:     notifier,
		logger:       logger,
	}
}

// StageStatus records a pending status change for a transaction. The
// previous status is captured on the first edit and preserved across
// subsequent ones.
func (s *Service) StageStatus(transactionID uuid.UUID, previousStatus, newStatus entities.TransactionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edit, ok := s.edits[transactionID]
	if !ok {
		edit = entities.ReviewEdit{PreviousStatus: previousStatus}
	}
	edit.NewStatus = newStatus
	s.edits[transactionID] = edit
}

// StageNotes records pending notes for a transaction.
func (s *Service) StageNotes(transactionID uuid.UUID, previousStatus entities.TransactionStatus, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edit, ok := s.edits[transactionID]
	if !ok {
		edit = entities.ReviewEdit{PreviousStatus: previousStatus}
	}
	edit.Notes = notes
	s.edits[transactionID] = edit
}

// PendingEdit returns the buffered edit for a transaction, if any.
func (s *Service) PendingEdit(transactionID uuid.UUID) (entities.ReviewEdit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edit, ok := s.edits[transactionID]
	return edit, ok
}

// PendingCount returns the number of buffered edits.
func (s *Service) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edits)
}

// Discard drops the buffered edit for a transaction without persisting.
func (s *Service) Discard(transactionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edits, transactionID)
}

// DiscardAll drops every buffered edit. Called on navigation away; drafts
// are never persisted.
func (s *Service) DiscardAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = make(map[uuid.UUID]entities.ReviewEdit)
}

// SaveReview persists the buffered edit for a transaction: a conditional
// status update followed by an audit insert. The two writes are not
// wrapped in one database transaction; a refetch may observe the status
// updated before the audit row lands, which is acceptable because the
// audit log is not read by the list view.
// On any persistence failure the buffer entry is preserved for retry.
func (s *Service) SaveReview(ctx context.Context, principal entities.Principal, transactionID uuid.UUID) error {
	edit, ok := s.PendingEdit(transactionID)
	if !ok {
		metrics.RecordReviewSave("no_changes")
		return apperrors.NoChanges(transactionID.String())
	}

	reviewerID, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		metrics.RecordReviewSave("identity_failed")
		return err
	}

	// Step 1: conditional status write.
	if edit.NewStatus != "" && edit.NewStatus != edit.PreviousStatus {
		if err := s.transactions.UpdateStatus(ctx, transactionID, edit.NewStatus); err != nil {
			metrics.RecordReviewSave("status_write_failed")
			return apperrors.PersistenceFailed(err, "failed to update transaction status")
		}
	}

	// Step 2: audit write. The new status defaults to the previous one
	// when only notes changed.
	newStatus := edit.NewStatus
	if newStatus == "" {
		newStatus = edit.PreviousStatus
	}

	record := &entities.TransactionReview{
		ID:             uuid.New(),
		TransactionID:  transactionID,
		ReviewedBy:     reviewerID,
		PreviousStatus: edit.PreviousStatus,
		NewStatus:      newStatus,
		Notes:          edit.Notes,
		ReviewedAt:     time.Now(),
	}
	if err := s.reviews.Insert(ctx, record); err != nil {
		metrics.RecordReviewSave("audit_write_failed")
		return apperrors.PersistenceFailed(err, "failed to record review")
	}

	s.Discard(transactionID)
	metrics.RecordReviewSave("success")

	s.logger.Info("Review saved",
		zap.String("transaction_id", transactionID.String()),
		zap.String("reviewed_by", reviewerID.String()),
		zap.String("previous_status", string(record.PreviousStatus)),
		zap.String("new_status", string(record.NewStatus)))

	if s.notifier != nil {
		// Best effort: subscribed sessions refetch on this signal, and the
		// saving session refetches explicitly regardless.
		if err := s.notifier.Publish(ctx, entities.ChangeEvent{
			Table: "transactions",
			Kind:  entities.ChangeUpdate,
			RowID: transactionID.String(),
		}); err != nil {
			s.logger.Warn("Failed to publish change event", zap.Error(err))
		}
	}

	return nil
}
