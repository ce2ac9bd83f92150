package records

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/domain/services/review"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
	"github.com/christi903/fraudwatch-service/pkg/metrics"
)

// State is the lifecycle state of the transaction list.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Lister is the read surface of the transaction repository.
type Lister interface {
	List(ctx context.Context, filter entities.FilterState, page entities.PageRequest) ([]entities.Transaction, int, error)
}

// Subscriber delivers row-change events for a table.
type Subscriber interface {
	Subscribe(ctx context.Context, table string, fn func(entities.ChangeEvent)) (func(), error)
}

// Snapshot is a point-in-time copy of the view-model state.
type Snapshot struct {
	State      State
	Rows       []entities.DisplayTransaction
	TotalCount int
	Error      string
	Filter     entities.FilterState
	Page       entities.PageRequest
}

// ViewModel drives one reviewer session's transaction list: it owns the
// current filter and page, runs fetches, and applies results with a
// last-request-wins guarantee. Fetch results carry a sequence token; a
// slow earlier response can never overwrite a faster later one.
//
// On fetch errors the previously loaded rows are kept visible alongside
// the error message (stale-but-visible).
type ViewModel struct {
	mu sync.Mutex
	wg sync.WaitGroup

	lister     Lister
	reviews    *review.Service
	subscriber Subscriber
	logger     *zap.Logger

	filter entities.FilterState
	page   entities.PageRequest
	state  State
	rows   []entities.DisplayTransaction
	total  int
	errMsg string
	seq    uint64
	closed bool

	notifications chan entities.ChangeEvent
	unsubscribe   func()
}

// NewViewModel creates a view-model with an empty filter on the first page.
func NewViewModel(lister Lister, reviews *review.Service, subscriber Subscriber, logger *zap.Logger, pageSize int) *ViewModel {
	page := entities.PageRequest{Page: 0, PageSize: pageSize}
	page.Validate()
	return &ViewModel{
		lister:        lister,
		reviews:       reviews,
		subscriber:    subscriber,
		logger:        logger,
		page:          page,
		state:         StateIdle,
		notifications: make(chan entities.ChangeEvent, 16),
	}
}

// Start subscribes to live updates on the transactions table. Any change
// re-triggers the fetch that produced the current page; inserts
// additionally emit a non-blocking notification event.
func (vm *ViewModel) Start(ctx context.Context) error {
	if vm.subscriber == nil {
		return nil
	}

	unsubscribe, err := vm.subscriber.Subscribe(ctx, "transactions", func(event entities.ChangeEvent) {
		if event.Kind == entities.ChangeInsert {
			select {
			case vm.notifications <- event:
			default:
				// Dropped notifications are fine: correctness depends on
				// the refetch below, not on the event.
			}
		}
		vm.Refresh(ctx)
	})
	if err != nil {
		return err
	}

	vm.mu.Lock()
	vm.unsubscribe = unsubscribe
	vm.mu.Unlock()
	return nil
}

// Notifications exposes insert events for non-blocking UI toasts.
func (vm *ViewModel) Notifications() <-chan entities.ChangeEvent {
	return vm.notifications
}

// SetFilter replaces the filter, resets to the first page and refetches.
func (vm *ViewModel) SetFilter(ctx context.Context, filter entities.FilterState) {
	vm.mu.Lock()
	vm.filter = filter
	vm.page.Page = 0
	vm.mu.Unlock()
	vm.Refresh(ctx)
}

// ClearFilter resets the filter to its zero value and refetches.
func (vm *ViewModel) ClearFilter(ctx context.Context) {
	vm.SetFilter(ctx, entities.FilterState{})
}

// SetPage moves to the given zero-based page and refetches.
func (vm *ViewModel) SetPage(ctx context.Context, page int) {
	vm.mu.Lock()
	vm.page.Page = page
	vm.page.Validate()
	vm.mu.Unlock()
	vm.Refresh(ctx)
}

// Query installs a filter and page together, then refetches once.
func (vm *ViewModel) Query(ctx context.Context, filter entities.FilterState, page entities.PageRequest) {
	vm.mu.Lock()
	vm.filter = filter
	vm.page = page
	vm.page.Validate()
	vm.mu.Unlock()
	vm.Refresh(ctx)
}

// Refresh re-runs the fetch for the current filter and page.
func (vm *ViewModel) Refresh(ctx context.Context) {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.state = StateLoading
	vm.seq++
	token := vm.seq
	filter := vm.filter
	page := vm.page
	vm.wg.Add(1)
	vm.mu.Unlock()

	go func() {
		defer vm.wg.Done()
		rows, total, err := vm.lister.List(ctx, filter, page)
		vm.apply(token, rows, total, err)
	}()
}

// apply installs a fetch result unless a newer fetch has been started.
func (vm *ViewModel) apply(token uint64, rows []entities.Transaction, total int, err error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if token != vm.seq {
		metrics.SupersededFetchesTotal.Inc()
		vm.logger.Debug("Discarding superseded fetch result",
			zap.Uint64("token", token), zap.Uint64("latest", vm.seq))
		return
	}

	if err != nil {
		metrics.RecordFetch("error")
		fetchErr := apperrors.FetchFailed(err)
		vm.state = StateError
		vm.errMsg = fetchErr.Error()
		vm.logger.Error("Transaction fetch failed", zap.Error(err))
		return
	}

	display := make([]entities.DisplayTransaction, len(rows))
	for i := range rows {
		display[i] = rows[i].ForDisplay()
	}

	metrics.RecordFetch("success")
	vm.state = StateReady
	vm.rows = display
	vm.total = total
	vm.errMsg = ""
}

// StageStatus buffers a status edit for a row.
func (vm *ViewModel) StageStatus(transactionID uuid.UUID, previous, next entities.TransactionStatus) {
	vm.reviews.StageStatus(transactionID, previous, next)
}

// StageNotes buffers review notes for a row.
func (vm *ViewModel) StageNotes(transactionID uuid.UUID, previous entities.TransactionStatus, notes string) {
	vm.reviews.StageNotes(transactionID, previous, notes)
}

// PendingEdit returns the buffered edit for a row, if any.
func (vm *ViewModel) PendingEdit(transactionID uuid.UUID) (entities.ReviewEdit, bool) {
	return vm.reviews.PendingEdit(transactionID)
}

// Discard drops the buffered edit for a row without persisting.
func (vm *ViewModel) Discard(transactionID uuid.UUID) {
	vm.reviews.Discard(transactionID)
}

// SaveReview persists the buffered edit for a row and, on success,
// refetches the current page so the grid reflects the stored status.
func (vm *ViewModel) SaveReview(ctx context.Context, principal entities.Principal, transactionID uuid.UUID) error {
	if err := vm.reviews.SaveReview(ctx, principal, transactionID); err != nil {
		return err
	}
	vm.Refresh(ctx)
	return nil
}

// Snapshot returns a copy of the current state.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	rows := make([]entities.DisplayTransaction, len(vm.rows))
	copy(rows, vm.rows)

	return Snapshot{
		State:      vm.state,
		Rows:       rows,
		TotalCount: vm.total,
		Error:      vm.errMsg,
		Filter:     vm.filter,
		Page:       vm.page,
	}
}

// Wait blocks until all in-flight fetches have been applied or discarded.
func (vm *ViewModel) Wait() {
	vm.wg.Wait()
}

// Close tears the view-model down, guaranteeing unsubscription from live
// updates and discarding any unsaved edits.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	unsubscribe := vm.unsubscribe
	vm.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	vm.wg.Wait()
	vm.reviews.DiscardAll()
}
