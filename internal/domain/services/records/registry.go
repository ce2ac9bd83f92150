package records

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/domain/services/review"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
)

// ReviewFactory builds the review service backing one session's edit
// buffer. Edit buffers are never shared across sessions, so every
// session gets its own instance.
type ReviewFactory func() *review.Service

// Registry hands out one ViewModel per authenticated principal. A
// view-model, and with it the edit buffer, lives for the session: it is
// created on first use, subscribed to live updates, and torn down by
// Close or CloseAll.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*ViewModel

	ctx        context.Context
	lister     Lister
	subscriber Subscriber
	newReviews ReviewFactory
	logger     *zap.Logger
	pageSize   int
}

// NewRegistry creates a session registry. ctx bounds the lifetime of
// subscription-driven refetches, so it should outlive any one request.
func NewRegistry(ctx context.Context, lister Lister, subscriber Subscriber, newReviews ReviewFactory, logger *zap.Logger, pageSize int) *Registry {
	return &Registry{
		sessions:   make(map[string]*ViewModel),
		ctx:        ctx,
		lister:     lister,
		subscriber: subscriber,
		newReviews: newReviews,
		logger:     logger,
		pageSize:   pageSize,
	}
}

func sessionKey(principal entities.Principal) string {
	if principal.AuthProviderID != "" {
		return principal.AuthProviderID
	}
	return principal.Email
}

// Session returns the principal's view-model, creating and starting it
// on first use.
func (r *Registry) Session(principal entities.Principal) (*ViewModel, error) {
	key := sessionKey(principal)
	if key == "" {
		return nil, apperrors.NotAuthenticated("no session identity")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if vm, ok := r.sessions[key]; ok {
		return vm, nil
	}

	vm := NewViewModel(r.lister, r.newReviews(), r.subscriber, r.logger, r.pageSize)
	if err := vm.Start(r.ctx); err != nil {
		return nil, err
	}
	r.sessions[key] = vm

	r.logger.Debug("Session started", zap.String("session", key))
	return vm, nil
}

// Close tears down the principal's session, unsubscribing from live
// updates and discarding unsaved edits.
func (r *Registry) Close(principal entities.Principal) {
	key := sessionKey(principal)

	r.mu.Lock()
	vm, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if ok {
		vm.Close()
		r.logger.Debug("Session closed", zap.String("session", key))
	}
}

// CloseAll tears down every live session. Called on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*ViewModel)
	r.mu.Unlock()

	for _, vm := range sessions {
		vm.Close()
	}
}
