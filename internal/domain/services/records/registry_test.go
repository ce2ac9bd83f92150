package records

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/domain/services/review"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
)

// recordingReviewStore captures appended audit rows.
type recordingReviewStore struct {
	mu      sync.Mutex
	reviews []entities.TransactionReview
}

func (s *recordingReviewStore) Insert(_ context.Context, r *entities.TransactionReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, *r)
	return nil
}

func (s *recordingReviewStore) all() []entities.TransactionReview {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.TransactionReview, len(s.reviews))
	copy(out, s.reviews)
	return out
}

// emailResolver assigns each reviewer email a stable user id.
type emailResolver struct {
	mu  sync.Mutex
	ids map[string]uuid.UUID
}

func (r *emailResolver) Resolve(_ context.Context, principal entities.Principal) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ids == nil {
		r.ids = make(map[string]uuid.UUID)
	}
	id, ok := r.ids[principal.Email]
	if !ok {
		id = uuid.New()
		r.ids[principal.Email] = id
	}
	return id, nil
}

func (r *emailResolver) idFor(email string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ids[email]
}

func newTestRegistry(lister *fakeLister, store *recordingReviewStore, resolver *emailResolver) *Registry {
	factory := func() *review.Service {
		return review.NewService(nopTxStore{}, store, resolver, nil, zap.NewNop())
	}
	return NewRegistry(context.Background(), lister, nil, factory, zap.NewNop(), 25)
}

func TestSessionReusedPerPrincipal(t *testing.T) {
	reg := newTestRegistry(&fakeLister{rows: seedRows()}, &recordingReviewStore{}, &emailResolver{})

	alice := entities.Principal{AuthProviderID: uuid.NewString(), Email: "alice@fraudwatch.io"}
	bob := entities.Principal{AuthProviderID: uuid.NewString(), Email: "bob@fraudwatch.io"}

	first, err := reg.Session(alice)
	require.NoError(t, err)
	again, err := reg.Session(alice)
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := reg.Session(bob)
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestSessionRequiresIdentity(t *testing.T) {
	reg := newTestRegistry(&fakeLister{}, &recordingReviewStore{}, &emailResolver{})

	_, err := reg.Session(entities.Principal{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotAuthenticated))
}

func TestEditBuffersAreSessionLocal(t *testing.T) {
	store := &recordingReviewStore{}
	resolver := &emailResolver{}
	reg := newTestRegistry(&fakeLister{rows: seedRows()}, store, resolver)

	alice := entities.Principal{AuthProviderID: uuid.NewString(), Email: "alice@fraudwatch.io"}
	bob := entities.Principal{AuthProviderID: uuid.NewString(), Email: "bob@fraudwatch.io"}

	aliceVM, err := reg.Session(alice)
	require.NoError(t, err)
	bobVM, err := reg.Session(bob)
	require.NoError(t, err)

	txID := uuid.New()
	aliceVM.StageStatus(txID, entities.StatusLegitimate, entities.StatusBlocked)

	// Alice's draft is invisible to Bob's session: his save finds no
	// pending edit and nothing is persisted.
	err = bobVM.SaveReview(context.Background(), bob, txID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoChanges))
	assert.Empty(t, store.all())
	_, pending := bobVM.PendingEdit(txID)
	assert.False(t, pending)

	// Alice's own save lands and is attributed to Alice.
	require.NoError(t, aliceVM.SaveReview(context.Background(), alice, txID))
	aliceVM.Wait()

	saved := store.all()
	require.Len(t, saved, 1)
	assert.Equal(t, resolver.idFor("alice@fraudwatch.io"), saved[0].ReviewedBy)
	assert.Equal(t, entities.StatusBlocked, saved[0].NewStatus)
}

func TestCloseDiscardsSessionEdits(t *testing.T) {
	reg := newTestRegistry(&fakeLister{rows: seedRows()}, &recordingReviewStore{}, &emailResolver{})

	alice := entities.Principal{AuthProviderID: uuid.NewString(), Email: "alice@fraudwatch.io"}

	vm, err := reg.Session(alice)
	require.NoError(t, err)

	txID := uuid.New()
	vm.StageStatus(txID, entities.StatusLegitimate, entities.StatusFlagged)
	reg.Close(alice)

	fresh, err := reg.Session(alice)
	require.NoError(t, err)
	assert.NotSame(t, vm, fresh)
	_, pending := fresh.PendingEdit(txID)
	assert.False(t, pending)
}

func TestCloseAllTearsDownSessions(t *testing.T) {
	lister := &fakeLister{rows: seedRows()}
	reg := newTestRegistry(lister, &recordingReviewStore{}, &emailResolver{})

	alice := entities.Principal{AuthProviderID: uuid.NewString(), Email: "alice@fraudwatch.io"}
	vm, err := reg.Session(alice)
	require.NoError(t, err)

	reg.CloseAll()

	// The closed view-model no longer fetches.
	calls := lister.callCount()
	vm.Refresh(context.Background())
	vm.Wait()
	assert.Equal(t, calls, lister.callCount())
}
