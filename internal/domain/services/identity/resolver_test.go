package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
)

type fakeUserStore struct {
	byEmail   map[string]*entities.User
	createErr error
	created   []*entities.User
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, errors.New("user not found")
}

func (f *fakeUserStore) Create(_ context.Context, user *entities.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, user)
	return nil
}

func TestResolveExistingUser(t *testing.T) {
	existing := &entities.User{ID: uuid.New(), Email: "analyst@fraudwatch.io"}
	store := &fakeUserStore{byEmail: map[string]*entities.User{existing.Email: existing}}
	resolver := NewResolver(store, zap.NewNop())

	id, err := resolver.Resolve(context.Background(), entities.Principal{Email: existing.Email})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, id)
	assert.Empty(t, store.created, "no row is created when the lookup hits")
}

func TestResolveCreatesMissingUser(t *testing.T) {
	store := &fakeUserStore{}
	resolver := NewResolver(store, zap.NewNop())

	authID := uuid.New()
	principal := entities.Principal{
		AuthProviderID: authID.String(),
		Email:          "new@fraudwatch.io",
		FirstName:      "Neema",
		LastName:       "Joseph",
	}

	id, err := resolver.Resolve(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, authID, id, "auth provider UUIDs are reused as the row id")

	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.Equal(t, "new@fraudwatch.io", created.Email)
	assert.Equal(t, "analyst", created.Role)
	assert.True(t, created.IsActive)
}

func TestResolveEmptyEmail(t *testing.T) {
	resolver := NewResolver(&fakeUserStore{}, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), entities.Principal{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotAuthenticated))
}

func TestResolveBothPathsFail(t *testing.T) {
	store := &fakeUserStore{createErr: errors.New("insert failed")}
	resolver := NewResolver(store, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), entities.Principal{Email: "new@fraudwatch.io"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIdentityResolution))
}
