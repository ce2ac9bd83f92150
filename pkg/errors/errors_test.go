package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NoChanges("abc").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, NotAuthenticated("no identity").StatusCode)
	assert.Equal(t, http.StatusBadGateway, FetchFailed(errors.New("boom")).StatusCode)
	assert.Equal(t, http.StatusBadGateway, PersistenceFailed(errors.New("boom"), "write failed").StatusCode)
	assert.Equal(t, http.StatusBadGateway, IdentityResolution(errors.New("boom")).StatusCode)
	assert.Equal(t, http.StatusNotFound, NotFound("transaction").StatusCode)
}

func TestWrappingPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := FetchFailed(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "FETCH_FAILED")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNoChanges, CodeOf(NoChanges("abc")))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))

	wrapped := fmt.Errorf("saving: %w", NoChanges("abc"))
	assert.Equal(t, ErrCodeNoChanges, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeNoChanges))
}

func TestNoChangesDetails(t *testing.T) {
	err := NoChanges("tx-123")
	assert.Equal(t, "tx-123", err.Details["transaction_id"])
}
