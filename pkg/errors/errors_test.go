package errors

import (
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionErrorUnwraps(t *testing.T) {
	err := NewTransitionError(ErrIllegalTransition, "p1", "accepted", "submitted")

	assert.True(t, Is(err, ErrIllegalTransition))
	assert.Contains(t, err.Error(), "p1")
	assert.Contains(t, err.Error(), "accepted -> submitted")
}

func TestStorageWrapsCause(t *testing.T) {
	cause := errors.New("pq: connection reset")
	err := Storage(cause)

	assert.True(t, Is(err, ErrStorage))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, Storage(nil))
}

func TestToHTTPErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrMissingReason, http.StatusBadRequest},
		{ErrIllegalTransition, http.StatusUnprocessableEntity},
		{ErrConflict, http.StatusConflict},
		{ErrAlreadyAccepted, http.StatusConflict},
		{ErrNotFound, http.StatusNotFound},
		{ErrCatalogUnavailable, http.StatusServiceUnavailable},
		{ErrStorage, http.StatusInternalServerError},
		{NewTransitionError(ErrConflict, "p1", "submitted", "accepted"), http.StatusConflict},
	}

	for _, tc := range cases {
		mapped := ToHTTPError(tc.err)
		require.True(t, httperror.IsHTTPError(mapped), "expected HTTPError for %v", tc.err)
		assert.Equal(t, tc.status, httperror.GetStatusCode(mapped))
	}
}

func TestToHTTPErrorPassesUnknownThrough(t *testing.T) {
	unknown := errors.New("something else")
	assert.Equal(t, unknown, ToHTTPError(unknown))
	assert.Nil(t, ToHTTPError(nil))
}
