// Package errors defines the engine's error taxonomy. Callers distinguish
// retryable conditions (ErrConflict, ErrStorage) from caller errors with
// errors.Is; the HTTP layer maps them through ToHTTPError.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

var (
	// ErrIllegalTransition means the requested edge is not in the state
	// table. Client/programming error; never retried.
	ErrIllegalTransition = errors.New("illegal proposal transition")

	// ErrConflict means the expected version did not match the stored
	// version. The caller must re-read and may retry.
	ErrConflict = errors.New("proposal version conflict")

	// ErrAlreadyAccepted means another proposal for the same request has
	// already been accepted. Terminal for this actor's intent.
	ErrAlreadyAccepted = errors.New("request already has an accepted proposal")

	// ErrMissingReason means a rejection was attempted without a reason.
	ErrMissingReason = errors.New("rejection requires a non-empty reason")

	// ErrStorage wraps an underlying transaction or commit failure. Safe to
	// retry the whole operation; no events were emitted.
	ErrStorage = errors.New("proposal storage failure")

	// ErrCatalogUnavailable means a vendor catalog snapshot could not be
	// obtained. No partial classification is substituted.
	ErrCatalogUnavailable = errors.New("vendor catalog unavailable")

	// ErrNotFound means the referenced aggregate does not exist.
	ErrNotFound = errors.New("not found")
)

// TransitionError decorates a taxonomy error with the transition that failed.
type TransitionError struct {
	Err        error
	ProposalID string
	From       string
	To         string
}

func (e *TransitionError) Error() string {
	if e.From != "" || e.To != "" {
		return fmt.Sprintf("proposal %s: %s -> %s: %v", e.ProposalID, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("proposal %s: %v", e.ProposalID, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// NewTransitionError wraps a taxonomy error with transition context.
func NewTransitionError(err error, proposalID, from, to string) *TransitionError {
	return &TransitionError{Err: err, ProposalID: proposalID, From: from, To: to}
}

// Storage wraps an arbitrary persistence error into ErrStorage, preserving
// the cause for logs.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// CatalogUnavailable wraps a catalog read failure.
func CatalogUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
}

// ToHTTPError maps a taxonomy error to the status the API should return.
// Unknown errors pass through untouched so the error middleware applies its
// default handling.
func ToHTTPError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrMissingReason):
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrIllegalTransition):
		return httperror.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyAccepted):
		return httperror.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return httperror.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCatalogUnavailable):
		return httperror.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrStorage):
		return httperror.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return err
}

// Is re-exports errors.Is so callers don't need both packages.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
