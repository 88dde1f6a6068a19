package lifecycle

import (
	"context"

	"github.com/arena-hq/arena-engine/pkg/models"
)

// Store is the transactional persistence boundary for proposals. Any ACID
// store works as long as WithTransaction serializes concurrent work on the
// same request's proposal set (row locking or an equivalent per-request
// mutex).
//
// Implementations map their failures to the engine taxonomy: ErrNotFound for
// missing rows, ErrConflict for version mismatches on Save, ErrStorage for
// anything else.
type Store interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	Get(ctx context.Context, proposalID string) (*models.Proposal, error)
	ListByRequest(ctx context.Context, requestID string) ([]*models.Proposal, error)

	// WithTransaction runs fn inside one atomic unit scoped to the request's
	// proposal set. Reads through tx see a consistent, locked view; writes
	// become visible only when fn returns nil and the commit succeeds.
	WithTransaction(ctx context.Context, requestID string, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	Get(ctx context.Context, proposalID string) (*models.Proposal, error)
	ListByRequest(ctx context.Context, requestID string) ([]*models.Proposal, error)

	// Save persists a mutated proposal. expectedVersion is the version the
	// caller read before mutating; Save fails with ErrConflict when the
	// stored row no longer carries it.
	Save(ctx context.Context, proposal *models.Proposal, expectedVersion int) error
}
