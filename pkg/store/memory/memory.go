// Package memory provides the reference in-memory implementation of the
// proposal store. It serializes work per request with a mutex and stages
// writes until the transaction function returns, which makes it a faithful
// stand-in for the Postgres repository in lifecycle and concurrency tests.
package memory

import (
	"context"
	"sync"

	enginerrors "github.com/arena-hq/arena-engine/pkg/errors"
	"github.com/arena-hq/arena-engine/pkg/lifecycle"
	"github.com/arena-hq/arena-engine/pkg/models"
)

// Store keeps proposals in process memory.
type Store struct {
	mu        sync.Mutex
	proposals map[string]*models.Proposal
	byRequest map[string][]string
	reqLocks  map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		proposals: make(map[string]*models.Proposal),
		byRequest: make(map[string][]string),
		reqLocks:  make(map[string]*sync.Mutex),
	}
}

func (s *Store) Create(_ context.Context, proposal *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proposals[proposal.ID]; exists {
		return enginerrors.Storage(errDuplicate(proposal.ID))
	}

	s.proposals[proposal.ID] = proposal.Clone()
	s.byRequest[proposal.RequestID] = append(s.byRequest[proposal.RequestID], proposal.ID)
	return nil
}

func (s *Store) Get(_ context.Context, proposalID string) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[proposalID]
	if !ok {
		return nil, enginerrors.ErrNotFound
	}
	return proposal.Clone(), nil
}

func (s *Store) ListByRequest(_ context.Context, requestID string) ([]*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cloneRequestProposals(requestID), nil
}

// WithTransaction locks the request's proposal set, runs fn against a staged
// view, and applies the staged writes only when fn returns nil. A failed fn
// leaves the canonical state untouched.
func (s *Store) WithTransaction(ctx context.Context, requestID string, fn func(ctx context.Context, tx lifecycle.Tx) error) error {
	lock := s.requestLock(requestID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{
		store:  s,
		staged: make(map[string]*models.Proposal),
		dirty:  make(map[string]*models.Proposal),
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, proposal := range tx.dirty {
		s.proposals[id] = proposal.Clone()
	}
	return nil
}

func (s *Store) requestLock(requestID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.reqLocks[requestID]
	if !ok {
		lock = &sync.Mutex{}
		s.reqLocks[requestID] = lock
	}
	return lock
}

func (s *Store) cloneRequestProposals(requestID string) []*models.Proposal {
	ids := s.byRequest[requestID]
	out := make([]*models.Proposal, 0, len(ids))
	for _, id := range ids {
		if proposal, ok := s.proposals[id]; ok {
			out = append(out, proposal.Clone())
		}
	}
	return out
}

// memTx is the staged view handed to the transaction function. Reads hand
// out stable staged copies so repeated Gets observe in-transaction writes.
type memTx struct {
	store  *Store
	staged map[string]*models.Proposal
	dirty  map[string]*models.Proposal
}

func (t *memTx) Get(_ context.Context, proposalID string) (*models.Proposal, error) {
	if proposal, ok := t.staged[proposalID]; ok {
		return proposal, nil
	}

	t.store.mu.Lock()
	proposal, ok := t.store.proposals[proposalID]
	t.store.mu.Unlock()
	if !ok {
		return nil, enginerrors.ErrNotFound
	}

	clone := proposal.Clone()
	t.staged[proposalID] = clone
	return clone, nil
}

func (t *memTx) ListByRequest(ctx context.Context, requestID string) ([]*models.Proposal, error) {
	t.store.mu.Lock()
	ids := append([]string(nil), t.store.byRequest[requestID]...)
	t.store.mu.Unlock()

	out := make([]*models.Proposal, 0, len(ids))
	for _, id := range ids {
		proposal, err := t.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, proposal)
	}
	return out, nil
}

func (t *memTx) Save(_ context.Context, proposal *models.Proposal, expectedVersion int) error {
	t.store.mu.Lock()
	stored, ok := t.store.proposals[proposal.ID]
	t.store.mu.Unlock()
	if !ok {
		return enginerrors.ErrNotFound
	}

	if stored.Version != expectedVersion {
		return enginerrors.ErrConflict
	}

	t.staged[proposal.ID] = proposal
	t.dirty[proposal.ID] = proposal
	return nil
}

type errDuplicate string

func (e errDuplicate) Error() string {
	return "proposal " + string(e) + " already exists"
}
