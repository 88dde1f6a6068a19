package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginerrors "github.com/arena-hq/arena-engine/pkg/errors"
	"github.com/arena-hq/arena-engine/pkg/lifecycle"
	"github.com/arena-hq/arena-engine/pkg/models"
)

func draft(id, requestID string) *models.Proposal {
	now := time.Now().UTC()
	return &models.Proposal{
		ID:        id,
		RequestID: requestID,
		VendorID:  "vendor-" + id,
		Status:    models.ProposalStatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	_, err = store.Get(ctx, "missing")
	assert.True(t, enginerrors.Is(err, enginerrors.ErrNotFound))
}

func TestCreateDuplicateFails(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))
	err := store.Create(ctx, draft("p1", "req-1"))
	assert.True(t, enginerrors.Is(err, enginerrors.ErrStorage))
}

func TestGetReturnsACopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	got.Status = models.ProposalStatusAccepted
	got.AuditTrail = append(got.AuditTrail, models.AuditEntry{Actor: "mutant"})

	fresh, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusDraft, fresh.Status)
	assert.Empty(t, fresh.AuditTrail)
}

func TestListByRequestPreservesInsertionOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))
	require.NoError(t, store.Create(ctx, draft("p2", "req-1")))
	require.NoError(t, store.Create(ctx, draft("p3", "req-2")))

	proposals, err := store.ListByRequest(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, "p1", proposals[0].ID)
	assert.Equal(t, "p2", proposals[1].ID)
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))

	err := store.WithTransaction(ctx, "req-1", func(ctx context.Context, tx lifecycle.Tx) error {
		p, err := tx.Get(ctx, "p1")
		if err != nil {
			return err
		}
		p.Status = models.ProposalStatusSubmitted
		p.Version = 2
		return tx.Save(ctx, p, 1)
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusSubmitted, got.Status)
	assert.Equal(t, 2, got.Version)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, "req-1", func(ctx context.Context, tx lifecycle.Tx) error {
		p, err := tx.Get(ctx, "p1")
		if err != nil {
			return err
		}
		p.Status = models.ProposalStatusSubmitted
		p.Version = 2
		if err := tx.Save(ctx, p, 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusDraft, got.Status)
	assert.Equal(t, 1, got.Version)
}

func TestTransactionReadsSeeStagedWrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))

	err := store.WithTransaction(ctx, "req-1", func(ctx context.Context, tx lifecycle.Tx) error {
		p, err := tx.Get(ctx, "p1")
		if err != nil {
			return err
		}
		p.Status = models.ProposalStatusSubmitted

		again, err := tx.Get(ctx, "p1")
		if err != nil {
			return err
		}
		assert.Equal(t, models.ProposalStatusSubmitted, again.Status)

		listed, err := tx.ListByRequest(ctx, "req-1")
		if err != nil {
			return err
		}
		require.Len(t, listed, 1)
		assert.Equal(t, models.ProposalStatusSubmitted, listed[0].Status)
		return nil
	})
	require.NoError(t, err)
}

func TestSaveVersionConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, draft("p1", "req-1")))

	err := store.WithTransaction(ctx, "req-1", func(ctx context.Context, tx lifecycle.Tx) error {
		p, err := tx.Get(ctx, "p1")
		if err != nil {
			return err
		}
		return tx.Save(ctx, p, 99)
	})
	assert.True(t, enginerrors.Is(err, enginerrors.ErrConflict))
}

func TestSaveUnknownProposal(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithTransaction(ctx, "req-1", func(ctx context.Context, tx lifecycle.Tx) error {
		return tx.Save(ctx, draft("ghost", "req-1"), 1)
	})
	assert.True(t, enginerrors.Is(err, enginerrors.ErrNotFound))
}
