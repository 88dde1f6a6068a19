package proposal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"github.com/arena-hq/arena-engine/internal/database"
	"github.com/arena-hq/arena-engine/internal/tracing"
	enginerrors "github.com/arena-hq/arena-engine/pkg/errors"
	"github.com/arena-hq/arena-engine/pkg/lifecycle"
	"github.com/arena-hq/arena-engine/pkg/models"
)

const tableName = "proposals"

// Repository persists proposals in postgres and implements lifecycle.Store.
// WithTransaction serializes competing transitions for a request by taking
// row locks (SELECT ... FOR UPDATE) on the request's proposals.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a draft inside its own transaction, locking the parent
// requests row first so the insert serializes against any in-flight
// transition on the same request.
func (r *Repository) Create(ctx context.Context, proposal *models.Proposal) error {
	ctx, span := tracing.StartSpan(ctx, "proposal.Repository.Create")
	defer span.End()

	txCtx, tx, err := database.GetTx(ctx, r.logger, r.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return enginerrors.Storage(err)
	}

	if err := lockRequestRow(txCtx, tx, proposal.RequestID); err != nil {
		_ = tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithField("requestId", proposal.RequestID).Errorf("failed to lock request")
		return err
	}

	row := fromModel(proposal)

	builder := sqlbuilder.PostgreSQL.NewInsertBuilder()
	builder.InsertInto(tableName)
	builder.Cols("id", "request_id", "vendor_id", "status", "version", "terminal_reason", "audit_trail", "created_at", "updated_at")
	builder.Values(row.ID, row.RequestID, row.VendorID, row.Status, row.Version, row.TerminalReason, row.AuditTrail, row.CreatedAt, row.UpdatedAt)

	query, args := builder.Build()

	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		_ = tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithField("proposalId", proposal.ID).Errorf("failed to insert proposal")
		return enginerrors.Storage(err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("proposalId", proposal.ID).Errorf("failed to commit proposal insert")
		return enginerrors.Storage(err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "proposal.Repository.Get")
	defer span.End()

	builder := sqlbuilder.PostgreSQL.NewSelectBuilder()
	builder.Select(proposalColumns)
	builder.From(tableName)
	builder.Where(builder.Equal("id", id))

	query, args := builder.Build()

	var row proposalRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("proposal %s: %w", id, enginerrors.ErrNotFound)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("proposalId", id).Errorf("failed to get proposal")
		return nil, enginerrors.Storage(err)
	}

	return row.toModel(), nil
}

func (r *Repository) ListByRequest(ctx context.Context, requestID string) ([]*models.Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "proposal.Repository.ListByRequest")
	defer span.End()

	builder := sqlbuilder.PostgreSQL.NewSelectBuilder()
	builder.Select(proposalColumns)
	builder.From(tableName)
	builder.Where(builder.Equal("request_id", requestID))
	builder.OrderBy("created_at", "id")

	query, args := builder.Build()

	var rows []proposalRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("requestId", requestID).Errorf("failed to list proposals")
		return nil, enginerrors.Storage(err)
	}

	proposals := make([]*models.Proposal, 0, len(rows))
	for _, row := range rows {
		proposals = append(proposals, row.toModel())
	}

	return proposals, nil
}

// WithTransaction runs fn inside a database transaction scoped to requestID.
// The view it hands fn locks rows as it reads them, so two callers racing on
// the same request serialize at the database rather than in process.
func (r *Repository) WithTransaction(ctx context.Context, requestID string, fn func(ctx context.Context, tx lifecycle.Tx) error) error {
	ctx, span := tracing.StartSpan(ctx, "proposal.Repository.WithTransaction")
	defer span.End()

	txCtx, tx, err := database.GetTx(ctx, r.logger, r.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return enginerrors.Storage(err)
	}

	view := &txView{
		tx:        tx,
		requestID: requestID,
		logger:    r.logger,
	}

	// Lock the request's proposal rows up front so concurrent transitions
	// on the same request queue behind this transaction.
	if err := view.lockRequest(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := fn(txCtx, view); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("requestId", requestID).Errorf("failed to commit proposal transaction")
		return enginerrors.Storage(err)
	}

	return nil
}

// txView implements lifecycle.Tx over an open database transaction.
type txView struct {
	tx        database.Tx
	requestID string
	logger    ectologger.Logger
}

// lockRequest takes the parent requests row before the proposal rows.
// Locking only the proposals would leave a phantom window under read
// committed: a draft inserted while an acceptance runs would hold no lock
// and escape supersession. Create contends on the same requests row, so
// inserts and transitions for one request fully serialize.
func (v *txView) lockRequest(ctx context.Context) error {
	if err := lockRequestRow(ctx, v.tx, v.requestID); err != nil {
		v.logger.WithContext(ctx).WithError(err).WithField("requestId", v.requestID).Errorf("failed to lock request")
		return err
	}

	query := `SELECT id FROM proposals WHERE request_id = $1 ORDER BY id FOR UPDATE`

	var ids []string
	if err := v.tx.SelectContext(ctx, &ids, query, v.requestID); err != nil {
		v.logger.WithContext(ctx).WithError(err).WithField("requestId", v.requestID).Errorf("failed to lock proposals")
		return enginerrors.Storage(err)
	}
	return nil
}

func lockRequestRow(ctx context.Context, tx database.Tx, requestID string) error {
	var id string
	err := tx.GetContext(ctx, &id, `SELECT id FROM requests WHERE id = $1 FOR UPDATE`, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("request %s: %w", requestID, enginerrors.ErrNotFound)
		}
		return enginerrors.Storage(err)
	}
	return nil
}

func (v *txView) Get(ctx context.Context, id string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1 FOR UPDATE`

	var row proposalRow
	err := v.tx.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("proposal %s: %w", id, enginerrors.ErrNotFound)
		}
		v.logger.WithContext(ctx).WithError(err).WithField("proposalId", id).Errorf("failed to get proposal in transaction")
		return nil, enginerrors.Storage(err)
	}

	return row.toModel(), nil
}

func (v *txView) ListByRequest(ctx context.Context, requestID string) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE request_id = $1 ORDER BY created_at, id FOR UPDATE`

	var rows []proposalRow
	err := v.tx.SelectContext(ctx, &rows, query, requestID)
	if err != nil {
		v.logger.WithContext(ctx).WithError(err).WithField("requestId", requestID).Errorf("failed to list proposals in transaction")
		return nil, enginerrors.Storage(err)
	}

	proposals := make([]*models.Proposal, 0, len(rows))
	for _, row := range rows {
		proposals = append(proposals, row.toModel())
	}

	return proposals, nil
}

// Save writes the proposal back guarded by expectedVersion. Zero rows
// affected means another writer got there first.
func (v *txView) Save(ctx context.Context, proposal *models.Proposal, expectedVersion int) error {
	row := fromModel(proposal)

	query := `UPDATE proposals
		SET status = $1, version = $2, terminal_reason = $3, audit_trail = $4, updated_at = $5
		WHERE id = $6 AND version = $7`

	result, err := v.tx.ExecContext(ctx, query,
		row.Status, row.Version, row.TerminalReason, row.AuditTrail, row.UpdatedAt, row.ID, expectedVersion)
	if err != nil {
		v.logger.WithContext(ctx).WithError(err).WithField("proposalId", proposal.ID).Errorf("failed to update proposal")
		return enginerrors.Storage(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return enginerrors.Storage(err)
	}
	if affected == 0 {
		return fmt.Errorf("proposal %s at version %d: %w", proposal.ID, expectedVersion, enginerrors.ErrConflict)
	}

	return nil
}
