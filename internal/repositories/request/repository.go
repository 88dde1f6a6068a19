package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"github.com/arena-hq/arena-engine/internal/database"
	"github.com/arena-hq/arena-engine/internal/tracing"
	enginerrors "github.com/arena-hq/arena-engine/pkg/errors"
	"github.com/arena-hq/arena-engine/pkg/models"
)

const tableName = "requests"

// Repository persists buyer requests along with their parsed requirement
// sets and vendor preference lists.
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

func (r *Repository) Create(ctx context.Context, buyerID string, req models.CreateRequestRequest) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	request := &models.Request{
		ID:                 uuid.NewString(),
		BuyerID:            buyerID,
		RawRequirements:    req.RawRequirements,
		Status:             models.RequestStatusActive,
		PreferredVendorIDs: req.PreferredVendorIDs,
		ExcludedVendorIDs:  req.ExcludedVendorIDs,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	row := fromModel(request)

	builder := sqlbuilder.PostgreSQL.NewInsertBuilder()
	builder.InsertInto(tableName)
	builder.Cols("id", "buyer_id", "raw_requirements", "requirements", "status", "preferred_vendor_ids", "excluded_vendor_ids", "created_at", "updated_at")
	builder.Values(row.ID, row.BuyerID, row.RawRequirements, row.Requirements, row.Status, row.PreferredVendorIDs, row.ExcludedVendorIDs, row.CreatedAt, row.UpdatedAt)

	query, args := builder.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("buyerId", buyerID).Errorf("failed to insert request")
		return nil, enginerrors.Storage(err)
	}

	return request, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Get")
	defer span.End()

	builder := sqlbuilder.PostgreSQL.NewSelectBuilder()
	builder.Select(requestColumns)
	builder.From(tableName)
	builder.Where(builder.Equal("id", id))

	query, args := builder.Build()

	var row requestRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("request %s: %w", id, enginerrors.ErrNotFound)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("requestId", id).Errorf("failed to get request")
		return nil, enginerrors.Storage(err)
	}

	return row.toModel(), nil
}

// SaveRequirements replaces the parsed requirement set for a request.
func (r *Repository) SaveRequirements(ctx context.Context, id string, requirements models.RequirementSet) error {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.SaveRequirements")
	defer span.End()

	builder := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	builder.Update(tableName)
	builder.Set(
		builder.Assign("requirements", database.JSONB[*models.RequirementSet]{Data: &requirements}),
		builder.Assign("updated_at", time.Now().UTC()),
	)
	builder.Where(builder.Equal("id", id))

	query, args := builder.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("requestId", id).Errorf("failed to save requirements")
		return enginerrors.Storage(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return enginerrors.Storage(err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s: %w", id, enginerrors.ErrNotFound)
	}

	return nil
}

// SetStatus advances the request through its evaluation flow.
func (r *Repository) SetStatus(ctx context.Context, id string, status models.RequestStatus) error {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.SetStatus")
	defer span.End()

	builder := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	builder.Update(tableName)
	builder.Set(
		builder.Assign("status", string(status)),
		builder.Assign("updated_at", time.Now().UTC()),
	)
	builder.Where(builder.Equal("id", id))

	query, args := builder.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("requestId", id).Errorf("failed to update request status")
		return enginerrors.Storage(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return enginerrors.Storage(err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s: %w", id, enginerrors.ErrNotFound)
	}

	return nil
}
