package request

import (
	"time"

	"github.com/arena-hq/arena-engine/internal/database"
	"github.com/arena-hq/arena-engine/pkg/models"
)

type requestRow struct {
	ID                 string                                 `db:"id"`
	BuyerID            string                                 `db:"buyer_id"`
	RawRequirements    string                                 `db:"raw_requirements"`
	Requirements       database.JSONB[*models.RequirementSet] `db:"requirements"`
	Status             string                                 `db:"status"`
	PreferredVendorIDs database.JSONB[[]string]               `db:"preferred_vendor_ids"`
	ExcludedVendorIDs  database.JSONB[[]string]               `db:"excluded_vendor_ids"`
	CreatedAt          time.Time                              `db:"created_at"`
	UpdatedAt          time.Time                              `db:"updated_at"`
}

const requestColumns = "id, buyer_id, raw_requirements, requirements, status, preferred_vendor_ids, excluded_vendor_ids, created_at, updated_at"

func (r requestRow) toModel() *models.Request {
	return &models.Request{
		ID:                 r.ID,
		BuyerID:            r.BuyerID,
		RawRequirements:    r.RawRequirements,
		Requirements:       r.Requirements.GetValue(),
		Status:             models.RequestStatus(r.Status),
		PreferredVendorIDs: r.PreferredVendorIDs.GetValue(),
		ExcludedVendorIDs:  r.ExcludedVendorIDs.GetValue(),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func fromModel(req *models.Request) requestRow {
	return requestRow{
		ID:                 req.ID,
		BuyerID:            req.BuyerID,
		RawRequirements:    req.RawRequirements,
		Requirements:       database.JSONB[*models.RequirementSet]{Data: req.Requirements},
		Status:             string(req.Status),
		PreferredVendorIDs: database.JSONB[[]string]{Data: req.PreferredVendorIDs},
		ExcludedVendorIDs:  database.JSONB[[]string]{Data: req.ExcludedVendorIDs},
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
	}
}
