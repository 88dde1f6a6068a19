package models

import "time"

// RequestStatus tracks a buyer request through its evaluation flow.
type RequestStatus string

const (
	RequestStatusDraft     RequestStatus = "draft"
	RequestStatusActive    RequestStatus = "active"
	RequestStatusMatched   RequestStatus = "matched"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Request is a buyer's software evaluation request. RawRequirements is the
// buyer's free text; Requirements is the structured set returned by the
// external parsing service. Preferred and excluded vendor ids override
// classification bucket placement.
type Request struct {
	ID                 string          `json:"id" db:"id"`
	BuyerID            string          `json:"buyer_id" db:"buyer_id"`
	RawRequirements    string          `json:"raw_requirements" db:"raw_requirements"`
	Requirements       *RequirementSet `json:"requirements,omitempty" db:"-"`
	Status             RequestStatus   `json:"status" db:"status"`
	PreferredVendorIDs []string        `json:"preferred_vendor_ids" db:"-"`
	ExcludedVendorIDs  []string        `json:"excluded_vendor_ids" db:"-"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateRequestRequest is the request body for opening a buyer request.
type CreateRequestRequest struct {
	RawRequirements    string   `json:"raw_requirements" validate:"required"`
	PreferredVendorIDs []string `json:"preferred_vendor_ids"`
	ExcludedVendorIDs  []string `json:"excluded_vendor_ids"`
}

// UpdateRequirementsRequest carries the re-parsed requirement set for a
// request. Classification is recomputed synchronously on update.
type UpdateRequirementsRequest struct {
	Requirements RequirementSet `json:"requirements" validate:"required"`
}
