package models

import "time"

// Vendor status values
const (
	VendorStatusPending   = "pending"
	VendorStatusActive    = "active"
	VendorStatusSuspended = "suspended"
)

// Vendor represents a catalog entry for a software vendor. The catalog is
// read-only from the engine's perspective; classification never mutates it.
type Vendor struct {
	ID          string            `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	Website     string            `json:"website" db:"website"`
	Description string            `json:"description" db:"description"`
	Category    string            `json:"category" db:"category"`
	Attributes  map[string]string `json:"attributes" db:"-"`
	Status      string            `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the vendor can receive matches and proposals.
func (v Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}

// CreateVendorRequest is the request for registering a vendor.
type CreateVendorRequest struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Website     string            `json:"website" validate:"required,max=255"`
	Description string            `json:"description" validate:"max=1000"`
	Category    string            `json:"category" validate:"required"`
	Attributes  map[string]string `json:"attributes"`
}

// RankedVendor is a vendor's position within a classification bucket along
// with the filter counts that produced it.
type RankedVendor struct {
	VendorID        string  `json:"vendor_id"`
	Name            string  `json:"name"`
	TrueFilterHits  int     `json:"true_filter_hits"`
	TrueFilterTotal int     `json:"true_filter_total"`
	Score           float64 `json:"score"`
}

// VendorBucket identifies which classification bucket a vendor landed in.
type VendorBucket string

const (
	BucketPreferred    VendorBucket = "preferred"
	BucketPerfectMatch VendorBucket = "perfect_match"
	BucketPartialMatch VendorBucket = "partial_match"
	BucketFullList     VendorBucket = "full_list"
)

// ClassifiedVendorList holds the four disjoint, ordered buckets produced by a
// single matching run. A vendor appears in at most one bucket.
type ClassifiedVendorList struct {
	Preferred    []RankedVendor `json:"preferred"`
	PerfectMatch []RankedVendor `json:"perfect_match"`
	PartialMatch []RankedVendor `json:"partial_match"`
	FullList     []RankedVendor `json:"full_list"`
}

// Bucket returns the bucket a vendor landed in, if any.
func (l ClassifiedVendorList) Bucket(vendorID string) (VendorBucket, bool) {
	buckets := []struct {
		name    VendorBucket
		vendors []RankedVendor
	}{
		{BucketPreferred, l.Preferred},
		{BucketPerfectMatch, l.PerfectMatch},
		{BucketPartialMatch, l.PartialMatch},
		{BucketFullList, l.FullList},
	}
	for _, b := range buckets {
		for _, rv := range b.vendors {
			if rv.VendorID == vendorID {
				return b.name, true
			}
		}
	}
	return "", false
}

// Contains reports whether the vendor appears in any bucket.
func (l ClassifiedVendorList) Contains(vendorID string) bool {
	_, ok := l.Bucket(vendorID)
	return ok
}

// Total returns the number of vendors across all buckets.
func (l ClassifiedVendorList) Total() int {
	return len(l.Preferred) + len(l.PerfectMatch) + len(l.PartialMatch) + len(l.FullList)
}
