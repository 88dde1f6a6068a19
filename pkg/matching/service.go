package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/arena-hq/arena-engine/internal/tracing"
	enginerrors "github.com/arena-hq/arena-engine/pkg/errors"
	"github.com/arena-hq/arena-engine/pkg/models"
)

// Catalog provides a read-only snapshot of active vendors.
type Catalog interface {
	Snapshot(ctx context.Context) ([]models.Vendor, error)
}

// RequestStore is the slice of request persistence the service needs.
type RequestStore interface {
	Get(ctx context.Context, requestID string) (*models.Request, error)
	SaveRequirements(ctx context.Context, requestID string, reqs models.RequirementSet) error
}

// Service orchestrates classification over a request's lifetime. It re-runs
// the classifier whenever the requirement set changes and serves the latest
// classification for proposal-eligibility checks. The contract is that a
// classification returned after an acknowledged requirement update is never
// stale: updates recompute synchronously and write through the cache.
type Service struct {
	log      ectologger.Logger
	catalog  Catalog
	requests RequestStore
	cache    SnapshotCache
}

func NewService(log ectologger.Logger, catalog Catalog, requests RequestStore, cache SnapshotCache) *Service {
	return &Service{
		log:      log,
		catalog:  catalog,
		requests: requests,
		cache:    cache,
	}
}

// UpdateRequirements persists the new requirement set and synchronously
// reclassifies before returning. The returned classification reflects the
// update.
func (s *Service) UpdateRequirements(ctx context.Context, requestID string, reqs models.RequirementSet) (models.ClassifiedVendorList, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.UpdateRequirements")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{"request_id": requestID})

	if err := s.requests.SaveRequirements(ctx, requestID, reqs); err != nil {
		log.WithError(err).Error("Failed to save requirements")
		return models.ClassifiedVendorList{}, err
	}

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return models.ClassifiedVendorList{}, err
	}

	return s.Reclassify(ctx, request)
}

// Reclassify runs the classifier against a fresh catalog snapshot and stores
// the result as the request's latest classification.
func (s *Service) Reclassify(ctx context.Context, request *models.Request) (models.ClassifiedVendorList, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.Reclassify")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{"request_id": request.ID})

	if request.Requirements == nil {
		log.Debug("Request has no parsed requirements yet")
		return models.ClassifiedVendorList{}, nil
	}

	catalog, err := s.catalog.Snapshot(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load vendor catalog snapshot")
		return models.ClassifiedVendorList{}, enginerrors.CatalogUnavailable(err)
	}

	list := Classify(*request.Requirements, catalog, request.PreferredVendorIDs, request.ExcludedVendorIDs)

	if err := s.cache.Set(ctx, request.ID, list); err != nil {
		// The classification itself is correct; a cache write failure only
		// costs the next read a recompute.
		log.WithError(err).Warn("Failed to cache classification snapshot")
	}

	log.WithFields(map[string]any{
		"preferred":     len(list.Preferred),
		"perfect_match": len(list.PerfectMatch),
		"partial_match": len(list.PartialMatch),
		"full_list":     len(list.FullList),
	}).Debug("Classified vendors for request")

	return list, nil
}

// Matches returns the latest classification for a request, recomputing when
// no snapshot is cached.
func (s *Service) Matches(ctx context.Context, requestID string) (models.ClassifiedVendorList, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.Matches")
	defer span.End()

	cached, err := s.cache.Get(ctx, requestID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("Failed to read classification snapshot; recomputing")
	}
	if cached != nil {
		return *cached, nil
	}

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return models.ClassifiedVendorList{}, err
	}

	return s.Reclassify(ctx, request)
}

// EligibleVendor reports whether a vendor may open a draft proposal against
// the request: it must appear in some bucket of the latest classification.
// Preferred vendors are the explicitly invited ones and always qualify.
func (s *Service) EligibleVendor(ctx context.Context, requestID, vendorID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.EligibleVendor")
	defer span.End()

	list, err := s.Matches(ctx, requestID)
	if err != nil {
		return false, err
	}

	return list.Contains(vendorID), nil
}
