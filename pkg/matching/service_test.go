package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginerrors "github.com/arena-hq/arena-engine/pkg/errors"
	"github.com/arena-hq/arena-engine/pkg/models"
)

type fakeCatalog struct {
	vendors []models.Vendor
	err     error
	calls   int
}

func (f *fakeCatalog) Snapshot(_ context.Context) ([]models.Vendor, error) {
	f.calls++
	return f.vendors, f.err
}

type fakeRequestStore struct {
	requests map[string]*models.Request
}

func (f *fakeRequestStore) Get(_ context.Context, requestID string) (*models.Request, error) {
	request, ok := f.requests[requestID]
	if !ok {
		return nil, enginerrors.ErrNotFound
	}
	return request, nil
}

func (f *fakeRequestStore) SaveRequirements(_ context.Context, requestID string, reqs models.RequirementSet) error {
	request, ok := f.requests[requestID]
	if !ok {
		return enginerrors.ErrNotFound
	}
	request.Requirements = &reqs
	return nil
}

type spyCache struct {
	snapshots map[string]*models.ClassifiedVendorList
	setErr    error
}

func newSpyCache() *spyCache {
	return &spyCache{snapshots: make(map[string]*models.ClassifiedVendorList)}
}

func (c *spyCache) Get(_ context.Context, requestID string) (*models.ClassifiedVendorList, error) {
	return c.snapshots[requestID], nil
}

func (c *spyCache) Set(_ context.Context, requestID string, list models.ClassifiedVendorList) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.snapshots[requestID] = &list
	return nil
}

func (c *spyCache) Delete(_ context.Context, requestID string) error {
	delete(c.snapshots, requestID)
	return nil
}

func newTestService(catalog *fakeCatalog, store *fakeRequestStore, cache SnapshotCache) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(logger, catalog, store, cache)
}

func testRequest(id string) *models.Request {
	return &models.Request{
		ID:      id,
		BuyerID: "buyer-1",
		Status:  models.RequestStatusActive,
	}
}

func TestUpdateRequirementsReclassifiesSynchronously(t *testing.T) {
	catalog := &fakeCatalog{vendors: []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes"}),
		crmVendor("v2", "Bolt", nil),
	}}
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": testRequest("req-1")}}
	cache := newSpyCache()
	service := newTestService(catalog, store, cache)
	ctx := context.Background()

	list, err := service.UpdateRequirements(ctx, "req-1", crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme"}, names(list.PerfectMatch))
	assert.Equal(t, []string{"Bolt"}, names(list.FullList))

	// The cache now holds the fresh classification.
	cached, err := cache.Get(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, list, *cached)
}

func TestMatchesNeverServesStaleAfterUpdate(t *testing.T) {
	catalog := &fakeCatalog{vendors: []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes"}),
	}}
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": testRequest("req-1")}}
	cache := newSpyCache()
	service := newTestService(catalog, store, cache)
	ctx := context.Background()

	_, err := service.UpdateRequirements(ctx, "req-1", crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
	))
	require.NoError(t, err)

	// Second update flips the filter so Acme no longer qualifies.
	_, err = service.UpdateRequirements(ctx, "req-1", crmRequirements(
		models.Requirement{Name: "soc2", Value: "no", IsTrueFilter: true},
	))
	require.NoError(t, err)

	list, err := service.Matches(ctx, "req-1")
	require.NoError(t, err)
	assert.Empty(t, list.PerfectMatch)
	assert.Equal(t, []string{"Acme"}, names(list.FullList))
}

func TestMatchesServesCachedSnapshot(t *testing.T) {
	catalog := &fakeCatalog{vendors: []models.Vendor{
		crmVendor("v1", "Acme", nil),
	}}
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": testRequest("req-1")}}
	cache := newSpyCache()
	service := newTestService(catalog, store, cache)
	ctx := context.Background()

	_, err := service.UpdateRequirements(ctx, "req-1", crmRequirements())
	require.NoError(t, err)
	snapshots := catalog.calls

	_, err = service.Matches(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, snapshots, catalog.calls, "cached read should not hit the catalog")
}

func TestMatchesRecomputesOnCacheMiss(t *testing.T) {
	catalog := &fakeCatalog{vendors: []models.Vendor{
		crmVendor("v1", "Acme", nil),
	}}
	reqs := crmRequirements()
	request := testRequest("req-1")
	request.Requirements = &reqs
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": request}}
	service := newTestService(catalog, store, NoopSnapshotCache{})

	list, err := service.Matches(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, names(list.PerfectMatch))
	assert.Equal(t, 1, catalog.calls)
}

func TestReclassifyWithoutRequirementsReturnsEmpty(t *testing.T) {
	catalog := &fakeCatalog{vendors: []models.Vendor{crmVendor("v1", "Acme", nil)}}
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": testRequest("req-1")}}
	service := newTestService(catalog, store, newSpyCache())

	list, err := service.Matches(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total())
	assert.Equal(t, 0, catalog.calls)
}

func TestReclassifyCatalogFailure(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("connection refused")}
	reqs := crmRequirements()
	request := testRequest("req-1")
	request.Requirements = &reqs
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": request}}
	service := newTestService(catalog, store, newSpyCache())

	_, err := service.Matches(context.Background(), "req-1")
	assert.True(t, enginerrors.Is(err, enginerrors.ErrCatalogUnavailable))
}

func TestCacheWriteFailureDoesNotFailClassification(t *testing.T) {
	catalog := &fakeCatalog{vendors: []models.Vendor{crmVendor("v1", "Acme", nil)}}
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": testRequest("req-1")}}
	cache := newSpyCache()
	cache.setErr = errors.New("redis down")
	service := newTestService(catalog, store, cache)

	list, err := service.UpdateRequirements(context.Background(), "req-1", crmRequirements())
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, names(list.PerfectMatch))
}

func TestEligibleVendor(t *testing.T) {
	catalog := &fakeCatalog{vendors: []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes"}),
		crmVendor("v2", "Bolt", nil),
	}}
	request := testRequest("req-1")
	request.ExcludedVendorIDs = []string{"v2"}
	store := &fakeRequestStore{requests: map[string]*models.Request{"req-1": request}}
	service := newTestService(catalog, store, newSpyCache())
	ctx := context.Background()

	_, err := service.UpdateRequirements(ctx, "req-1", crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
	))
	require.NoError(t, err)

	eligible, err := service.EligibleVendor(ctx, "req-1", "v1")
	require.NoError(t, err)
	assert.True(t, eligible)

	eligible, err = service.EligibleVendor(ctx, "req-1", "v2")
	require.NoError(t, err)
	assert.False(t, eligible)
}
