package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hq/arena-engine/pkg/models"
)

func crmVendor(id, name string, attrs map[string]string) models.Vendor {
	return models.Vendor{
		ID:         id,
		Name:       name,
		Category:   "crm",
		Status:     models.VendorStatusActive,
		Attributes: attrs,
	}
}

func crmRequirements(requirements ...models.Requirement) models.RequirementSet {
	return models.RequirementSet{
		Category:     "crm",
		Requirements: requirements,
	}
}

func names(vendors []models.RankedVendor) []string {
	out := make([]string, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, v.Name)
	}
	return out
}

func TestClassifyBucketsVendors(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
		models.Requirement{Name: "sso", Value: "saml", IsTrueFilter: true},
		models.Requirement{Name: "seats", Value: "50", IsTrueFilter: false},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes", "sso": "saml"}),
		crmVendor("v2", "Bolt", map[string]string{"soc2": "yes"}),
		crmVendor("v3", "Crux", map[string]string{"pricing": "flat"}),
	}

	list := Classify(reqs, catalog, nil, nil)

	assert.Equal(t, []string{"Acme"}, names(list.PerfectMatch))
	assert.Equal(t, []string{"Bolt"}, names(list.PartialMatch))
	assert.Equal(t, []string{"Crux"}, names(list.FullList))
	assert.Empty(t, list.Preferred)
}

func TestClassifyInformationalRequirementsDoNotGate(t *testing.T) {
	// Only the informational requirement is unmet; the vendor still lands in
	// PerfectMatch because informational requirements never gate.
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
		models.Requirement{Name: "seats", Value: "500", IsTrueFilter: false},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes", "seats": "10"}),
	}

	list := Classify(reqs, catalog, nil, nil)

	require.Len(t, list.PerfectMatch, 1)
	assert.Equal(t, 1, list.PerfectMatch[0].TrueFilterHits)
	assert.Equal(t, 1, list.PerfectMatch[0].TrueFilterTotal)
}

func TestClassifyPreferredOverridesEverything(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes"}),
		crmVendor("v2", "Bolt", nil),
		{ID: "v3", Name: "OffCat", Category: "billing", Status: models.VendorStatusActive},
	}

	// Preferred vendors are preferred even with zero hits or a different
	// category.
	list := Classify(reqs, catalog, []string{"v2", "v3"}, nil)

	assert.Equal(t, []string{"Bolt", "OffCat"}, names(list.Preferred))
	assert.Equal(t, []string{"Acme"}, names(list.PerfectMatch))
	assert.Empty(t, list.PartialMatch)
	assert.Empty(t, list.FullList)
}

func TestClassifyExcludedVendorsNeverAppear(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes"}),
		crmVendor("v2", "Bolt", map[string]string{"soc2": "yes"}),
	}

	// Exclusion wins even when the vendor is also preferred.
	list := Classify(reqs, catalog, []string{"v2"}, []string{"v2"})

	assert.False(t, list.Contains("v2"))
	assert.Equal(t, 1, list.Total())
}

func TestClassifyNoTrueFiltersMakesEveryoneAPerfectMatch(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "seats", Value: "50", IsTrueFilter: false},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", nil),
		crmVendor("v2", "Bolt", nil),
	}

	list := Classify(reqs, catalog, nil, nil)

	require.Len(t, list.PerfectMatch, 2)
	for _, v := range list.PerfectMatch {
		assert.Equal(t, 1.0, v.Score)
		assert.Equal(t, 0, v.TrueFilterTotal)
	}
}

func TestClassifyCategoryMismatchIsDropped(t *testing.T) {
	reqs := crmRequirements()

	catalog := []models.Vendor{
		{ID: "v1", Name: "Billing Co", Category: "billing", Status: models.VendorStatusActive},
	}

	list := Classify(reqs, catalog, nil, nil)

	assert.Equal(t, 0, list.Total())
}

func TestClassifyAttributeMatchingIsCaseInsensitive(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "sso", Value: "SAML", IsTrueFilter: true},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"sso": " saml "}),
	}

	list := Classify(reqs, catalog, nil, nil)

	assert.Equal(t, []string{"Acme"}, names(list.PerfectMatch))
}

func TestClassifyOrdering(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
		models.Requirement{Name: "sso", Value: "saml", IsTrueFilter: true},
		models.Requirement{Name: "gdpr", Value: "yes", IsTrueFilter: true},
	)

	catalog := []models.Vendor{
		crmVendor("v5", "delta", map[string]string{"soc2": "yes"}),
		crmVendor("v4", "Echo", map[string]string{"soc2": "yes", "sso": "saml"}),
		crmVendor("v3", "alpha", map[string]string{"soc2": "yes"}),
		crmVendor("v2", "Zed", allAttrs()),
		crmVendor("v1", "apex", allAttrs()),
	}

	list := Classify(reqs, catalog, nil, nil)

	// Perfect matches sort alphabetically, case-insensitive.
	assert.Equal(t, []string{"apex", "Zed"}, names(list.PerfectMatch))
	// Partial matches sort by score descending, then name.
	assert.Equal(t, []string{"Echo", "alpha", "delta"}, names(list.PartialMatch))
}

func allAttrs() map[string]string {
	return map[string]string{"soc2": "yes", "sso": "saml", "gdpr": "yes"}
}

func TestClassifyTieBreaksOnVendorID(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
	)

	catalog := []models.Vendor{
		crmVendor("v2", "Same", map[string]string{"soc2": "yes"}),
		crmVendor("v1", "Same", map[string]string{"soc2": "yes"}),
	}

	list := Classify(reqs, catalog, nil, nil)

	require.Len(t, list.PerfectMatch, 2)
	assert.Equal(t, "v1", list.PerfectMatch[0].VendorID)
	assert.Equal(t, "v2", list.PerfectMatch[1].VendorID)
}

func TestClassifyDeterministic(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
		models.Requirement{Name: "sso", Value: "saml", IsTrueFilter: true},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes"}),
		crmVendor("v2", "Bolt", map[string]string{"sso": "saml"}),
		crmVendor("v3", "Crux", allAttrs()),
		crmVendor("v4", "Dune", nil),
	}

	first := Classify(reqs, catalog, []string{"v4"}, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(reqs, catalog, []string{"v4"}, nil))
	}
}

func TestClassifyDisjointBuckets(t *testing.T) {
	reqs := crmRequirements(
		models.Requirement{Name: "soc2", Value: "yes", IsTrueFilter: true},
	)

	catalog := []models.Vendor{
		crmVendor("v1", "Acme", map[string]string{"soc2": "yes"}),
		crmVendor("v2", "Bolt", nil),
		crmVendor("v3", "Crux", map[string]string{"soc2": "yes"}),
	}

	list := Classify(reqs, catalog, []string{"v1"}, nil)

	seen := make(map[string]int)
	for _, bucket := range [][]models.RankedVendor{list.Preferred, list.PerfectMatch, list.PartialMatch, list.FullList} {
		for _, v := range bucket {
			seen[v.VendorID]++
		}
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "vendor %s appears in more than one bucket", id)
	}
	assert.Len(t, seen, 3)
}

func TestClassifyEmptyCatalog(t *testing.T) {
	list := Classify(crmRequirements(), nil, []string{"v1"}, nil)
	assert.Equal(t, 0, list.Total())
}
