// Package matching implements vendor classification and ranking against a
// request's parsed requirements.
package matching

import (
	"sort"
	"strings"

	"github.com/arena-hq/arena-engine/pkg/models"
)

// Classify buckets every vendor in the catalog snapshot against the
// requirement set. It is pure and deterministic: identical inputs produce
// bucket-identical, order-identical output.
//
// Bucket rules:
//   - excluded vendors never appear anywhere
//   - preferred vendors land in Preferred regardless of filter hits
//   - remaining vendors are restricted to the set's category; all true
//     filters satisfied means PerfectMatch, at least one means PartialMatch,
//     the rest fall to FullList
//
// A set with no true filters makes every same-category vendor a PerfectMatch.
// Informational requirements count as satisfied regardless of value.
func Classify(reqs models.RequirementSet, catalog []models.Vendor, preferred, excluded []string) models.ClassifiedVendorList {
	excludedSet := toSet(excluded)
	preferredSet := toSet(preferred)

	trueFilters := reqs.TrueFilters()
	total := len(trueFilters)

	var list models.ClassifiedVendorList

	for _, vendor := range catalog {
		if _, skip := excludedSet[vendor.ID]; skip {
			continue
		}

		hits := trueFilterHits(vendor, trueFilters)
		ranked := models.RankedVendor{
			VendorID:        vendor.ID,
			Name:            vendor.Name,
			TrueFilterHits:  hits,
			TrueFilterTotal: total,
			Score:           hitRatio(hits, total),
		}

		if _, ok := preferredSet[vendor.ID]; ok {
			list.Preferred = append(list.Preferred, ranked)
			continue
		}

		if !sameCategory(vendor.Category, reqs.Category) {
			continue
		}

		switch {
		case hits == total:
			list.PerfectMatch = append(list.PerfectMatch, ranked)
		case hits >= 1:
			list.PartialMatch = append(list.PartialMatch, ranked)
		default:
			list.FullList = append(list.FullList, ranked)
		}
	}

	sortAlphabetical(list.Preferred)
	sortAlphabetical(list.PerfectMatch)
	sortByScore(list.PartialMatch)
	sortByScore(list.FullList)

	return list
}

// trueFilterHits counts the true filters the vendor's attributes satisfy.
func trueFilterHits(vendor models.Vendor, filters []models.Requirement) int {
	hits := 0
	for _, filter := range filters {
		if satisfies(vendor, filter) {
			hits++
		}
	}
	return hits
}

func satisfies(vendor models.Vendor, req models.Requirement) bool {
	value, ok := vendor.Attributes[req.Name]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(req.Value))
}

// hitRatio treats 0/0 as a full score so vendors with nothing to fail are
// ranked as complete matches.
func hitRatio(hits, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(hits) / float64(total)
}

func sameCategory(vendorCategory, requestCategory string) bool {
	return strings.EqualFold(strings.TrimSpace(vendorCategory), strings.TrimSpace(requestCategory))
}

// sortAlphabetical orders by case-insensitive name, ties broken by vendor id.
func sortAlphabetical(vendors []models.RankedVendor) {
	sort.Slice(vendors, func(i, j int) bool {
		ni, nj := strings.ToLower(vendors[i].Name), strings.ToLower(vendors[j].Name)
		if ni != nj {
			return ni < nj
		}
		return vendors[i].VendorID < vendors[j].VendorID
	})
}

// sortByScore orders by hit ratio descending, then name, then vendor id.
func sortByScore(vendors []models.RankedVendor) {
	sort.Slice(vendors, func(i, j int) bool {
		if vendors[i].Score != vendors[j].Score {
			return vendors[i].Score > vendors[j].Score
		}
		ni, nj := strings.ToLower(vendors[i].Name), strings.ToLower(vendors[j].Name)
		if ni != nj {
			return ni < nj
		}
		return vendors[i].VendorID < vendors[j].VendorID
	})
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
