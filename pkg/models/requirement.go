package models

// Requirement is a single parsed requirement triple produced by the external
// parsing service. True filters are binary conditions a vendor either
// satisfies or not; informational requirements never block a match.
type Requirement struct {
	Name         string `json:"name" validate:"required"`
	Value        string `json:"value"`
	IsTrueFilter bool   `json:"is_true_filter"`
}

// RequirementSet is the ordered, normalized output of requirement parsing for
// a single request. It is immutable once associated with a matching run; a
// requirement edit produces a new set.
type RequirementSet struct {
	Category     string        `json:"category"`
	Requirements []Requirement `json:"requirements"`
}

// TrueFilters returns the subset of requirements that act as hard filters.
func (rs RequirementSet) TrueFilters() []Requirement {
	filters := make([]Requirement, 0, len(rs.Requirements))
	for _, req := range rs.Requirements {
		if req.IsTrueFilter {
			filters = append(filters, req)
		}
	}
	return filters
}

// TrueFilterTotal returns the number of true-filter requirements in the set.
func (rs RequirementSet) TrueFilterTotal() int {
	total := 0
	for _, req := range rs.Requirements {
		if req.IsTrueFilter {
			total++
		}
	}
	return total
}
