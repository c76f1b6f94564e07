package domain

// InterestModel maps category name to its weighted definition. The model is
// read-only within a pipeline run and always fully normalized: priorities in
// [1,10], no nil collections.
type InterestModel map[string]Interest

// Interest is one top-level interest category
type Interest struct {
	Priority      int                    `json:"priority"`
	Keywords      []string               `json:"keywords"`
	Subcategories map[string]Subinterest `json:"subcategories"`
}

// Subinterest is a nested refinement of an interest category
type Subinterest struct {
	Priority int      `json:"priority"`
	Keywords []string `json:"keywords"`
}

// DefaultPriority is assigned when a category carries no usable priority
const DefaultPriority = 5

// ClampPriority coerces a priority into the valid [1,10] range
func ClampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}

// TotalPriority sums priorities across all categories, used for
// priority-weighted alignment fractions.
func (m InterestModel) TotalPriority() int {
	total := 0
	for _, in := range m {
		total += in.Priority
	}
	return total
}
