package facility

import (
	"sort"
	"strings"
)

// Criteria is the active filter state. Empty City or State means all.
type Criteria struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
	City     string   `json:"city"`
	State    string   `json:"state"`
}

// NewCriteria returns criteria that match everything.
func NewCriteria() Criteria {
	return Criteria{Category: All}
}

// Normalize trims fields, maps the literal "all" to empty for city and
// state, and coerces the category into the closed set or All.
func (c Criteria) Normalize() Criteria {
	return Criteria{
		Text:     strings.TrimSpace(c.Text),
		Category: ParseSelection(string(c.Category)),
		City:     normalizePlace(c.City),
		State:    normalizePlace(c.State),
	}
}

// IsEmpty reports whether the criteria match every facility.
func (c Criteria) IsEmpty() bool {
	n := c.Normalize()
	return n.Text == "" && n.Category == All && n.City == "" && n.State == ""
}

func normalizePlace(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

// Matches applies every criterion. Text is a case-insensitive substring of
// title, city, state or address; category, city and state match exactly.
func (c Criteria) Matches(f Facility) bool {
	return c.MatchesText(f) && c.MatchesCategory(f) && c.MatchesPlace(f)
}

// MatchesText applies only the free-text criterion.
func (c Criteria) MatchesText(f Facility) bool {
	q := fold(strings.TrimSpace(c.Text))
	if q == "" {
		return true
	}
	for _, field := range []string{f.Title, f.City, f.State, f.Address} {
		if strings.Contains(fold(field), q) {
			return true
		}
	}
	return false
}

// MatchesCategory applies only the category criterion.
func (c Criteria) MatchesCategory(f Facility) bool {
	sel := ParseSelection(string(c.Category))
	return sel == All || f.Category == sel
}

// MatchesPlace applies only the city and state criteria.
func (c Criteria) MatchesPlace(f Facility) bool {
	if city := normalizePlace(c.City); city != "" && f.City != city {
		return false
	}
	if state := normalizePlace(c.State); state != "" && f.State != state {
		return false
	}
	return true
}

// Filter returns the facilities for which keep is true, preserving order.
func Filter(list []Facility, keep func(Facility) bool) []Facility {
	out := make([]Facility, 0, len(list))
	for _, f := range list {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// Facets lists the distinct non-empty cities and states of a result set.
type Facets struct {
	Cities []string `json:"cities"`
	States []string `json:"states"`
}

// BuildFacets collects sorted unique cities and states.
func BuildFacets(list []Facility) Facets {
	cities := make(map[string]struct{})
	states := make(map[string]struct{})
	for _, f := range list {
		if f.City != "" {
			cities[f.City] = struct{}{}
		}
		if f.State != "" {
			states[f.State] = struct{}{}
		}
	}
	return Facets{Cities: sortedKeys(cities), States: sortedKeys(states)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
