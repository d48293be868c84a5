package facility

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Category is one of the closed set of first-responder kinds.
type Category string

const (
	Police    Category = "Police"
	Fire      Category = "Fire"
	Ambulance Category = "Ambulance"
	Hospital  Category = "Hospital"
	Emergency Category = "Emergency"

	// All is the category selection that matches every facility.
	All Category = "All"

	// DefaultCategory is assigned to records whose category is missing or unknown.
	DefaultCategory = Police
)

var categories = []Category{Police, Fire, Ambulance, Hospital, Emergency}

var categoryByFolded = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[fold(string(c))] = c
	}
	return m
}()

// Categories returns the closed category set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory maps raw into the closed set after trimming and case
// folding. ok is false for anything outside the set, including "All".
func LookupCategory(raw string) (Category, bool) {
	c, ok := categoryByFolded[fold(strings.TrimSpace(raw))]
	return c, ok
}

// ParseCategory maps raw into the closed set, defaulting to Police.
func ParseCategory(raw string) Category {
	if c, ok := LookupCategory(raw); ok {
		return c
	}
	return DefaultCategory
}

// ParseSelection maps a filter value into a category or All. Empty and
// unknown values select All.
func ParseSelection(raw string) Category {
	if c, ok := LookupCategory(raw); ok {
		return c
	}
	return All
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

// WireValue is the upper-case form used by the directory service.
func (c Category) WireValue() string {
	if c == All || c == "" {
		return ""
	}
	return strings.ToUpper(string(c))
}

func fold(s string) string {
	return cases.Fold().String(s)
}
