// Package audience evaluates multi-clause audience filters over contact
// collections and extracts the facet values used to build them.
package audience

import (
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/augur/internal/contact"
)

// DateRange bounds activity dates inclusively on both ends.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within [Start, End].
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Filter is a per-query set of optional clauses combined with AND.
// An empty string, nil, or empty slice leaves its clause absent.
type Filter struct {
	Industry     string                `json:"industry,omitempty"`
	Location     string                `json:"location,omitempty"`
	IntentLevels []contact.IntentLevel `json:"intent_levels,omitempty"`
	DateRange    *DateRange            `json:"date_range,omitempty"`
	Keywords     []string              `json:"keywords,omitempty"`
}

// IsEmpty reports whether the filter imposes no constraint.
func (f Filter) IsEmpty() bool {
	return f.Industry == "" &&
		f.Location == "" &&
		len(f.IntentLevels) == 0 &&
		f.DateRange == nil &&
		len(f.Keywords) == 0
}

// Apply returns the contacts matching f in their original relative order.
// The input collection is not modified.
func Apply(contacts []contact.Contact, f Filter) []contact.Contact {
	out := make([]contact.Contact, 0, len(contacts))
	for _, c := range contacts {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Matches evaluates every present clause against c. A contact missing the
// field a present clause inspects fails that clause.
func (f Filter) Matches(c contact.Contact) bool {
	if f.Industry != "" && !containsFold(c.Industry, f.Industry) {
		return false
	}

	if f.Location != "" && !containsFold(c.Location, f.Location) {
		return false
	}

	if len(f.IntentLevels) > 0 {
		if c.IntentScore == "" || !slices.Contains(f.IntentLevels, c.IntentScore) {
			return false
		}
	}

	if f.DateRange != nil {
		if c.ActivityDate == nil || !f.DateRange.Contains(*c.ActivityDate) {
			return false
		}
	}

	if len(f.Keywords) > 0 && !keywordOverlap(c.Keywords, f.Keywords) {
		return false
	}

	return true
}

func containsFold(value, sub string) bool {
	if value == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(sub))
}

func keywordOverlap(recordKeywords, filterKeywords []string) bool {
	for _, fk := range filterKeywords {
		fk = strings.ToLower(fk)
		for _, rk := range recordKeywords {
			if strings.Contains(strings.ToLower(rk), fk) {
				return true
			}
		}
	}
	return false
}
