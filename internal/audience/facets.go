package audience

import (
	"slices"

	"github.com/JaimeStill/augur/internal/contact"
)

// Facets lists the distinct segmentation values present in a collection.
type Facets struct {
	Industries []string `json:"industries"`
	Locations  []string `json:"locations"`
}

// ExtractFacets returns the sorted, deduplicated industry and location values
// of contacts. Sorting is lexicographic on the raw values.
func ExtractFacets(contacts []contact.Contact) Facets {
	industries := make([]string, 0)
	locations := make([]string, 0)

	for _, c := range contacts {
		if c.Industry != "" {
			industries = append(industries, c.Industry)
		}
		if c.Location != "" {
			locations = append(locations, c.Location)
		}
	}

	slices.Sort(industries)
	slices.Sort(locations)

	return Facets{
		Industries: slices.Compact(industries),
		Locations:  slices.Compact(locations),
	}
}
