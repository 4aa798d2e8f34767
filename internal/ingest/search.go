package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/internal/intent"
)

// SearchResult is one organic result returned by the search provider.
type SearchResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position,omitempty"`
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
)

// ExtractEmail returns the first email address in text, or "".
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractPhone returns the first ten-digit phone number in text, with an
// optional country code, or "".
func ExtractPhone(text string) string {
	return strings.TrimSpace(phonePattern.FindString(text))
}

// CompanyFromTitle returns the segment of title before the first "|", falling
// back to the whole title when that segment is empty.
func CompanyFromTitle(title string) string {
	lead, _, _ := strings.Cut(title, "|")
	if lead = strings.TrimSpace(lead); lead != "" {
		return lead
	}
	return strings.TrimSpace(title)
}

// FromSearchResults converts search results into contacts stamped with now.
// Keywords are seeded from search lexicon terms found in the title and
// snippet, and identity fields are extracted from the same text. Results are
// numbered from 1 in rejection messages.
func FromSearchResults(results []SearchResult, now time.Time) Result {
	out := Result{
		Contacts: make([]contact.Contact, 0, len(results)),
		Errors:   make([]string, 0),
	}

	for i, r := range results {
		text := r.Title + " " + r.Snippet
		email := ExtractEmail(text)
		phone := ExtractPhone(text)

		if !validIdentity(email, phone) {
			out.Errors = append(out.Errors, fmt.Sprintf("Result %d: Must have email or phone", i+1))
			continue
		}

		activity := now
		out.Contacts = append(out.Contacts, contact.Contact{
			ID:           uuid.New(),
			Email:        email,
			Phone:        phone,
			Company:      CompanyFromTitle(r.Title),
			Keywords:     intent.Extract(text, intent.SearchTerms),
			ActivityDate: &activity,
			Source:       contact.SourceSearch,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return out
}
