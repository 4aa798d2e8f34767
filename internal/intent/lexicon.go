// Package intent assigns qualitative intent levels to contacts with a fixed,
// deterministic rule set over keyword evidence and activity recency.
package intent

import (
	"slices"
	"strings"
)

// Lexicon classifies terms into high-intent and medium-intent tiers.
// Entries are matched as case-insensitive substrings of contact keywords.
type Lexicon struct {
	High   []string
	Medium []string
}

// DefaultLexicon is the lexicon used by Classify.
var DefaultLexicon = NewLexicon(
	[]string{
		"buy", "purchase", "price", "cost", "quote", "demo", "trial",
		"signup", "subscribe", "consultation", "solution", "implement",
	},
	[]string{
		"compare", "review", "best", "features", "benefits", "how to", "how-to",
		"guide", "learn", "alternatives", "vs", "versus",
	},
)

// SearchTerms are the patterns scanned for in search result text to seed keywords.
var SearchTerms = []string{
	"buy", "purchase", "price", "cost", "quote", "demo", "trial",
	"signup", "subscribe", "compare", "review", "best", "solution",
}

// NewLexicon builds a Lexicon, lowercasing every entry.
func NewLexicon(high, medium []string) Lexicon {
	return Lexicon{
		High:   lower(high),
		Medium: lower(medium),
	}
}

// HighCount returns how many keywords contain at least one high-intent entry.
func (l Lexicon) HighCount(keywords []string) int {
	return countMatches(keywords, l.High)
}

// MediumCount returns how many keywords contain at least one medium-intent entry.
func (l Lexicon) MediumCount(keywords []string) int {
	return countMatches(keywords, l.Medium)
}

// Extract returns the terms that occur in text, in term order.
func Extract(text string, terms []string) []string {
	text = strings.ToLower(text)

	found := make([]string, 0)
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			found = append(found, term)
		}
	}
	return found
}

func countMatches(keywords, terms []string) int {
	n := 0
	for _, k := range keywords {
		k = strings.ToLower(k)
		if slices.ContainsFunc(terms, func(t string) bool {
			return strings.Contains(k, t)
		}) {
			n++
		}
	}
	return n
}

func lower(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
