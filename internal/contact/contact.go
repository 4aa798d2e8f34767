// Package contact defines the canonical contact record shared by the ingestion,
// scoring, filtering, and export stages, along with the storage port that
// persists the full contact collection.
package contact

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IntentLevel is the ordinal likelihood that a contact is sales-ready.
type IntentLevel string

const (
	IntentLow    IntentLevel = "Low"
	IntentMedium IntentLevel = "Medium"
	IntentHigh   IntentLevel = "High"
)

// Levels lists every intent level from lowest to highest.
var Levels = []IntentLevel{IntentLow, IntentMedium, IntentHigh}

// ParseIntentLevel resolves a level name case-insensitively.
func ParseIntentLevel(s string) (IntentLevel, error) {
	for _, l := range Levels {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIntent, s)
}

// Source tags where a contact entered the system. It never changes after ingestion.
type Source string

const (
	SourceCSV    Source = "csv"
	SourceSearch Source = "search"
)

// EnrichedData holds the add-on fields populated by the enrichment provider.
// AdditionalInfo is the open extension map for provider-specific attributes.
type EnrichedData struct {
	Address        string         `json:"address,omitempty"`
	SocialProfiles []string       `json:"social_profiles,omitempty"`
	AdditionalInfo map[string]any `json:"additional_info,omitempty"`
}

// Contact is the canonical record. Empty strings denote absent optional fields,
// a nil ActivityDate denotes unknown activity, and an empty IntentScore means
// the contact has not been classified yet.
type Contact struct {
	ID           uuid.UUID     `json:"id"`
	Email        string        `json:"email,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	Name         string        `json:"name,omitempty"`
	Company      string        `json:"company,omitempty"`
	Industry     string        `json:"industry,omitempty"`
	Location     string        `json:"location,omitempty"`
	Keywords     []string      `json:"keywords,omitempty"`
	ActivityDate *time.Time    `json:"activity_date,omitempty"`
	IntentScore  IntentLevel   `json:"intent_score,omitempty"`
	EnrichedData *EnrichedData `json:"enriched_data,omitempty"`
	Source       Source        `json:"source"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// HasIdentity reports whether the contact carries an email or a phone.
func (c Contact) HasIdentity() bool {
	return strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.Phone) != ""
}

// Clone returns a deep copy so callers can modify the result without
// affecting collections held by other callers.
func (c Contact) Clone() Contact {
	out := c
	out.Keywords = slices.Clone(c.Keywords)

	if c.ActivityDate != nil {
		at := *c.ActivityDate
		out.ActivityDate = &at
	}

	if c.EnrichedData != nil {
		ed := *c.EnrichedData
		ed.SocialProfiles = slices.Clone(c.EnrichedData.SocialProfiles)
		ed.AdditionalInfo = maps.Clone(c.EnrichedData.AdditionalInfo)
		out.EnrichedData = &ed
	}

	return out
}

// CloneAll deep-copies a collection.
func CloneAll(contacts []Contact) []Contact {
	out := make([]Contact, len(contacts))
	for i, c := range contacts {
		out[i] = c.Clone()
	}
	return out
}
