package intent_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/internal/intent"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func withKeywords(activity *time.Time, keywords ...string) contact.Contact {
	return contact.Contact{
		ID:           uuid.New(),
		Email:        "lead@example.com",
		Keywords:     keywords,
		ActivityDate: activity,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		c    contact.Contact
		want contact.IntentLevel
	}{
		{"two high keywords stale", withKeywords(daysAgo(90), "buy now", "request demo"), contact.IntentHigh},
		{"two high keywords no date", withKeywords(nil, "price list", "free trial"), contact.IntentHigh},
		{"one high keyword recent", withKeywords(daysAgo(3), "get a quote"), contact.IntentHigh},
		{"one high keyword exactly seven days", withKeywords(daysAgo(7), "quote"), contact.IntentHigh},
		{"one high keyword eight days", withKeywords(daysAgo(8), "quote"), contact.IntentMedium},
		{"one high keyword no date", withKeywords(nil, "subscribe"), contact.IntentMedium},
		{"two medium keywords stale", withKeywords(daysAgo(60), "best crm", "crm reviews"), contact.IntentMedium},
		{"one medium keyword stale", withKeywords(daysAgo(60), "guide"), contact.IntentLow},
		{"no keywords fourteen days", withKeywords(daysAgo(14)), contact.IntentMedium},
		{"no keywords fifteen days", withKeywords(daysAgo(15)), contact.IntentLow},
		{"no keywords no date", withKeywords(nil), contact.IntentLow},
		{"recency alone never reaches high", withKeywords(daysAgo(0), "compare"), contact.IntentMedium},
		{"case insensitive", withKeywords(daysAgo(30), "BUY", "Demo Request"), contact.IntentHigh},
		{"future activity counts as recent", withKeywords(daysAgo(-2), "trial"), contact.IntentHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intent.Classify(tt.c, now); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyHighCountIgnoresRecency(t *testing.T) {
	for _, days := range []int{0, 7, 8, 14, 15, 365} {
		c := withKeywords(daysAgo(days), "buy", "implement")
		if got := intent.Classify(c, now); got != contact.IntentHigh {
			t.Errorf("days=%d: got %s, want High", days, got)
		}
	}
}

func TestKeywordCountsPerKeyword(t *testing.T) {
	l := intent.DefaultLexicon

	// One keyword matching several entries still counts once.
	if got := l.HighCount([]string{"buy demo trial"}); got != 1 {
		t.Errorf("HighCount = %d, want 1", got)
	}
	if got := l.MediumCount([]string{"how to compare", "vendor vs vendor"}); got != 2 {
		t.Errorf("MediumCount = %d, want 2", got)
	}
}

func TestDaysSince(t *testing.T) {
	if _, known := intent.DaysSince(nil, now); known {
		t.Error("nil activity should be unknown")
	}

	almost := now.Add(-(14*24*time.Hour + 23*time.Hour))
	if days, _ := intent.DaysSince(&almost, now); days != 14 {
		t.Errorf("days = %d, want 14 (rounded down)", days)
	}
}

func TestScoreAll(t *testing.T) {
	created := now.Add(-48 * time.Hour)
	original := []contact.Contact{
		withKeywords(daysAgo(3), "buy", "demo"),
		withKeywords(daysAgo(20), "review"),
	}
	original[0].UpdatedAt = created
	original[1].UpdatedAt = created
	original[1].IntentScore = contact.IntentLow

	scored := intent.ScoreAll(original, now)

	if scored[0].IntentScore != contact.IntentHigh {
		t.Errorf("first = %s, want High", scored[0].IntentScore)
	}
	if scored[1].IntentScore != contact.IntentLow {
		t.Errorf("second = %s, want Low", scored[1].IntentScore)
	}
	for i, c := range scored {
		if !c.UpdatedAt.Equal(now) {
			t.Errorf("contact %d updated_at = %v, want %v", i, c.UpdatedAt, now)
		}
	}

	if original[0].IntentScore != "" {
		t.Error("ScoreAll mutated its input")
	}
	scored[0].Keywords[0] = "changed"
	if original[0].Keywords[0] != "buy" {
		t.Error("scored contact shares keyword storage with input")
	}
}

func TestExtract(t *testing.T) {
	got := intent.Extract("Best CRM Pricing | Compare plans and book a Demo", intent.SearchTerms)
	want := []string{"demo", "compare", "best"}

	if len(got) != len(want) {
		t.Fatalf("Extract() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extract()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
