package export_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/internal/export"
)

const johnDigest = "855f96e983f1f8e8be944692b6f719fd54329826cb62e98015efee8e2e071dd4"

func TestHashEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"normalized", "john@example.com", johnDigest},
		{"mixed case and whitespace", "John@Example.com ", johnDigest},
		{"leading whitespace", "  JOHN@EXAMPLE.COM", johnDigest},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := export.HashEmail(tt.email); got != tt.want {
				t.Errorf("HashEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestHashPhone(t *testing.T) {
	want := export.HashPhone("5551234567")
	if len(want) != 64 {
		t.Fatalf("digest length = %d, want 64", len(want))
	}

	for _, in := range []string{"(555) 123-4567", "555.123.4567", " 555 123 4567 "} {
		if got := export.HashPhone(in); got != want {
			t.Errorf("HashPhone(%q) = %q, want %q", in, got, want)
		}
	}

	if got := export.HashPhone("n/a"); got != "" {
		t.Errorf("phone without digits should hash to empty, got %q", got)
	}
}

func TestHash(t *testing.T) {
	contacts := []contact.Contact{
		{Email: "John@Example.com ", Industry: "Tech", Location: "Austin", IntentScore: contact.IntentHigh},
		{Name: "No Identity", Industry: "Retail"},
	}

	rows := export.Hash(contacts)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0].HashedEmail != johnDigest || rows[0].HashedPhone != "" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[0].Industry != "Tech" || rows[0].Location != "Austin" || rows[0].IntentScore != contact.IntentHigh {
		t.Errorf("pass-through fields altered: %+v", rows[0])
	}
	if rows[1].HashedEmail != "" || rows[1].HashedPhone != "" {
		t.Errorf("record without identity must have empty hash fields: %+v", rows[1])
	}
}

func TestHashed(t *testing.T) {
	got := export.Hashed([]contact.Contact{
		{Email: "john@example.com", Industry: "Tech", IntentScore: contact.IntentLow},
	})

	want := "hashed_email,hashed_phone,industry,location,intentScore\n" +
		`"` + johnDigest + `","","Tech","","Low"`
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}

	if strings.Contains(got, "john@example.com") {
		t.Error("raw email leaked into hashed export")
	}
}
