package export

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/JaimeStill/augur/internal/contact"
)

// HashedHeaders is the fixed column order of the hashed export.
var HashedHeaders = []string{
	"hashed_email",
	"hashed_phone",
	"industry",
	"location",
	"intentScore",
}

// HashedRow is a contact with its identity fields replaced by digests.
type HashedRow struct {
	HashedEmail string              `json:"hashed_email"`
	HashedPhone string              `json:"hashed_phone"`
	Industry    string              `json:"industry"`
	Location    string              `json:"location"`
	IntentScore contact.IntentLevel `json:"intent_score"`
}

func (r HashedRow) cells() []string {
	return []string{
		r.HashedEmail,
		r.HashedPhone,
		r.Industry,
		r.Location,
		string(r.IntentScore),
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// HashEmail returns the hex SHA-256 digest of the normalized email, or an
// empty string when nothing remains after normalization.
func HashEmail(email string) string {
	return digest(NormalizeEmail(email))
}

// HashPhone returns the hex SHA-256 digest of the phone's digits, or an
// empty string when the phone has no digits.
func HashPhone(phone string) string {
	return digest(NormalizePhone(phone))
}

func digest(normalized string) string {
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Hash transforms contacts into hashed rows. Industry, location, and intent
// score pass through unmodified.
func Hash(contacts []contact.Contact) []HashedRow {
	rows := make([]HashedRow, len(contacts))
	for i, c := range contacts {
		rows[i] = HashedRow{
			HashedEmail: HashEmail(c.Email),
			HashedPhone: HashPhone(c.Phone),
			Industry:    c.Industry,
			Location:    c.Location,
			IntentScore: c.IntentScore,
		}
	}
	return rows
}

// Hashed returns the hashed CSV document for contacts.
func Hashed(contacts []contact.Contact) string {
	hashed := Hash(contacts)
	rows := make([][]string, len(hashed))
	for i, r := range hashed {
		rows[i] = r.cells()
	}
	return Document(HashedHeaders, rows)
}

// WriteHashed writes the hashed CSV document for contacts to w.
func WriteHashed(w io.Writer, contacts []contact.Contact) error {
	_, err := io.WriteString(w, Hashed(contacts))
	return err
}
