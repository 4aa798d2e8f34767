// Package export renders audience segments as plain CSV, privacy-preserving
// hashed CSV, and webhook payloads, and delivers payloads to webhook receivers.
package export

import (
	"io"
	"strings"
	"time"

	"github.com/JaimeStill/augur/internal/contact"
)

// KeywordSeparator joins a contact's keywords into a single cell.
const KeywordSeparator = ";"

// PlainHeaders is the fixed column order of the plain export.
var PlainHeaders = []string{
	"id",
	"email",
	"phone",
	"name",
	"company",
	"industry",
	"location",
	"keywords",
	"intentScore",
	"activityDate",
	"source",
}

// PlainRow renders one contact in PlainHeaders order. Absent fields render
// as empty strings.
func PlainRow(c contact.Contact) []string {
	activity := ""
	if c.ActivityDate != nil {
		activity = c.ActivityDate.UTC().Format(time.RFC3339)
	}

	return []string{
		c.ID.String(),
		c.Email,
		c.Phone,
		c.Name,
		c.Company,
		c.Industry,
		c.Location,
		strings.Join(c.Keywords, KeywordSeparator),
		string(c.IntentScore),
		activity,
		string(c.Source),
	}
}

// Plain returns the plain CSV document for contacts.
func Plain(contacts []contact.Contact) string {
	rows := make([][]string, len(contacts))
	for i, c := range contacts {
		rows[i] = PlainRow(c)
	}
	return Document(PlainHeaders, rows)
}

// WritePlain writes the plain CSV document for contacts to w.
func WritePlain(w io.Writer, contacts []contact.Contact) error {
	_, err := io.WriteString(w, Plain(contacts))
	return err
}

// Document assembles a CSV document: an unquoted header line followed by one
// line per row with every cell double-quoted. Lines are separated by "\n"
// with no trailing separator.
func Document(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))

	for _, row := range rows {
		b.WriteByte('\n')
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(Quote(cell))
		}
	}

	return b.String()
}

// Quote wraps a cell in double quotes, doubling any embedded quotes.
func Quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
