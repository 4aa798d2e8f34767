// Package ingest normalizes external input (uploaded CSV rows and search
// results) into unscored canonical contacts. Input lacking both an email and
// a phone is rejected per item without failing the batch.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/JaimeStill/augur/internal/audience"
	"github.com/JaimeStill/augur/internal/contact"
)

// ErrMalformedCSV indicates the uploaded document could not be read as CSV.
var ErrMalformedCSV = errors.New("malformed csv")

// Columns lists the recognized CSV columns.
var Columns = []string{
	"email",
	"phone",
	"name",
	"company",
	"industry",
	"location",
	"keywords",
	"activityDate",
}

// TemplateColumns is the header of the downloadable CSV template.
var TemplateColumns = Columns[:7]

var templateExample = []string{
	"john@example.com",
	"555-1234",
	"John Doe",
	"Acme Corp",
	"Technology",
	"San Francisco, CA",
	"buy,demo,pricing",
}

// Row is one raw CSV record keyed by column name.
type Row map[string]string

// Result collects accepted contacts and per-item rejection messages.
type Result struct {
	Contacts []contact.Contact `json:"contacts"`
	Errors   []string          `json:"errors"`
}

type identity struct {
	Email string `validate:"required_without=Phone"`
	Phone string `validate:"required_without=Email"`
}

var validate = validator.New()

func validIdentity(email, phone string) bool {
	return validate.Struct(identity{Email: email, Phone: phone}) == nil
}

// ReadRows parses a CSV document whose first line is the header. Header names
// are matched to Columns case-insensitively; unrecognized headers are kept
// trimmed. Blank lines are skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []Row{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = canonicalColumn(h)
	}

	rows := make([]Row, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}

		row := make(Row, len(keys))
		for i, v := range record {
			if i < len(keys) {
				row[keys[i]] = v
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func canonicalColumn(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	for _, c := range Columns {
		if strings.EqualFold(c, h) {
			return c
		}
	}
	return h
}

// FromRows converts raw rows into contacts stamped with now. Rows are
// numbered from 1 in rejection messages.
func FromRows(rows []Row, now time.Time) Result {
	result := Result{
		Contacts: make([]contact.Contact, 0, len(rows)),
		Errors:   make([]string, 0),
	}

	for i, row := range rows {
		email := strings.TrimSpace(row["email"])
		phone := strings.TrimSpace(row["phone"])

		if !validIdentity(email, phone) {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Must have email or phone", i+1))
			continue
		}

		result.Contacts = append(result.Contacts, contact.Contact{
			ID:           uuid.New(),
			Email:        email,
			Phone:        phone,
			Name:         strings.TrimSpace(row["name"]),
			Company:      strings.TrimSpace(row["company"]),
			Industry:     strings.TrimSpace(row["industry"]),
			Location:     strings.TrimSpace(row["location"]),
			Keywords:     SplitKeywords(row["keywords"]),
			ActivityDate: activityDate(row["activityDate"], now),
			Source:       contact.SourceCSV,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return result
}

// ReadCSV reads and converts a CSV document in one step.
func ReadCSV(r io.Reader, now time.Time) (Result, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return Result{}, err
	}
	return FromRows(rows, now), nil
}

// SplitKeywords splits a comma-joined keyword cell, trimming each token and
// dropping empty ones.
func SplitKeywords(cell string) []string {
	keywords := make([]string, 0)
	for k := range strings.SplitSeq(cell, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// An empty cell defaults to now. An unparseable one yields no recency signal.
func activityDate(cell string, now time.Time) *time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return &now
	}
	t, err := audience.ParseTime(cell)
	if err != nil {
		return nil
	}
	return &t
}

// Template returns the downloadable CSV template: the header line and one
// example row.
func Template() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write(TemplateColumns)
	w.Write(templateExample)
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}
