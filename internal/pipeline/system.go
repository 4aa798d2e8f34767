// Package pipeline orchestrates the contact lifecycle over the contact store:
// ingestion, scoring, enrichment, audience selection, and export. Every
// mutating operation reads the full collection, computes a new one, and
// replaces it.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/augur/internal/audience"
	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/internal/enrichment"
	"github.com/JaimeStill/augur/internal/export"
	"github.com/JaimeStill/augur/internal/ingest"
	"github.com/JaimeStill/augur/pkg/pagination"
)

// System defines the public contract for contact pipeline operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filter audience.Filter,
	) (*pagination.PageResult[contact.Contact], error)

	Find(ctx context.Context, id uuid.UUID) (*contact.Contact, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*contact.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
	Facets(ctx context.Context) (audience.Facets, error)

	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
	Discover(ctx context.Context, query string) (*ImportResult, error)
	Score(ctx context.Context) (*ScoreResult, error)
	Enrich(ctx context.Context) (*EnrichResult, error)

	Export(ctx context.Context, cmd ExportCommand) (*ExportResult, error)
	SendWebhook(ctx context.Context, cmd WebhookCommand) (*WebhookResult, error)
}

// Searcher fetches search results for discovery ingestion.
type Searcher interface {
	Search(ctx context.Context, query string) ([]ingest.SearchResult, error)
}

// Deliverer pushes a payload to a webhook receiver.
type Deliverer interface {
	Deliver(ctx context.Context, url string, payload export.Payload) (bool, error)
}

// BatchEnricher enriches a full contact collection.
type BatchEnricher interface {
	Run(ctx context.Context, contacts []contact.Contact, now time.Time, progress chan<- enrichment.Progress) ([]contact.Contact, error)
}

// Archiver stores exported documents.
type Archiver interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}

// UpdateCommand carries field replacements. Empty strings, a nil keyword
// slice, and a nil activity date leave the existing value in place.
type UpdateCommand struct {
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Name         string     `json:"name"`
	Company      string     `json:"company"`
	Industry     string     `json:"industry"`
	Location     string     `json:"location"`
	Keywords     []string   `json:"keywords"`
	ActivityDate *time.Time `json:"activity_date"`
}

// ImportResult reports the contacts accepted by an ingestion pass and the
// per-item rejections.
type ImportResult struct {
	Imported int               `json:"imported"`
	Errors   []string          `json:"errors"`
	Contacts []contact.Contact `json:"contacts"`
}

// ScoreResult summarizes a rescoring pass by level.
type ScoreResult struct {
	Total  int                         `json:"total"`
	Counts map[contact.IntentLevel]int `json:"counts"`
}

// EnrichResult summarizes an enrichment batch.
type EnrichResult struct {
	Total int `json:"total"`
}

// ExportFormat selects the rendered export document.
type ExportFormat string

const (
	FormatPlain  ExportFormat = "plain"
	FormatHashed ExportFormat = "hashed"
)

// ExportCommand selects an audience and the document to render for it.
type ExportCommand struct {
	Format   ExportFormat    `json:"format"`
	Filter   audience.Filter `json:"filter"`
	Filename string          `json:"filename"`
	Archive  bool            `json:"archive"`
}

// ExportResult is a rendered export document.
type ExportResult struct {
	Filename   string `json:"filename"`
	Count      int    `json:"count"`
	ArchiveKey string `json:"archive_key,omitempty"`
	Body       []byte `json:"-"`
}

// WebhookCommand selects an audience to push. An empty URL uses the
// configured receiver.
type WebhookCommand struct {
	Filter audience.Filter `json:"filter"`
	URL    string          `json:"url"`
}

// WebhookResult reports whether the receiver accepted the payload.
type WebhookResult struct {
	Delivered bool   `json:"delivered"`
	Count     int    `json:"count"`
	Error     string `json:"error,omitempty"`
}
