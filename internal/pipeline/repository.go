package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/augur/internal/audience"
	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/internal/enrichment"
	"github.com/JaimeStill/augur/internal/export"
	"github.com/JaimeStill/augur/internal/ingest"
	"github.com/JaimeStill/augur/internal/intent"
	"github.com/JaimeStill/augur/pkg/pagination"
)

// Default export filenames.
const (
	// ArchivePrefix is the blob key prefix under which exports are archived.
	ArchivePrefix = "exports"

	DefaultPlainFilename  = "audience.csv"
	DefaultHashedFilename = "hashed_audience.csv"
)

// Deps holds the store and the optional collaborators. A nil collaborator
// disables the operations that need it.
type Deps struct {
	Store      contact.Store
	Searcher   Searcher
	Deliverer  Deliverer
	Enricher   BatchEnricher
	Archiver   Archiver
	WebhookURL string
	Pagination pagination.Config
	Logger     *slog.Logger
	Now        func() time.Time
}

type repo struct {
	store      contact.Store
	searcher   Searcher
	deliverer  Deliverer
	enricher   BatchEnricher
	archiver   Archiver
	webhookURL string
	pagination pagination.Config
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a pipeline implementing the System interface.
func New(deps Deps) System {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &repo{
		store:      deps.Store,
		searcher:   deps.Searcher,
		deliverer:  deps.Deliverer,
		enricher:   deps.Enricher,
		archiver:   deps.Archiver,
		webhookURL: deps.WebhookURL,
		pagination: deps.Pagination,
		logger:     deps.Logger.With("system", "pipeline"),
		now:        now,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filter audience.Filter,
) (*pagination.PageResult[contact.Contact], error) {
	page.Normalize(r.pagination)

	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	matched := audience.Apply(all, filter)
	if term := page.SearchTerm(); term != "" {
		matched = slices.DeleteFunc(matched, func(c contact.Contact) bool {
			return !matchesSearch(c, term)
		})
	}

	result := pagination.Paginate(matched, page)
	return &result, nil
}

func matchesSearch(c contact.Contact, term string) bool {
	term = strings.ToLower(term)
	for _, v := range []string{c.Email, c.Phone, c.Name, c.Company} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*contact.Contact, error) {
	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	i := indexOf(all, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return &all[i], nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*contact.Contact, error) {
	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	i := indexOf(all, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	updated := applyUpdate(all[i], cmd)
	all[i] = intent.DefaultLexicon.Score(updated, r.now())

	if err := r.store.ReplaceAll(ctx, all); err != nil {
		return nil, fmt.Errorf("save contacts: %w", err)
	}

	r.logger.Info("contact updated", "id", id, "intent", all[i].IntentScore)
	return &all[i], nil
}

func applyUpdate(c contact.Contact, cmd UpdateCommand) contact.Contact {
	out := c.Clone()
	replace := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}

	replace(&out.Email, cmd.Email)
	replace(&out.Phone, cmd.Phone)
	replace(&out.Name, cmd.Name)
	replace(&out.Company, cmd.Company)
	replace(&out.Industry, cmd.Industry)
	replace(&out.Location, cmd.Location)

	if cmd.Keywords != nil {
		out.Keywords = slices.Clone(cmd.Keywords)
	}
	if cmd.ActivityDate != nil {
		t := *cmd.ActivityDate
		out.ActivityDate = &t
	}
	return out
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}

	i := indexOf(all, id)
	if i < 0 {
		return ErrNotFound
	}

	if err := r.store.ReplaceAll(ctx, slices.Delete(all, i, i+1)); err != nil {
		return fmt.Errorf("save contacts: %w", err)
	}

	r.logger.Info("contact deleted", "id", id)
	return nil
}

func (r *repo) Clear(ctx context.Context) error {
	if err := r.store.ReplaceAll(ctx, []contact.Contact{}); err != nil {
		return fmt.Errorf("clear contacts: %w", err)
	}
	r.logger.Info("contacts cleared")
	return nil
}

func (r *repo) Facets(ctx context.Context) (audience.Facets, error) {
	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return audience.Facets{}, fmt.Errorf("load contacts: %w", err)
	}
	return audience.ExtractFacets(all), nil
}

func (r *repo) ImportCSV(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	now := r.now()

	result, err := ingest.ReadCSV(reader, now)
	if err != nil {
		return nil, err
	}

	return r.commitIngested(ctx, "csv", result, now)
}

func (r *repo) Discover(ctx context.Context, query string) (*ImportResult, error) {
	if r.searcher == nil {
		return nil, ErrSearchNotConfigured
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ingest.ErrEmptyQuery
	}

	results, err := r.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	now := r.now()
	return r.commitIngested(ctx, "search", ingest.FromSearchResults(results, now), now)
}

// commitIngested scores newly ingested contacts and adds them after the stored ones.
func (r *repo) commitIngested(ctx context.Context, source string, result ingest.Result, now time.Time) (*ImportResult, error) {
	for _, msg := range result.Errors {
		r.logger.Warn("ingestion rejected", "source", source, "reason", msg)
	}

	scored := intent.ScoreAll(result.Contacts, now)

	if len(scored) > 0 {
		all, err := r.store.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load contacts: %w", err)
		}
		if err := r.store.ReplaceAll(ctx, append(all, scored...)); err != nil {
			return nil, fmt.Errorf("save contacts: %w", err)
		}
	}

	r.logger.Info(
		"contacts ingested",
		"source", source,
		"imported", len(scored),
		"rejected", len(result.Errors),
	)

	return &ImportResult{
		Imported: len(scored),
		Errors:   result.Errors,
		Contacts: scored,
	}, nil
}

func (r *repo) Score(ctx context.Context) (*ScoreResult, error) {
	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	scored := intent.ScoreAll(all, r.now())
	if err := r.store.ReplaceAll(ctx, scored); err != nil {
		return nil, fmt.Errorf("save contacts: %w", err)
	}

	counts := make(map[contact.IntentLevel]int, len(contact.Levels))
	for _, l := range contact.Levels {
		counts[l] = 0
	}
	for _, c := range scored {
		counts[c.IntentScore]++
	}

	r.logger.Info("contacts rescored", "total", len(scored))
	return &ScoreResult{Total: len(scored), Counts: counts}, nil
}

func (r *repo) Enrich(ctx context.Context) (*EnrichResult, error) {
	if r.enricher == nil {
		return nil, ErrEnrichmentNotConfigured
	}

	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	progress := make(chan enrichment.Progress, len(all))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			r.logger.Debug("enrichment progress", "current", p.Current, "total", p.Total, "contact", p.ContactID)
		}
	}()

	enriched, err := r.enricher.Run(ctx, all, r.now(), progress)
	close(progress)
	<-done

	if err != nil {
		return nil, fmt.Errorf("enrich contacts: %w", err)
	}

	if err := r.store.ReplaceAll(ctx, enriched); err != nil {
		return nil, fmt.Errorf("save contacts: %w", err)
	}

	return &EnrichResult{Total: len(enriched)}, nil
}

func (r *repo) Export(ctx context.Context, cmd ExportCommand) (*ExportResult, error) {
	if cmd.Format == "" {
		cmd.Format = FormatPlain
	}

	filename, err := exportFilename(cmd)
	if err != nil {
		return nil, err
	}

	if cmd.Archive && r.archiver == nil {
		return nil, ErrArchiveUnavailable
	}

	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	selected := audience.Apply(all, cmd.Filter)

	var body bytes.Buffer
	switch cmd.Format {
	case FormatPlain:
		err = export.WritePlain(&body, selected)
	case FormatHashed:
		err = export.WriteHashed(&body, selected)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidExport, cmd.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	result := &ExportResult{
		Filename: filename,
		Count:    len(selected),
		Body:     body.Bytes(),
	}

	if cmd.Archive {
		key := path.Join(ArchivePrefix, r.now().UTC().Format("20060102T150405Z"), filename)
		if err := r.archiver.Upload(ctx, key, bytes.NewReader(result.Body), "text/csv"); err != nil {
			return nil, fmt.Errorf("archive export: %w", err)
		}
		result.ArchiveKey = key
	}

	r.logger.Info(
		"audience exported",
		"format", cmd.Format,
		"count", result.Count,
		"archived", cmd.Archive,
	)
	return result, nil
}

func exportFilename(cmd ExportCommand) (string, error) {
	name := strings.TrimSpace(cmd.Filename)
	if name == "" {
		if cmd.Format == FormatHashed {
			return DefaultHashedFilename, nil
		}
		return DefaultPlainFilename, nil
	}

	if strings.ContainsAny(name, `/\"`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: filename %q", ErrInvalidExport, name)
	}
	return name, nil
}

func (r *repo) SendWebhook(ctx context.Context, cmd WebhookCommand) (*WebhookResult, error) {
	url := strings.TrimSpace(cmd.URL)
	if url == "" {
		url = r.webhookURL
	}
	if url == "" || r.deliverer == nil {
		return nil, ErrWebhookNotConfigured
	}

	all, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	selected := audience.Apply(all, cmd.Filter)

	payload := export.NewPayload(selected, r.now())
	delivered, err := r.deliverer.Deliver(ctx, url, payload)

	result := &WebhookResult{Delivered: delivered, Count: payload.Count}
	if err != nil {
		result.Error = err.Error()
		r.logger.Warn("webhook delivery failed", "count", payload.Count, "error", err)
	}
	return result, nil
}

func indexOf(contacts []contact.Contact, id uuid.UUID) int {
	return slices.IndexFunc(contacts, func(c contact.Contact) bool {
		return c.ID == id
	})
}
