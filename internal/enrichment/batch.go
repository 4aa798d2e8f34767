package enrichment

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/augur/internal/contact"
)

// Enricher looks up provider data for a single contact.
type Enricher interface {
	Enrich(ctx context.Context, c contact.Contact) (Response, error)
}

// Progress is reported after each contact completes.
type Progress struct {
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	ContactID uuid.UUID `json:"contact_id"`
}

// Batch enriches contact collections with bounded concurrency and a fixed
// delay between request starts.
type Batch struct {
	enricher    Enricher
	delay       time.Duration
	concurrency int
	logger      *slog.Logger
}

// NewBatch creates a batch runner. A concurrency below 1 runs strictly
// sequentially; a non-positive delay disables spacing.
func NewBatch(enricher Enricher, delay time.Duration, concurrency int, logger *slog.Logger) *Batch {
	return &Batch{
		enricher:    enricher,
		delay:       delay,
		concurrency: max(concurrency, 1),
		logger:      logger.With("system", "enrichment"),
	}
}

// Run enriches every contact and returns the results in input order. A
// failed lookup keeps that contact unchanged and the batch proceeds.
// Cancelling ctx fails the whole batch and no results are returned.
// Progress is sent on progress when it is non-nil; Run never closes it.
func (b *Batch) Run(ctx context.Context, contacts []contact.Contact, now time.Time, progress chan<- Progress) ([]contact.Contact, error) {
	out := make([]contact.Contact, len(contacts))
	total := len(contacts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	var ticks <-chan time.Time
	if b.delay > 0 {
		ticker := time.NewTicker(b.delay)
		defer ticker.Stop()
		ticks = ticker.C
	}

	var completed atomic.Int64

	for i, c := range contacts {
		if i > 0 && ticks != nil {
			select {
			case <-ticks:
			case <-gctx.Done():
				g.Wait()
				return nil, context.Cause(gctx)
			}
		}

		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			resp, err := b.enricher.Enrich(gctx, c)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.logger.Warn("enrichment failed, keeping original record", "contact", c.ID, "error", err)
				out[i] = c.Clone()
			} else {
				out[i] = Merge(c, resp, now)
			}

			n := int(completed.Add(1))
			if progress != nil {
				select {
				case progress <- Progress{Current: n, Total: total, ContactID: c.ID}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.logger.Info("enrichment batch complete", "total", total)
	return out, nil
}
