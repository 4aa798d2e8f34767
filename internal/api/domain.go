package api

import (
	"github.com/JaimeStill/augur/internal/config"
	"github.com/JaimeStill/augur/internal/enrichment"
	"github.com/JaimeStill/augur/internal/export"
	"github.com/JaimeStill/augur/internal/ingest"
	"github.com/JaimeStill/augur/internal/pipeline"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Pipeline pipeline.System
}

// NewDomain creates the pipeline and its external collaborators. Search and
// enrichment are wired only when their API keys are configured; archiving
// only when blob storage is enabled.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	deps := pipeline.Deps{
		Store: runtime.Store,
		Deliverer: export.NewWebhookClient(
			cfg.Webhook.TimeoutDuration(),
			cfg.Webhook.Headers,
			runtime.Logger,
		),
		WebhookURL: cfg.Webhook.URL,
		Pagination: runtime.Pagination,
		Logger:     runtime.Logger,
	}

	if cfg.Search.APIKey != "" {
		deps.Searcher = ingest.NewSearchClient(
			cfg.Search.BaseURL,
			cfg.Search.APIKey,
			cfg.Search.TimeoutDuration(),
			runtime.Logger,
		)
	}

	if cfg.Enrichment.Enabled() {
		client := enrichment.NewClient(
			cfg.Enrichment.BaseURL,
			cfg.Enrichment.APIKey,
			cfg.Enrichment.TimeoutDuration(),
		)
		deps.Enricher = enrichment.NewBatch(
			client,
			cfg.Enrichment.DelayDuration(),
			cfg.Enrichment.Concurrency,
			runtime.Logger,
		)
	}

	if runtime.Storage != nil {
		deps.Archiver = runtime.Storage
	}

	return &Domain{
		Pipeline: pipeline.New(deps),
	}
}
