package pipeline

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/augur/internal/audience"
	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/internal/enrichment"
	"github.com/JaimeStill/augur/internal/export"
	"github.com/JaimeStill/augur/internal/ingest"
)

// Domain errors for pipeline operations.
var (
	ErrNotFound                = errors.New("contact not found")
	ErrInvalidInput            = errors.New("invalid request")
	ErrFileTooLarge            = errors.New("file exceeds maximum upload size")
	ErrInvalidExport           = errors.New("invalid export request")
	ErrWebhookNotConfigured    = errors.New("webhook url not configured")
	ErrEnrichmentNotConfigured = errors.New("enrichment not configured")
	ErrSearchNotConfigured     = errors.New("search not configured")
	ErrArchiveUnavailable      = errors.New("export archive storage not configured")
)

// MapHTTPStatus maps pipeline and collaborator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidExport),
		errors.Is(err, audience.ErrInvalidFilter),
		errors.Is(err, contact.ErrInvalidIntent),
		errors.Is(err, ingest.ErrMalformedCSV),
		errors.Is(err, ingest.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrWebhookNotConfigured),
		errors.Is(err, ErrEnrichmentNotConfigured),
		errors.Is(err, ErrSearchNotConfigured),
		errors.Is(err, ErrArchiveUnavailable),
		errors.Is(err, ingest.ErrSearchNotConfigured),
		errors.Is(err, enrichment.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, ingest.ErrSearchFailed),
		errors.Is(err, export.ErrDeliveryFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
