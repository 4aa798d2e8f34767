package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/augur/internal/audience"
	"github.com/JaimeStill/augur/internal/ingest"
	"github.com/JaimeStill/augur/pkg/formatting"
	"github.com/JaimeStill/augur/pkg/handlers"
	"github.com/JaimeStill/augur/pkg/pagination"
	"github.com/JaimeStill/augur/pkg/routes"
)

// Handler provides HTTP endpoints for contact and export operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and audience filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	audience.Filter
}

// DiscoverRequest is the body of the search ingestion endpoint.
type DiscoverRequest struct {
	Query string `json:"query"`
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "pipeline"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the contact and export route groups.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/contacts",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.List},
					{Method: "POST", Pattern: "/search", Handler: h.Search},
					{Method: "GET", Pattern: "/facets", Handler: h.Facets},
					{Method: "GET", Pattern: "/template", Handler: h.Template},
					{Method: "GET", Pattern: "/{id}", Handler: h.Find},
					{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
					{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
					{Method: "DELETE", Pattern: "", Handler: h.Clear},
					{Method: "POST", Pattern: "/import", Handler: h.Import},
					{Method: "POST", Pattern: "/discover", Handler: h.Discover},
					{Method: "POST", Pattern: "/score", Handler: h.Score},
					{Method: "POST", Pattern: "/enrich", Handler: h.Enrich},
				},
			},
			{
				Prefix: "/exports",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/csv", Handler: h.ExportPlain},
					{Method: "POST", Pattern: "/hashed", Handler: h.ExportHashed},
					{Method: "POST", Pattern: "/webhook", Handler: h.Webhook},
				},
			},
		},
	}
}

// List returns a paginated list of contacts matching the query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	filter, err := audience.FromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.List(r.Context(), page, filter)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching contacts.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filter)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Facets returns the distinct industries and locations of stored contacts.
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.sys.Facets(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, facets)
}

// Template serves the CSV import template.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	handlers.RespondAttachment(w, "text/csv; charset=utf-8", "contacts_template.csv", []byte(ingest.Template()))
}

// Find returns a single contact by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Update merges the JSON body into the contact and rescores it.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	var cmd UpdateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	c, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Delete removes a contact by its UUID path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear removes every contact.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Clear(r.Context()); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import ingests a CSV document uploaded as the multipart field "file".
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handlers.RespondError(
				w, h.logger,
				http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w: limit is %s", ErrFileTooLarge, formatting.FormatBytes(maxErr.Limit, 0)),
			)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}
	defer file.Close()

	result, err := h.sys.ImportCSV(r.Context(), file)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Discover ingests contacts found by a search query.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	result, err := h.sys.Discover(r.Context(), req.Query)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Score reclassifies every stored contact.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Score(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Enrich runs an enrichment batch over every stored contact.
func (h *Handler) Enrich(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Enrich(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// ExportPlain renders the selected audience as plain CSV.
func (h *Handler) ExportPlain(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, FormatPlain)
}

// ExportHashed renders the selected audience as hashed CSV.
func (h *Handler) ExportHashed(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, FormatHashed)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format ExportFormat) {
	var cmd ExportCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}
	cmd.Format = format

	result, err := h.sys.Export(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if result.ArchiveKey != "" {
		w.Header().Set("X-Archive-Key", result.ArchiveKey)
	}
	handlers.RespondAttachment(w, "text/csv; charset=utf-8", result.Filename, result.Body)
}

// Webhook pushes the selected audience to a webhook receiver. A rejected
// delivery answers 502 with the delivery result.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var cmd WebhookCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	result, err := h.sys.SendWebhook(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if !result.Delivered {
		status = http.StatusBadGateway
	}
	handlers.RespondJSON(w, status, result)
}
