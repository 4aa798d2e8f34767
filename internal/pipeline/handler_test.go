package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/augur/internal/audience"
	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/internal/pipeline"
	"github.com/JaimeStill/augur/pkg/pagination"
	"github.com/JaimeStill/augur/pkg/routes"
)

type mockSystem struct {
	listFn     func(ctx context.Context, page pagination.PageRequest, filter audience.Filter) (*pagination.PageResult[contact.Contact], error)
	findFn     func(ctx context.Context, id uuid.UUID) (*contact.Contact, error)
	updateFn   func(ctx context.Context, id uuid.UUID, cmd pipeline.UpdateCommand) (*contact.Contact, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
	clearFn    func(ctx context.Context) error
	facetsFn   func(ctx context.Context) (audience.Facets, error)
	importFn   func(ctx context.Context, r io.Reader) (*pipeline.ImportResult, error)
	discoverFn func(ctx context.Context, query string) (*pipeline.ImportResult, error)
	scoreFn    func(ctx context.Context) (*pipeline.ScoreResult, error)
	enrichFn   func(ctx context.Context) (*pipeline.EnrichResult, error)
	exportFn   func(ctx context.Context, cmd pipeline.ExportCommand) (*pipeline.ExportResult, error)
	webhookFn  func(ctx context.Context, cmd pipeline.WebhookCommand) (*pipeline.WebhookResult, error)
}

func (m *mockSystem) Handler(maxUploadSize int64) *pipeline.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filter audience.Filter) (*pagination.PageResult[contact.Contact], error) {
	return m.listFn(ctx, page, filter)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*contact.Contact, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd pipeline.UpdateCommand) (*contact.Contact, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Clear(ctx context.Context) error {
	return m.clearFn(ctx)
}

func (m *mockSystem) Facets(ctx context.Context) (audience.Facets, error) {
	return m.facetsFn(ctx)
}

func (m *mockSystem) ImportCSV(ctx context.Context, r io.Reader) (*pipeline.ImportResult, error) {
	return m.importFn(ctx, r)
}

func (m *mockSystem) Discover(ctx context.Context, query string) (*pipeline.ImportResult, error) {
	return m.discoverFn(ctx, query)
}

func (m *mockSystem) Score(ctx context.Context) (*pipeline.ScoreResult, error) {
	return m.scoreFn(ctx)
}

func (m *mockSystem) Enrich(ctx context.Context) (*pipeline.EnrichResult, error) {
	return m.enrichFn(ctx)
}

func (m *mockSystem) Export(ctx context.Context, cmd pipeline.ExportCommand) (*pipeline.ExportResult, error) {
	return m.exportFn(ctx, cmd)
}

func (m *mockSystem) SendWebhook(ctx context.Context, cmd pipeline.WebhookCommand) (*pipeline.WebhookResult, error) {
	return m.webhookFn(ctx, cmd)
}

func newTestHandler(sys pipeline.System) *pipeline.Handler {
	return pipeline.NewHandler(
		sys,
		discardLogger(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		1024*1024,
	)
}

func setupMux(h *pipeline.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func sampleContact() contact.Contact {
	return contact.Contact{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Email:       "a@x.com",
		IntentScore: contact.IntentHigh,
		Source:      contact.SourceCSV,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestHandlerList(t *testing.T) {
	var captured audience.Filter
	var capturedPage pagination.PageRequest

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filter audience.Filter) (*pagination.PageResult[contact.Contact], error) {
			captured, capturedPage = filter, page
			result := pagination.NewPageResult([]contact.Contact{sampleContact()}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	t.Run("passes query filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/contacts?industry=tech&intent=high&page=2&page_size=5", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Industry != "tech" || len(captured.IntentLevels) != 1 || captured.IntentLevels[0] != contact.IntentHigh {
			t.Errorf("filter = %+v", captured)
		}
		if capturedPage.Page != 2 || capturedPage.PageSize != 5 {
			t.Errorf("page = %+v", capturedPage)
		}

		var result pagination.PageResult[contact.Contact]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(result.Data) != 1 || result.Data[0].Email != "a@x.com" {
			t.Errorf("data = %+v", result.Data)
		}
	})

	t.Run("rejects invalid filter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/contacts?intent=urgent", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerSearch(t *testing.T) {
	var captured audience.Filter
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filter audience.Filter) (*pagination.PageResult[contact.Contact], error) {
			captured = filter
			result := pagination.NewPageResult[contact.Contact](nil, 0, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	body := `{"page":1,"page_size":10,"location":"austin","keywords":["buy"],"date_range":{"start":"2026-03-01T00:00:00Z","end":"2026-03-31T00:00:00Z"}}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contacts/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Location != "austin" || len(captured.Keywords) != 1 || captured.DateRange == nil {
		t.Errorf("filter = %+v", captured)
	}
}

func TestHandlerFind(t *testing.T) {
	c := sampleContact()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*contact.Contact, error) {
			if id == c.ID {
				return &c, nil
			}
			return nil, pipeline.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"found", "/contacts/" + c.ID.String(), http.StatusOK},
		{"not found", "/contacts/" + uuid.New().String(), http.StatusNotFound},
		{"invalid id", "/contacts/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerUpdate(t *testing.T) {
	var captured pipeline.UpdateCommand
	sys := &mockSystem{
		updateFn: func(_ context.Context, id uuid.UUID, cmd pipeline.UpdateCommand) (*contact.Contact, error) {
			captured = cmd
			c := sampleContact()
			c.Company = cmd.Company
			return &c, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/contacts/"+sampleContact().ID.String(), strings.NewReader(`{"company":"Acme","keywords":["buy"]}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Company != "Acme" || len(captured.Keywords) != 1 {
		t.Errorf("command = %+v", captured)
	}
}

func TestHandlerDeleteAndClear(t *testing.T) {
	var deleted uuid.UUID
	var cleared bool
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
		clearFn: func(context.Context) error {
			cleared = true
			return nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	id := uuid.New()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/contacts/"+id.String(), nil))
	if rec.Code != http.StatusNoContent || deleted != id {
		t.Errorf("delete status = %d, id = %v", rec.Code, deleted)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/contacts", nil))
	if rec.Code != http.StatusNoContent || !cleared {
		t.Errorf("clear status = %d, cleared = %v", rec.Code, cleared)
	}
}

func TestHandlerTemplate(t *testing.T) {
	mux := setupMux(newTestHandler(&mockSystem{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/contacts/template", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "email,phone,name,company,industry,location,keywords\n") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandlerImport(t *testing.T) {
	var received string
	sys := &mockSystem{
		importFn: func(_ context.Context, r io.Reader) (*pipeline.ImportResult, error) {
			data, _ := io.ReadAll(r)
			received = string(data)
			return &pipeline.ImportResult{Imported: 1, Errors: []string{}}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	t.Run("accepts multipart file", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("file", "contacts.csv")
		fw.Write([]byte("email\na@x.com\n"))
		mw.Close()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/contacts/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if received != "email\na@x.com\n" {
			t.Errorf("received = %q", received)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("other", "x")
		mw.Close()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/contacts/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("body not multipart", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/contacts/import", strings.NewReader(`{"email":"a@x.com"}`))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed multipart", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/contacts/import", strings.NewReader("not a multipart body"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("file over the upload limit", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("file", "contacts.csv")
		fw.Write(bytes.Repeat([]byte("a@x.com\n"), 2*1024*1024/8))
		mw.Close()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/contacts/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})
}

func TestHandlerDiscover(t *testing.T) {
	sys := &mockSystem{
		discoverFn: func(_ context.Context, query string) (*pipeline.ImportResult, error) {
			if query == "" {
				return nil, pipeline.ErrSearchNotConfigured
			}
			return &pipeline.ImportResult{Imported: 2}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contacts/discover", strings.NewReader(`{"query":"crm"}`)))
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contacts/discover", strings.NewReader(`{}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandlerScoreAndEnrich(t *testing.T) {
	sys := &mockSystem{
		scoreFn: func(context.Context) (*pipeline.ScoreResult, error) {
			return &pipeline.ScoreResult{Total: 3}, nil
		},
		enrichFn: func(context.Context) (*pipeline.EnrichResult, error) {
			return nil, pipeline.ErrEnrichmentNotConfigured
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contacts/score", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("score status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contacts/enrich", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("enrich status = %d, want 503", rec.Code)
	}
}

func TestHandlerExport(t *testing.T) {
	var captured pipeline.ExportCommand
	sys := &mockSystem{
		exportFn: func(_ context.Context, cmd pipeline.ExportCommand) (*pipeline.ExportResult, error) {
			captured = cmd
			return &pipeline.ExportResult{
				Filename:   "segment.csv",
				Count:      1,
				ArchiveKey: "exports/x/segment.csv",
				Body:       []byte("hashed_email\n\"abc\""),
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	body := `{"filter":{"industry":"tech"},"filename":"segment.csv","archive":true}`
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/exports/hashed", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Format != pipeline.FormatHashed || captured.Filter.Industry != "tech" || !captured.Archive {
		t.Errorf("command = %+v", captured)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="segment.csv"` {
		t.Errorf("content-disposition = %s", cd)
	}
	if key := rec.Header().Get("X-Archive-Key"); key != "exports/x/segment.csv" {
		t.Errorf("archive key = %s", key)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/exports/csv", strings.NewReader(`{}`)))
	if captured.Format != pipeline.FormatPlain {
		t.Errorf("format = %q, want plain", captured.Format)
	}
}

func TestHandlerWebhook(t *testing.T) {
	delivered := true
	sys := &mockSystem{
		webhookFn: func(_ context.Context, cmd pipeline.WebhookCommand) (*pipeline.WebhookResult, error) {
			return &pipeline.WebhookResult{Delivered: delivered, Count: 4}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/exports/webhook", strings.NewReader(`{"url":"https://hooks.example"}`)))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var result pipeline.WebhookResult
	json.NewDecoder(rec.Body).Decode(&result)
	if !result.Delivered || result.Count != 4 {
		t.Errorf("result = %+v", result)
	}

	delivered = false
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/exports/webhook", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{pipeline.ErrNotFound, http.StatusNotFound},
		{pipeline.ErrInvalidExport, http.StatusBadRequest},
		{audience.ErrInvalidFilter, http.StatusBadRequest},
		{pipeline.ErrWebhookNotConfigured, http.StatusServiceUnavailable},
		{pipeline.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{context.Canceled, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := pipeline.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
