package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/augur/internal/api"
	"github.com/JaimeStill/augur/internal/config"
	"github.com/JaimeStill/augur/internal/infrastructure"
	"github.com/JaimeStill/augur/pkg/lifecycle"
	"github.com/JaimeStill/augur/pkg/middleware"
	"github.com/JaimeStill/augur/pkg/pagination"
	"github.com/JaimeStill/augur/pkg/storage"
)

const importCSV = "email,phone,name,company,industry,location,keywords\n" +
	"a@example.com,,Ann,Acme,Technology,\"Austin, TX\",\"buy,demo\"\n" +
	",555-0100,Bob,Beta,Finance,Boston,review\n"

type memoryStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memoryStorage) Start(lc *lifecycle.Coordinator) error { return nil }

func (m *memoryStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) (*storage.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Blob{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   "text/csv",
		ContentLength: int64(len(data)),
	}, nil
}

func validConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Backend: config.BackendMemory},
		Webhook: config.WebhookConfig{
			Timeout: "5s",
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "1MB",
			CORS:          middleware.CORSConfig{Enabled: false},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Version: "0.1.0",
	}
}

func newModule(t *testing.T, store storage.System) http.Handler {
	t.Helper()
	cfg := validConfig()

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	if store != nil {
		infra.Storage = store
	}

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Prefix() != "/api" {
		t.Fatalf("prefix: got %s, want /api", m.Prefix())
	}
	return http.HandlerFunc(m.Serve)
}

func importContacts(t *testing.T, h http.Handler) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "contacts.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte(importCSV))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/contacts/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("import status: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestImportAndList(t *testing.T) {
	h := newModule(t, nil)
	importContacts(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/contacts?intent=High", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d, want 200", rec.Code)
	}

	var page struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 {
		t.Fatalf("high intent page: got total %d, %d rows", page.Total, len(page.Data))
	}
	if page.Data[0]["email"] != "a@example.com" {
		t.Errorf("email: got %v, want a@example.com", page.Data[0]["email"])
	}
}

func TestFacets(t *testing.T) {
	h := newModule(t, nil)
	importContacts(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/contacts/facets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("facets status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Technology") || !strings.Contains(rec.Body.String(), "Austin, TX") {
		t.Errorf("facets body: %s", rec.Body.String())
	}
}

func TestUnconfiguredCollaborators(t *testing.T) {
	h := newModule(t, nil)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"enrich", "/api/contacts/enrich", "", http.StatusServiceUnavailable},
		{"discover", "/api/contacts/discover", `{"query":"buy crm software"}`, http.StatusServiceUnavailable},
		{"webhook", "/api/exports/webhook", `{"filter":{}}`, http.StatusServiceUnavailable},
		{"archive", "/api/exports/csv", `{"filter":{},"archive":true}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestArchiveRouteRequiresStorage(t *testing.T) {
	h := newModule(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/exports/archive/exports/x/audience.csv", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestExportArchiveRoundTrip(t *testing.T) {
	store := &memoryStorage{blobs: make(map[string][]byte)}
	h := newModule(t, store)
	importContacts(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(
		"POST", "/api/exports/csv",
		strings.NewReader(`{"filter":{},"filename":"q3.csv","archive":true}`),
	))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	key := rec.Header().Get("X-Archive-Key")
	if !strings.HasPrefix(key, "exports/") || !strings.HasSuffix(key, "/q3.csv") {
		t.Fatalf("archive key: got %q", key)
	}
	exported := rec.Body.String()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/exports/archive/"+key, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download status: got %d, want 200", rec.Code)
	}
	if rec.Body.String() != exported {
		t.Errorf("archived body differs from export response")
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="q3.csv"` {
		t.Errorf("content-disposition: got %s", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/exports/archive/exports/missing.csv", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing blob status: got %d, want 404", rec.Code)
	}
}

func TestArchiveRejectsKeysOutsideExports(t *testing.T) {
	store := &memoryStorage{blobs: map[string][]byte{
		"private/report.csv": []byte("secret"),
		"exportsheet.csv":    []byte("secret"),
	}}
	h := newModule(t, store)

	for _, key := range []string{"private/report.csv", "exportsheet.csv"} {
		t.Run(key, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/exports/archive/"+key, nil))
			if rec.Code != http.StatusNotFound {
				t.Errorf("status: got %d, want 404", rec.Code)
			}
			if strings.Contains(rec.Body.String(), "secret") {
				t.Error("blob outside the archive prefix was served")
			}
		})
	}
}
