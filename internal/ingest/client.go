package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrSearchNotConfigured indicates no search API key is configured.
	ErrSearchNotConfigured = errors.New("search provider not configured")
	// ErrSearchFailed indicates the search provider rejected or failed the request.
	ErrSearchFailed = errors.New("search request failed")
	// ErrEmptyQuery indicates a blank search query.
	ErrEmptyQuery = errors.New("search query must not be empty")
)

type searchResponse struct {
	OrganicResults []SearchResult `json:"organic_results"`
	Error          string         `json:"error"`
}

// SearchClient queries the search provider's JSON endpoint.
type SearchClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewSearchClient creates a client for the provider at baseURL.
func NewSearchClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *SearchClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SearchClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("system", "search"),
	}
}

// Search returns the organic results for query.
func (s *SearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if s.apiKey == "" {
		return nil, ErrSearchNotConfigured
	}
	if query == "" {
		return nil, ErrEmptyQuery
	}

	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %v", ErrSearchFailed, err)
	}
	params := u.Query()
	params.Set("q", query)
	params.Set("api_key", s.apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, resp.Status)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, body.Error)
	}

	s.logger.Info("search completed", "query", query, "results", len(body.OrganicResults))

	if body.OrganicResults == nil {
		return []SearchResult{}, nil
	}
	return body.OrganicResults, nil
}
