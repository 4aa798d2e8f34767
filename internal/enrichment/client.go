// Package enrichment augments contacts with data from a skip-trace provider
// and runs rate-limited enrichment batches.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/JaimeStill/augur/internal/contact"
)

var (
	// ErrNotConfigured indicates no enrichment API key is configured.
	ErrNotConfigured = errors.New("enrichment provider not configured")
	// ErrRequestFailed indicates the provider rejected or failed a lookup.
	ErrRequestFailed = errors.New("enrichment request failed")
)

// Response is the provider's lookup result. Empty fields carry no update.
type Response struct {
	Name           string         `json:"name"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	Address        string         `json:"address"`
	SocialProfiles []string       `json:"social_profiles"`
	AdditionalData map[string]any `json:"additional_data"`
}

// Client looks up contacts against the provider's HTTP endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a provider client. Lookups authenticate with apiKey as a
// bearer token.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Enrich looks up c by its email, phone, and name.
func (e *Client) Enrich(ctx context.Context, c contact.Contact) (Response, error) {
	if e.apiKey == "" {
		return Response{}, ErrNotConfigured
	}

	u, err := url.Parse(e.baseURL)
	if err != nil {
		return Response{}, fmt.Errorf("%w: base url: %v", ErrRequestFailed, err)
	}
	params := u.Query()
	if c.Email != "" {
		params.Set("email", c.Email)
	}
	if c.Phone != "" {
		params.Set("phone", c.Phone)
	}
	if c.Name != "" {
		params.Set("name", c.Name)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Response{}, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return out, nil
}

// Merge returns a copy of c with the provider response merged in. Non-empty
// response values replace name, company, location, address, and social
// profiles. Additional data keys are merged with provider keys taking
// precedence. The intent score is never touched.
func Merge(c contact.Contact, r Response, now time.Time) contact.Contact {
	out := c.Clone()

	data := contact.EnrichedData{}
	if out.EnrichedData != nil {
		data = *out.EnrichedData
	}

	if r.Address != "" {
		data.Address = r.Address
	}
	if len(r.SocialProfiles) > 0 {
		data.SocialProfiles = slices.Clone(r.SocialProfiles)
	}
	if len(r.AdditionalData) > 0 {
		if data.AdditionalInfo == nil {
			data.AdditionalInfo = make(map[string]any, len(r.AdditionalData))
		}
		maps.Copy(data.AdditionalInfo, r.AdditionalData)
	}
	out.EnrichedData = &data

	if r.Name != "" {
		out.Name = r.Name
	}
	if r.Company != "" {
		out.Company = r.Company
	}
	if r.Location != "" {
		out.Location = r.Location
	}

	out.UpdatedAt = now
	return out
}
