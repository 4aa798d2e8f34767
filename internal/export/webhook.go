package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/JaimeStill/augur/internal/contact"
)

// ErrDeliveryFailed wraps every failed webhook delivery.
var ErrDeliveryFailed = errors.New("webhook delivery failed")

// Payload is the single request body pushed to a webhook receiver. Contact
// fields use the snake_case JSON keys of contact.Contact.
type Payload struct {
	Contacts  []contact.Contact `json:"contacts"`
	Timestamp string            `json:"timestamp"`
	Count     int               `json:"count"`
}

// NewPayload builds a payload for contacts stamped with now in RFC 3339 UTC.
func NewPayload(contacts []contact.Contact, now time.Time) Payload {
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	return Payload{
		Contacts:  contacts,
		Timestamp: now.UTC().Format(time.RFC3339),
		Count:     len(contacts),
	}
}

// WebhookClient posts payloads to webhook receivers.
type WebhookClient struct {
	client  *http.Client
	headers map[string]string
	logger  *slog.Logger
}

// NewWebhookClient creates a client with the given request timeout and
// headers added to every request.
func NewWebhookClient(timeout time.Duration, headers map[string]string, logger *slog.Logger) *WebhookClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookClient{
		client:  &http.Client{Timeout: timeout},
		headers: maps.Clone(headers),
		logger:  logger.With("system", "webhook"),
	}
}

// Deliver makes exactly one POST attempt. Delivery succeeds only when the
// receiver answers with a 2xx status; otherwise it returns false and an
// error wrapping ErrDeliveryFailed.
func (w *WebhookClient) Deliver(ctx context.Context, url string, payload Payload) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("%w: encode payload: %v", ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: build request: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: status %d body=%q", ErrDeliveryFailed, resp.StatusCode, truncate(snippet))
	}

	w.logger.Info("webhook delivered", "url", url, "count", payload.Count, "status", resp.StatusCode)
	return true, nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
