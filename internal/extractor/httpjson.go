package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

func init() {
	Register("httpjson", newHTTPJSON)
}

// httpJSON POSTs {"text": ...} to a configured endpoint and expects a flat
// JSON object of string fields back. It is the generic adapter for any
// sidecar extraction service.
type httpJSON struct {
	endpoint string
	client   *http.Client
}

func newHTTPJSON(cfg Config) (Extractor, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("httpjson extractor: endpoint not configured")
	}
	return &httpJSON{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeoutOf(cfg)},
	}, nil
}

func (h *httpJSON) Name() string { return "httpjson" }

func (h *httpJSON) Extract(ctx context.Context, text string) (Card, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpjson extract: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("httpjson extract: %s returned %d: %s", h.endpoint, resp.StatusCode, string(b))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("httpjson extract: invalid JSON after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}

	card := make(Card, len(raw))
	for k, v := range raw {
		card[k] = fmt.Sprint(v)
	}
	return card, nil
}
