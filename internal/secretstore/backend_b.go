package secretstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

type backendB struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

func newBackendB(cfg Config, limiter *rate.Limiter) (Client, error) {
	return &backendB{
		cfg:     cfg,
		http:    &http.Client{Timeout: httpTimeout},
		limiter: limiter,
	}, nil
}

func (b *backendB) ProviderName() string { return "backend-b" }

func (b *backendB) GetSecret(ctx context.Context, path string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("secretstore: rate limit wait: %w", ingesterr.ErrCancelled)
	}

	url := strings.TrimRight(b.cfg.BaseURL, "/") + "/api/secrets/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("secretstore: build request: %w: %v", ingesterr.ErrInternal, err)
	}
	if b.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", b.cfg.APIKey)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return "", classifyTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("secretstore: backend-b request failed with status %d: %s: %w", resp.StatusCode, string(body), ingesterr.ErrTransport)
	}

	var payload struct {
		Secret struct {
			Value string `json:"value"`
		} `json:"secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("secretstore: decode backend-b response: %w: %v", ingesterr.ErrTransport, err)
	}

	if payload.Secret.Value == "" {
		return "", fmt.Errorf("secretstore: secret %q: %w", path, ingesterr.ErrNotFound)
	}
	return payload.Secret.Value, nil
}
