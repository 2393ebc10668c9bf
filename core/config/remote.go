package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Remote fetches configuration from an HTTP endpoint serving a JSON object:
//
//	{"api_key": "...", "websocket_base_url": "...", "default_model": "..."}
//
// The key is reported as pending until the first successful fetch, and also
// when the endpoint served an empty key (the backend provisions keys
// asynchronously on cold start, so an empty key is expected to fill in on a
// later refetch).
type Remote struct {
	configURL  string
	httpClient *http.Client

	fetchOnce sync.Once

	mu      sync.Mutex
	fetched bool
	apiKey  string
	baseURL string
	model   string
}

type RemoteOption func(*Remote)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.httpClient = client
		}
	}
}

func NewRemote(configURL string, opts ...RemoteOption) *Remote {
	remote := &Remote{
		configURL: configURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(remote)
	}

	return remote
}

// CurrentAPIKey never blocks: the first call kicks off the initial fetch in
// the background and reports pending until it lands.
func (r *Remote) CurrentAPIKey() (string, error) {
	r.fetchOnce.Do(func() {
		go func() { _ = r.RefetchConfig(context.Background()) }()
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.fetched || r.apiKey == "" {
		return "", ErrKeyPending
	}
	return r.apiKey, nil
}

func (r *Remote) WebsocketBaseURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.baseURL
}

func (r *Remote) DefaultModel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

func (r *Remote) RefetchConfig(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "fetch remote config")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.configURL, nil)
	if err != nil {
		return r.recordError(span, fmt.Errorf("failed to build config request: %w", err))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return r.recordError(span, fmt.Errorf("failed to fetch config: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return r.recordError(span, fmt.Errorf("config endpoint returned status %d", resp.StatusCode))
	}

	var payload struct {
		APIKey           string `json:"api_key"`
		WebsocketBaseURL string `json:"websocket_base_url"`
		DefaultModel     string `json:"default_model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return r.recordError(span, fmt.Errorf("failed to decode config payload: %w", err))
	}

	r.mu.Lock()
	r.fetched = true
	r.apiKey = payload.APIKey
	if payload.WebsocketBaseURL != "" {
		r.baseURL = payload.WebsocketBaseURL
	}
	if payload.DefaultModel != "" {
		r.model = payload.DefaultModel
	}
	r.mu.Unlock()

	return nil
}

func (r *Remote) recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
