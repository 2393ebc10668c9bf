package config

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRemoteReportsPendingThenServesFetchedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"api_key":"remote-key","websocket_base_url":"wss://remote.test","default_model":"remote-model"}`))
	}))
	defer server.Close()

	remote := NewRemote(server.URL, WithHTTPClient(server.Client()))

	if _, err := remote.CurrentAPIKey(); !errors.Is(err, ErrKeyPending) {
		t.Fatalf("expected ErrKeyPending before the fetch lands, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		key, err := remote.CurrentAPIKey()
		if err == nil {
			if key != "remote-key" {
				t.Fatalf("expected the fetched key, got %q", key)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected the background fetch to land, still got %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := remote.WebsocketBaseURL(); got != "wss://remote.test" {
		t.Fatalf("expected the fetched base url, got %q", got)
	}
	if got := remote.DefaultModel(); got != "remote-model" {
		t.Fatalf("expected the fetched model, got %q", got)
	}
}

func TestRemoteTreatsEmptyServedKeyAsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"api_key":""}`))
	}))
	defer server.Close()

	remote := NewRemote(server.URL, WithHTTPClient(server.Client()))
	if err := remote.RefetchConfig(context.Background()); err != nil {
		t.Fatalf("expected the fetch to succeed, got %v", err)
	}

	if _, err := remote.CurrentAPIKey(); !errors.Is(err, ErrKeyPending) {
		t.Fatalf("expected an empty served key to stay pending, got %v", err)
	}
}

func TestRemoteRefetchSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	remote := NewRemote(server.URL, WithHTTPClient(server.Client()))
	if err := remote.RefetchConfig(context.Background()); err == nil {
		t.Fatal("expected an error for a non-OK status")
	}
}

func TestStaticFailsFastWithoutKey(t *testing.T) {
	provider := Static{BaseURL: "wss://static.test"}

	_, err := provider.CurrentAPIKey()
	if err == nil {
		t.Fatal("expected an error for a missing key")
	}
	if errors.Is(err, ErrKeyPending) {
		t.Fatal("expected a static missing key to be a hard error, not pending")
	}
}

func TestStaticServesConfiguredValues(t *testing.T) {
	provider := Static{APIKey: "static-key", BaseURL: "wss://static.test", Model: "static-model"}

	key, err := provider.CurrentAPIKey()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if key != "static-key" {
		t.Fatalf("expected the configured key, got %q", key)
	}
	if provider.WebsocketBaseURL() != "wss://static.test" || provider.DefaultModel() != "static-model" {
		t.Fatalf("expected the configured endpoint values, got %q %q",
			provider.WebsocketBaseURL(), provider.DefaultModel())
	}
}