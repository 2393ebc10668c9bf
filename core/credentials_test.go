package livesession

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/config"
)

type scriptedProvider struct {
	lookups      atomic.Int64
	refetches    atomic.Int64
	keyAfter     int64
	errOnLookup  error
	keyOnRefetch bool
}

func (p *scriptedProvider) CurrentAPIKey() (string, error) {
	lookup := p.lookups.Add(1)
	if p.errOnLookup != nil {
		return "", p.errOnLookup
	}
	if p.keyAfter > 0 && lookup >= p.keyAfter {
		return "scripted-key", nil
	}
	if p.keyOnRefetch && p.refetches.Load() > 0 {
		return "refetched-key", nil
	}
	return "", config.ErrKeyPending
}

func (p *scriptedProvider) WebsocketBaseURL() string { return "wss://example.test" }
func (p *scriptedProvider) DefaultModel() string { return "" }

func (p *scriptedProvider) RefetchConfig(context.Context) error {
	p.refetches.Add(1)
	return nil
}

func TestAwaitCredentialReturnsImmediatelyWhenAvailable(t *testing.T) {
	provider := &scriptedProvider{keyAfter: 1}

	key, err := awaitCredential(context.Background(), provider, time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if key != "scripted-key" {
		t.Fatalf("expected the provider's key, got %q", key)
	}
	if lookups := provider.lookups.Load(); lookups != 1 {
		t.Fatalf("expected a single lookup, got %d", lookups)
	}
}

func TestAwaitCredentialPollsUntilKeyAppears(t *testing.T) {
	provider := &scriptedProvider{keyAfter: 4}

	key, err := awaitCredential(context.Background(), provider, time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if key != "scripted-key" {
		t.Fatalf("expected the provider's key, got %q", key)
	}
	if refetches := provider.refetches.Load(); refetches != 0 {
		t.Fatalf("expected no refetch before the ceiling, got %d", refetches)
	}
}

func TestAwaitCredentialFailsFastOnProviderError(t *testing.T) {
	provider := &scriptedProvider{errOnLookup: fmt.Errorf("no API key configured")}

	_, err := awaitCredential(context.Background(), provider, time.Millisecond, time.Second)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if lookups := provider.lookups.Load(); lookups != 1 {
		t.Fatalf("expected no polling after a hard error, got %d lookups", lookups)
	}
}

func TestAwaitCredentialFailsWithoutProvider(t *testing.T) {
	_, err := awaitCredential(context.Background(), nil, time.Millisecond, time.Second)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestAwaitCredentialRefetchesOnceAtCeiling(t *testing.T) {
	provider := &scriptedProvider{keyOnRefetch: true}

	key, err := awaitCredential(context.Background(), provider, time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("expected the refetch to rescue the wait, got %v", err)
	}
	if key != "refetched-key" {
		t.Fatalf("expected the key served after the refetch, got %q", key)
	}
	if refetches := provider.refetches.Load(); refetches != 1 {
		t.Fatalf("expected exactly one refetch, got %d", refetches)
	}
}

func TestAwaitCredentialGivesUpAfterRefetch(t *testing.T) {
	provider := &scriptedProvider{}

	_, err := awaitCredential(context.Background(), provider, time.Millisecond, 10*time.Millisecond)
	if !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("expected ErrConnectFailed, got %v", err)
	}
	if refetches := provider.refetches.Load(); refetches != 1 {
		t.Fatalf("expected exactly one refetch, got %d", refetches)
	}
}

func TestAwaitCredentialHonorsContextCancellation(t *testing.T) {
	provider := &scriptedProvider{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := awaitCredential(ctx, provider, time.Millisecond, time.Second)
	if !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("expected ErrConnectFailed, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the context error to be wrapped, got %v", err)
	}
}
