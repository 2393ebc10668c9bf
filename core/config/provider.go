// Package config supplies session credentials and endpoint configuration.
//
// Configuration is injected into the session engine, never read from disk:
// a [Static] provider carries values known at construction time, a [Remote]
// provider fetches them from a configuration endpoint and can be refetched
// when a key is provisioned late (backend cold start).
package config

import (
	"context"
	"errors"
)

// ErrKeyPending reports that the API key is not available yet but is
// expected to become available, typically because the remote configuration
// has not been fetched or the backend is still provisioning the key. The
// engine's bounded credential wait polls while this is returned; any other
// error fails the connection attempt immediately.
var ErrKeyPending = errors.New("api key not provisioned yet")

type Provider interface {
	// CurrentAPIKey returns the key to authenticate the live session with.
	// It returns [ErrKeyPending] while the key may still arrive.
	CurrentAPIKey() (string, error)

	// WebsocketBaseURL returns the scheme and host of the live endpoint,
	// e.g. "wss://generativelanguage.googleapis.com".
	WebsocketBaseURL() string

	// DefaultModel returns the provider-preferred model id, or "" to use
	// the backend default.
	DefaultModel() string

	// RefetchConfig reloads the configuration from its source. For static
	// providers this is a no-op.
	RefetchConfig(ctx context.Context) error
}
