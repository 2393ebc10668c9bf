package livesession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/config"
)

// awaitCredential resolves the API key before dialing. A key reported as
// pending (remote config not fetched, backend still provisioning) is polled
// for up to the ceiling; on ceiling expiry the config is refetched once and
// the lookup retried once more. This is the only automatic retry in the
// engine. Any other provider error fails immediately.
func awaitCredential(ctx context.Context, provider config.Provider, pollInterval, ceiling time.Duration) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("%w: no config provider", ErrMissingCredential)
	}

	key, err := lookupKey(provider)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, config.ErrKeyPending) {
		return "", fmt.Errorf("%w: %w", ErrMissingCredential, err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrConnectFailed, ctx.Err())

		case <-ticker.C:
			key, err := lookupKey(provider)
			if err == nil {
				return key, nil
			}
			if !errors.Is(err, config.ErrKeyPending) {
				return "", fmt.Errorf("%w: %w", ErrMissingCredential, err)
			}

		case <-deadline.C:
			if err := provider.RefetchConfig(ctx); err != nil {
				return "", fmt.Errorf("%w: config refetch failed: %w", ErrConnectFailed, err)
			}
			key, err := lookupKey(provider)
			if err == nil {
				return key, nil
			}
			return "", fmt.Errorf("%w: credential wait ceiling reached", ErrConnectFailed)
		}
	}
}

// lookupKey treats an empty key without an error as pending, since static
// providers surface real errors and remote ones can serve empty keys while
// the backend provisions them.
func lookupKey(provider config.Provider) (string, error) {
	key, err := provider.CurrentAPIKey()
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", config.ErrKeyPending
	}
	return key, nil
}
