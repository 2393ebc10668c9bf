package config

import (
	"context"
	"errors"
)

// Static is a Provider with values fixed at construction time.
type Static struct {
	APIKey  string
	BaseURL string
	Model   string
}

func (s Static) CurrentAPIKey() (string, error) {
	if s.APIKey == "" {
		return "", errors.New("api key not configured")
	}
	return s.APIKey, nil
}

func (s Static) WebsocketBaseURL() string {
	return s.BaseURL
}

func (s Static) DefaultModel() string {
	return s.Model
}

func (s Static) RefetchConfig(context.Context) error {
	return nil
}
