package driver

import (
	"time"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/utils"
)

// Config holds Tally API connection configuration
type Config struct {
	APIKey          string   `json:"api_key" validate:"required"`
	OrganizationIDs []string `json:"organization_ids"`
	BaseURL         string   `json:"base_url"`
	RetryCount      int      `json:"retry_count"`
	MaxPageSize     int      `json:"max_page_size"`
	RequestTimeout  int      `json:"request_timeout_sec"`
}

func (c *Config) Validate() error {
	if err := utils.Validate(c); err != nil {
		return err
	}

	if c.BaseURL == "" {
		c.BaseURL = constants.DefaultBaseURL
	}
	if c.RetryCount <= 0 {
		c.RetryCount = constants.DefaultRetryCount
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = int(constants.DefaultRequestTimeout / time.Second)
	}

	return nil
}

// spec returns the connector's config JSON schema served by the spec command.
func (c *Config) spec() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			"api_key": map[string]any{
				"type":        "string",
				"title":       "API Key",
				"description": "Your Tally API key",
				"secret":      true,
			},
			"organization_ids": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"title":       "Organization IDs",
				"description": "Your Tally organization IDs; when empty the caller's organization is used",
				"default":     []string{},
			},
			"base_url": map[string]any{
				"type":        "string",
				"title":       "Base URL",
				"description": "Override of the Tally API endpoint",
				"default":     constants.DefaultBaseURL,
			},
			"retry_count": map[string]any{
				"type":        "integer",
				"title":       "Retry Count",
				"description": "Max retries on transient HTTP failures",
				"default":     constants.DefaultRetryCount,
			},
			"max_page_size": map[string]any{
				"type":        "integer",
				"title":       "Max Page Size",
				"description": "Cap on records requested per page",
			},
			"request_timeout_sec": map[string]any{
				"type":        "integer",
				"title":       "Request Timeout",
				"description": "Timeout per HTTP round trip, in seconds",
			},
		},
		"required": []string{"api_key", "organization_ids"},
	}
}
