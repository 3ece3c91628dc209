package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/veritag/veritag/config"
)

// GeoIPClient resolves a client address to coarse location via an external
// lookup service. Failures leave the geo fields empty and never surface to
// the caller beyond the returned error; the scan recorder ignores them.
type GeoIPClient struct {
	config *config.CollaboratorConfig
	client *http.Client
}

func NewGeoIPClient(cfg *config.CollaboratorConfig) *GeoIPClient {
	return &GeoIPClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.GeoIPTimeout,
		},
	}
}

type geoIPResponse struct {
	Country string `json:"country"`
	Region  string `json:"region"`
}

func (c *GeoIPClient) Resolve(ctx context.Context, ip string) (string, string, error) {
	if !c.config.GeoIPEnabled || c.config.GeoIPURL == "" {
		return "", "", nil
	}

	endpoint := fmt.Sprintf("%s/lookup/%s", c.config.GeoIPURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build geoip request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("geoip request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("geoip service returned status %d", resp.StatusCode)
	}

	var out geoIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("failed to decode geoip response: %w", err)
	}
	return out.Country, out.Region, nil
}
