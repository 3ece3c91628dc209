// Package services provides external service integrations and technical concerns
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	businessflow "github.com/veritag/veritag/business_flow"
	"github.com/veritag/veritag/config"
)

// ProductClient is the HTTP implementation of the ProductDirectory
// collaborator interface. The product/validation subsystem owns the data;
// both calls are read-only and have no side effects there.
type ProductClient struct {
	config *config.CollaboratorConfig
	client *http.Client
}

// NewProductClient creates a new product directory client
func NewProductClient(cfg *config.CollaboratorConfig) businessflow.ProductDirectory {
	return &ProductClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type productResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	SKU      string `json:"sku"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

type validationResponse struct {
	Status      string `json:"status"`
	Laboratory  string `json:"laboratory"`
	Summary     string `json:"summary"`
	ValidatedAt string `json:"validated_at"`
}

// Product fetches the product snapshot. A 404 from the collaborator maps to
// (nil, nil) so callers can present the generic not-found.
func (c *ProductClient) Product(ctx context.Context, productID uint) (*businessflow.ProductInfo, error) {
	var out productResponse
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/internal/products/%d", c.config.ProductServiceURL, productID), &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &businessflow.ProductInfo{
		ID:       out.ID,
		Name:     out.Name,
		Brand:    out.Brand,
		SKU:      out.SKU,
		Category: out.Category,
		Status:   out.Status,
	}, nil
}

func parseRFC3339(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// LatestValidation fetches the most recent validation snapshot, nil when the
// product has not been validated yet.
func (c *ProductClient) LatestValidation(ctx context.Context, productID uint) (*businessflow.ValidationInfo, error) {
	var out validationResponse
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/internal/products/%d/validation", c.config.ProductServiceURL, productID), &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	info := &businessflow.ValidationInfo{
		Status:     out.Status,
		Laboratory: out.Laboratory,
		Summary:    out.Summary,
	}
	if out.ValidatedAt != "" {
		if t, err := parseRFC3339(out.ValidatedAt); err == nil {
			info.ValidatedAt = t
		}
	}
	return info, nil
}

func (c *ProductClient) getJSON(ctx context.Context, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.ProductAPIKey != "" {
		req.Header.Set("X-API-Key", c.config.ProductAPIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("product service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("product service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode product service response: %w", err)
	}
	return true, nil
}
