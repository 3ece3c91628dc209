package dto

// ProductDTO mirrors the read-only snapshot from the product subsystem
type ProductDTO struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	SKU      string `json:"sku"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// ValidationDTO mirrors the latest laboratory validation snapshot
type ValidationDTO struct {
	Status      string `json:"status"`
	Laboratory  string `json:"laboratory"`
	Summary     string `json:"summary"`
	ValidatedAt string `json:"validated_at"`
}

// ResolveResponse is the anonymous consumer view returned by GET /v/:code.
// IsCurrent is false when the scanned code has been superseded by a newer
// version; the payload is otherwise identical so old packaging keeps working.
type ResolveResponse struct {
	Product     ProductDTO     `json:"product"`
	Validation  *ValidationDTO `json:"validation,omitempty"`
	IsValidated bool           `json:"is_validated"`
	IsCurrent   bool           `json:"is_current"`
	LastUpdated string         `json:"last_updated,omitempty"`
	AccessedAt  string         `json:"accessed_at"`
}
