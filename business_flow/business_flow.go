// Package businessflow contains the core business logic for code issuance,
// public resolution and scan analytics.
package businessflow

import (
	"context"
	"time"
)

// ScanMetadata holds request context captured on the public resolution path.
// IP is the raw client address; it never reaches storage, only its keyed hash
// and the geo attributes derived from it do.
type ScanMetadata struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Referrer  string `json:"referrer"`
	RequestID string `json:"request_id,omitempty"`
}

// NewScanMetadata creates a new ScanMetadata instance with basic information
func NewScanMetadata(ip, userAgent, referrer string) *ScanMetadata {
	return &ScanMetadata{
		IP:        ip,
		UserAgent: userAgent,
		Referrer:  referrer,
	}
}

// ScanJob is the unit of work handed to the asynchronous scan recorder.
// It carries everything needed to persist one ScanLog row and bump the
// owning code's counter, so the hot path never waits on storage.
type ScanJob struct {
	QRCodeID   uint
	ProductID  uint
	IPHash     *string
	RawIP      string
	UserAgent  *string
	Referrer   *string
	OccurredAt time.Time
}

// ScanRecorder accepts scan jobs for background persistence. Enqueue must
// never block; it reports false when the job was dropped because the buffer
// was full.
type ScanRecorder interface {
	Enqueue(job ScanJob) bool
}

// ProductInfo is the read-only product snapshot supplied by the external
// product subsystem.
type ProductInfo struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	SKU      string `json:"sku"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// ValidationInfo is the latest laboratory validation snapshot for a product,
// supplied by the external validation subsystem. Nil means no validation yet.
type ValidationInfo struct {
	Status      string    `json:"status"`
	Laboratory  string    `json:"laboratory"`
	Summary     string    `json:"summary"`
	ValidatedAt time.Time `json:"validated_at"`
}

// ProductDirectory is the collaborator interface to the excluded
// product/validation subsystem. Both calls are read-only.
type ProductDirectory interface {
	Product(ctx context.Context, productID uint) (*ProductInfo, error)
	LatestValidation(ctx context.Context, productID uint) (*ValidationInfo, error)
}

// CodeRegeneratedEvent is emitted when a product's code is rotated. The old
// code stays resolvable; only its canonical status changes.
type CodeRegeneratedEvent struct {
	ProductID uint   `json:"product_id"`
	OldCode   string `json:"old_code,omitempty"`
	NewCode   string `json:"new_code"`
}

// RegenerationNotifier delivers CodeRegenerated events to the notification
// subsystem. Delivery is best-effort and must not fail the regeneration.
type RegenerationNotifier interface {
	CodeRegenerated(ctx context.Context, event CodeRegeneratedEvent)
}
