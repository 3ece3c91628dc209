package models

import "time"

// ScanLog represents a single resolution of a code by a consumer.
// Rows are append-only: never updated, never deleted.
// ProductID is denormalized from the owning QRCode so product-level analytics
// aggregate across all code versions without a join.
// IPHash is a keyed hash of the client address, never the raw address; it is
// nil when privacy mode disables hashing, in which case the scan counts toward
// totals but not toward unique visitors.
type ScanLog struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	QRCodeID  uint    `gorm:"not null;index:idx_scan_logs_qr_code_id" json:"qr_code_id"`
	ProductID uint    `gorm:"not null;index:idx_scan_logs_product_created,priority:1" json:"product_id"`
	IPHash    *string `gorm:"size:64" json:"ip_hash,omitempty"`
	UserAgent *string `gorm:"type:text" json:"user_agent,omitempty"`
	Referrer  *string `gorm:"type:text" json:"referrer,omitempty"`
	Country   *string `gorm:"size:64;index:idx_scan_logs_country,where:country IS NOT NULL" json:"country,omitempty"`
	Region    *string `gorm:"size:64" json:"region,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_scan_logs_product_created,priority:2" json:"created_at"`
}

// TableName returns the table name for ScanLog
func (ScanLog) TableName() string { return "scan_logs" }

// ScanLogFilter provides filter fields for repository queries
type ScanLogFilter struct {
	QRCodeID      *uint
	ProductID     *uint
	Country       *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
