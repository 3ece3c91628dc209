package models

import (
	"time"

	"github.com/google/uuid"
)

// QRCode represents one issued public code bound to a product.
// Code is the URL-safe token printed inside the QR image; it is unique across
// all products and versions and is never reassigned or deleted once issued,
// because it may already exist on physical packaging.
// Version is the ordinal of the product's codes; at most one row per product
// has IsActive=true (enforced by a partial unique index).
type QRCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_qr_codes_uuid" json:"uuid"`
	ProductID uint      `gorm:"not null;index:idx_qr_codes_product_id;uniqueIndex:uk_qr_codes_product_active,where:is_active" json:"product_id"`
	Code      string    `gorm:"size:32;not null;uniqueIndex:uk_qr_codes_code" json:"code"`
	Version   int       `gorm:"not null" json:"version"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	ScanCount int64     `gorm:"not null;default:0" json:"scan_count"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for QRCode
func (QRCode) TableName() string { return "qr_codes" }

// QRCodeFilter provides filter fields for repository queries
type QRCodeFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	ProductID     *uint
	Code          *string
	Version       *int
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
