// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/veritag/veritag/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// QRCodeRepository defines operations for issued codes.
// Save returns ErrDuplicateCode when the code token already exists anywhere in
// the table; callers regenerate and retry on that error only.
type QRCodeRepository interface {
	Repository[models.QRCode, models.QRCodeFilter]
	ByCode(ctx context.Context, code string) (*models.QRCode, error)
	ActiveByProduct(ctx context.Context, productID uint) (*models.QRCode, error)
	MaxVersionByProduct(ctx context.Context, productID uint) (int, error)
	Deactivate(ctx context.Context, id uint) error
	DeactivateActiveByProduct(ctx context.Context, productID uint) error
	IncrementScanCount(ctx context.Context, id uint) error
}

// DateCount is one calendar-day bucket of scan volume.
type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// CountryCount is one country bucket of scan volume.
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// ScanLogRepository defines operations for the append-only scan ledger and the
// aggregations derived from it. All product-level aggregations span every code
// version the product has ever had.
type ScanLogRepository interface {
	Repository[models.ScanLog, models.ScanLogFilter]
	CountDistinctIPs(ctx context.Context, productID uint, after, before *time.Time) (int64, error)
	CountByDate(ctx context.Context, productID uint, timezone string, after, before *time.Time) ([]DateCount, error)
	CountByCountry(ctx context.Context, productID uint, after, before *time.Time) ([]CountryCount, error)
	Recent(ctx context.Context, productID uint, limit int) ([]*models.ScanLog, error)
}
