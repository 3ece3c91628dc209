package repository

import (
	"context"
	"errors"
	"time"

	"github.com/veritag/veritag/models"
	"gorm.io/gorm"
)

// ScanLogRepositoryImpl implements ScanLogRepository
type ScanLogRepositoryImpl struct {
	*BaseRepository[models.ScanLog, models.ScanLogFilter]
}

func NewScanLogRepository(db *gorm.DB) ScanLogRepository {
	return &ScanLogRepositoryImpl{BaseRepository: NewBaseRepository[models.ScanLog, models.ScanLogFilter](db)}
}

func (r *ScanLogRepositoryImpl) ByID(ctx context.Context, id uint) (*models.ScanLog, error) {
	db := r.getDB(ctx)
	var row models.ScanLog
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ScanLogRepositoryImpl) applyFilter(db *gorm.DB, f models.ScanLogFilter) *gorm.DB {
	if f.QRCodeID != nil {
		db = db.Where("qr_code_id = ?", *f.QRCodeID)
	}
	if f.ProductID != nil {
		db = db.Where("product_id = ?", *f.ProductID)
	}
	if f.Country != nil {
		db = db.Where("country = ?", *f.Country)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ScanLogRepositoryImpl) ByFilter(ctx context.Context, filter models.ScanLogFilter, orderBy string, limit, offset int) ([]*models.ScanLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ScanLog{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ScanLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScanLogRepositoryImpl) Count(ctx context.Context, filter models.ScanLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ScanLog{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ScanLogRepositoryImpl) Exists(ctx context.Context, filter models.ScanLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ScanLogRepositoryImpl) rangeQuery(ctx context.Context, productID uint, after, before *time.Time) *gorm.DB {
	db := r.getDB(ctx)
	query := db.Model(&models.ScanLog{}).Where("product_id = ?", productID)
	if after != nil {
		query = query.Where("created_at >= ?", *after)
	}
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}
	return query
}

// CountDistinctIPs counts unique visitors over the hashed address. NULL hashes
// are excluded entirely rather than collapsing into one shared visitor.
func (r *ScanLogRepositoryImpl) CountDistinctIPs(ctx context.Context, productID uint, after, before *time.Time) (int64, error) {
	var count int64
	err := r.rangeQuery(ctx, productID, after, before).
		Where("ip_hash IS NOT NULL").
		Select("COUNT(DISTINCT ip_hash)").
		Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountByDate groups scans into calendar days of the given reporting timezone.
// Timestamps are stored as UTC, so they are re-interpreted as UTC before being
// shifted into the reporting zone; a scan at 23:59 and one at 00:01 local time
// land in different buckets, consistently.
func (r *ScanLogRepositoryImpl) CountByDate(ctx context.Context, productID uint, timezone string, after, before *time.Time) ([]DateCount, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	var rows []DateCount
	err := r.rangeQuery(ctx, productID, after, before).
		Select("to_char((created_at AT TIME ZONE 'UTC') AT TIME ZONE ?, 'YYYY-MM-DD') AS date, COUNT(*) AS count", timezone).
		Group("date").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScanLogRepositoryImpl) CountByCountry(ctx context.Context, productID uint, after, before *time.Time) ([]CountryCount, error) {
	var rows []CountryCount
	err := r.rangeQuery(ctx, productID, after, before).
		Where("country IS NOT NULL").
		Select("country, COUNT(*) AS count").
		Group("country").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScanLogRepositoryImpl) Recent(ctx context.Context, productID uint, limit int) ([]*models.ScanLog, error) {
	filter := models.ScanLogFilter{ProductID: &productID}
	return r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, 0)
}
