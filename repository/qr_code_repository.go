package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veritag/veritag/models"
	"gorm.io/gorm"
)

// QRCodeRepositoryImpl implements QRCodeRepository
type QRCodeRepositoryImpl struct {
	*BaseRepository[models.QRCode, models.QRCodeFilter]
}

func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &QRCodeRepositoryImpl{BaseRepository: NewBaseRepository[models.QRCode, models.QRCodeFilter](db)}
}

func (r *QRCodeRepositoryImpl) ByID(ctx context.Context, id uint) (*models.QRCode, error) {
	db := r.getDB(ctx)
	var row models.QRCode
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ByCode finds a code regardless of active state. Inactive codes must keep
// resolving because they may be printed on packaging already in circulation.
func (r *QRCodeRepositoryImpl) ByCode(ctx context.Context, code string) (*models.QRCode, error) {
	filter := models.QRCodeFilter{Code: &code}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *QRCodeRepositoryImpl) ActiveByProduct(ctx context.Context, productID uint) (*models.QRCode, error) {
	active := true
	filter := models.QRCodeFilter{ProductID: &productID, IsActive: &active}
	rows, err := r.ByFilter(ctx, filter, "version DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *QRCodeRepositoryImpl) MaxVersionByProduct(ctx context.Context, productID uint) (int, error) {
	db := r.getDB(ctx)
	var max sql.NullInt64
	if err := db.Model(&models.QRCode{}).
		Where("product_id = ?", productID).
		Select("MAX(version)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

// Deactivate clears the active flag on one code. Idempotent.
func (r *QRCodeRepositoryImpl) Deactivate(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.QRCode{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// DeactivateActiveByProduct clears the active flag on whichever code is
// currently active for the product. Run inside the same transaction that
// inserts the replacement so the one-active-per-product invariant holds.
func (r *QRCodeRepositoryImpl) DeactivateActiveByProduct(ctx context.Context, productID uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.QRCode{}).
		Where("product_id = ? AND is_active", productID).
		Update("is_active", false).Error
}

// IncrementScanCount bumps the counter atomically in the storage layer.
// A read-modify-write here would lose updates under concurrent resolutions.
func (r *QRCodeRepositoryImpl) IncrementScanCount(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	res := db.Model(&models.QRCode{}).
		Where("id = ?", id).
		UpdateColumn("scan_count", gorm.Expr("scan_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("qr code %d not found", id)
	}
	return nil
}

func (r *QRCodeRepositoryImpl) applyFilter(db *gorm.DB, f models.QRCodeFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.ProductID != nil {
		db = db.Where("product_id = ?", *f.ProductID)
	}
	if f.Code != nil {
		db = db.Where("code = ?", *f.Code)
	}
	if f.Version != nil {
		db = db.Where("version = ?", *f.Version)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *QRCodeRepositoryImpl) ByFilter(ctx context.Context, filter models.QRCodeFilter, orderBy string, limit, offset int) ([]*models.QRCode, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QRCode{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.QRCode
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QRCodeRepositoryImpl) Count(ctx context.Context, filter models.QRCodeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QRCode{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QRCodeRepositoryImpl) Exists(ctx context.Context, filter models.QRCodeFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
