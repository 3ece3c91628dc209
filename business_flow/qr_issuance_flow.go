package businessflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	"gorm.io/gorm"
)

// QRIssuanceFlow mints codes for products and rotates them.
// Issue is idempotent: repeated calls without an intervening Regenerate return
// the same code, reported via the reused flag. Regenerate never deletes or
// mutates the prior code; it deactivates it and inserts version n+1 in one
// transaction.
type QRIssuanceFlow interface {
	Issue(ctx context.Context, productID uint) (qr *models.QRCode, reused bool, err error)
	Regenerate(ctx context.Context, productID uint) (*models.QRCode, error)
}

type QRIssuanceFlowImpl struct {
	qrRepo      repository.QRCodeRepository
	generator   CodeGenerator
	directory   ProductDirectory
	notifier    RegenerationNotifier
	db          *gorm.DB
	maxAttempts int
}

func NewQRIssuanceFlow(
	qrRepo repository.QRCodeRepository,
	generator CodeGenerator,
	directory ProductDirectory,
	notifier RegenerationNotifier,
	db *gorm.DB,
	maxAttempts int,
) QRIssuanceFlow {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &QRIssuanceFlowImpl{
		qrRepo:      qrRepo,
		generator:   generator,
		directory:   directory,
		notifier:    notifier,
		db:          db,
		maxAttempts: maxAttempts,
	}
}

func (f *QRIssuanceFlowImpl) Issue(ctx context.Context, productID uint) (*models.QRCode, bool, error) {
	if err := f.ensureProductExists(ctx, productID); err != nil {
		return nil, false, err
	}

	lockProduct(productID)
	defer unlockProduct(productID)

	existing, err := f.qrRepo.ActiveByProduct(ctx, productID)
	if err != nil {
		return nil, false, NewBusinessError("ACTIVE_CODE_LOOKUP_FAILED", "Failed to lookup active code", err)
	}
	if existing != nil {
		return existing, true, nil
	}

	version, err := f.nextVersion(ctx, productID)
	if err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		code, err := f.generator.Generate()
		if err != nil {
			return nil, false, NewBusinessError("CODE_GENERATION_FAILED", "Failed to generate code", err)
		}
		row := &models.QRCode{
			UUID:      uuid.New(),
			ProductID: productID,
			Code:      code,
			Version:   version,
			IsActive:  true,
		}
		err = f.qrRepo.Save(ctx, row)
		if err == nil {
			return row, false, nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			// Either a token collision or another instance activated a code
			// for this product first. The latter makes issuance idempotent.
			if active, lookupErr := f.qrRepo.ActiveByProduct(ctx, productID); lookupErr == nil && active != nil {
				return active, true, nil
			}
			collisionRetries.Inc()
			continue
		}
		return nil, false, NewBusinessError("CODE_CREATE_FAILED", "Failed to persist code", err)
	}

	// With 8+ bytes of entropy this is alarm-worthy, not a routine retry path.
	return nil, false, ErrCodeSpaceExhausted
}

func (f *QRIssuanceFlowImpl) Regenerate(ctx context.Context, productID uint) (*models.QRCode, error) {
	if err := f.ensureProductExists(ctx, productID); err != nil {
		return nil, err
	}

	lockProduct(productID)
	defer unlockProduct(productID)

	old, err := f.qrRepo.ActiveByProduct(ctx, productID)
	if err != nil {
		return nil, NewBusinessError("ACTIVE_CODE_LOOKUP_FAILED", "Failed to lookup active code", err)
	}

	version, err := f.nextVersion(ctx, productID)
	if err != nil {
		return nil, err
	}

	var row *models.QRCode
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		code, genErr := f.generator.Generate()
		if genErr != nil {
			return nil, NewBusinessError("CODE_GENERATION_FAILED", "Failed to generate code", genErr)
		}
		candidate := &models.QRCode{
			UUID:      uuid.New(),
			ProductID: productID,
			Code:      code,
			Version:   version,
			IsActive:  true,
		}
		// Deactivate old and insert new atomically so exactly one active code
		// exists at every point in time.
		err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
			if txErr := f.qrRepo.DeactivateActiveByProduct(txCtx, productID); txErr != nil {
				return txErr
			}
			return f.qrRepo.Save(txCtx, candidate)
		})
		if err == nil {
			row = candidate
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			collisionRetries.Inc()
			continue
		}
		return nil, NewBusinessError("CODE_ROTATE_FAILED", "Failed to rotate code", err)
	}
	if row == nil {
		return nil, ErrCodeSpaceExhausted
	}

	if f.notifier != nil {
		event := CodeRegeneratedEvent{ProductID: productID, NewCode: row.Code}
		if old != nil {
			event.OldCode = old.Code
		}
		f.notifier.CodeRegenerated(ctx, event)
	}

	return row, nil
}

func (f *QRIssuanceFlowImpl) nextVersion(ctx context.Context, productID uint) (int, error) {
	max, err := f.qrRepo.MaxVersionByProduct(ctx, productID)
	if err != nil {
		return 0, NewBusinessError("VERSION_LOOKUP_FAILED", "Failed to determine next code version", err)
	}
	return max + 1, nil
}

func (f *QRIssuanceFlowImpl) ensureProductExists(ctx context.Context, productID uint) error {
	if f.directory == nil {
		return nil
	}
	product, err := f.directory.Product(ctx, productID)
	if err != nil {
		return NewBusinessError("PRODUCT_LOOKUP_FAILED", "Failed to lookup product", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	return nil
}
