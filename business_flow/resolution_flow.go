package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	"github.com/veritag/veritag/utils"
)

// ResolveResult is the combined consumer-facing view of one code resolution.
type ResolveResult struct {
	QRCode     *models.QRCode
	Product    *ProductInfo
	Validation *ValidationInfo
	IsCurrent  bool
	AccessedAt time.Time
}

// ResolutionFlow is the public hot path: code -> product + validation state.
// Scan recording is fire-and-continue; a scan-tracking outage must never make
// validation data unavailable to a consumer scanning a package.
type ResolutionFlow interface {
	Resolve(ctx context.Context, code string, meta *ScanMetadata) (*ResolveResult, error)
}

type ResolutionFlowImpl struct {
	qrRepo    repository.QRCodeRepository
	directory ProductDirectory
	recorder  ScanRecorder
	ipHashKey []byte
}

func NewResolutionFlow(
	qrRepo repository.QRCodeRepository,
	directory ProductDirectory,
	recorder ScanRecorder,
	ipHashKey []byte,
) ResolutionFlow {
	return &ResolutionFlowImpl{
		qrRepo:    qrRepo,
		directory: directory,
		recorder:  recorder,
		ipHashKey: ipHashKey,
	}
}

func (f *ResolutionFlowImpl) Resolve(ctx context.Context, code string, meta *ScanMetadata) (*ResolveResult, error) {
	row, err := f.qrRepo.ByCode(ctx, code)
	if err != nil {
		resolutionsTotal.WithLabelValues("error").Inc()
		return nil, NewBusinessError("CODE_LOOKUP_FAILED", "Failed to lookup code", err)
	}
	if row == nil {
		resolutionsTotal.WithLabelValues("unknown").Inc()
		return nil, ErrUnknownCode
	}

	product, err := f.directory.Product(ctx, row.ProductID)
	if err != nil {
		resolutionsTotal.WithLabelValues("error").Inc()
		return nil, NewBusinessError("PRODUCT_LOOKUP_FAILED", "Failed to lookup product", err)
	}
	if product == nil {
		// The code exists but its product is gone. Present the generic not
		// found so responses never reveal issuance history.
		resolutionsTotal.WithLabelValues("unknown").Inc()
		return nil, ErrUnknownCode
	}

	validation, err := f.directory.LatestValidation(ctx, row.ProductID)
	if err != nil {
		resolutionsTotal.WithLabelValues("error").Inc()
		return nil, NewBusinessError("VALIDATION_LOOKUP_FAILED", "Failed to lookup validation", err)
	}

	f.recordScan(row, meta)
	resolutionsTotal.WithLabelValues("ok").Inc()

	return &ResolveResult{
		QRCode:     row,
		Product:    product,
		Validation: validation,
		IsCurrent:  row.IsActive,
		AccessedAt: utils.UTCNow(),
	}, nil
}

// recordScan hands the event to the background recorder. Failures are
// observability-only: log plus metric, never an error to the consumer.
func (f *ResolutionFlowImpl) recordScan(row *models.QRCode, meta *ScanMetadata) {
	if f.recorder == nil {
		return
	}
	job := ScanJob{
		QRCodeID:   row.ID,
		ProductID:  row.ProductID,
		OccurredAt: utils.UTCNow(),
	}
	if meta != nil {
		job.RawIP = meta.IP
		if meta.IP != "" && len(f.ipHashKey) > 0 {
			job.IPHash = utils.ToPtr(utils.HashIP(f.ipHashKey, meta.IP))
		}
		if meta.UserAgent != "" {
			job.UserAgent = utils.ToPtr(meta.UserAgent)
		}
		if meta.Referrer != "" {
			job.Referrer = utils.ToPtr(meta.Referrer)
		}
	}
	if !f.recorder.Enqueue(job) {
		scanEnqueueDrops.Inc()
		log.Printf("scan recorder queue full, dropped scan for code id %d", row.ID)
	}
}
