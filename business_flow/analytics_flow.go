package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/veritag/veritag/app/dto"
	"github.com/veritag/veritag/config"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	"github.com/veritag/veritag/utils"
	"github.com/xuri/excelize/v2"
)

// AnalyticsFlow derives product-level scan analytics from the append-only
// ledger. Results span every code version the product has had; a regenerated
// code's history is never lost. Snapshots are cached with a short TTL since
// dashboards need near-real-time freshness, not real-time.
type AnalyticsFlow interface {
	Summarize(ctx context.Context, productID uint, after, before *time.Time) (*dto.AnalyticsSnapshot, error)
	ExportScans(ctx context.Context, productID uint, after, before *time.Time) (string, []byte, error)
}

type AnalyticsFlowImpl struct {
	scanRepo     repository.ScanLogRepository
	qrRepo       repository.QRCodeRepository
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
	analyticsCfg *config.AnalyticsConfig
}

func NewAnalyticsFlow(
	scanRepo repository.ScanLogRepository,
	qrRepo repository.QRCodeRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	analyticsCfg *config.AnalyticsConfig,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		scanRepo:     scanRepo,
		qrRepo:       qrRepo,
		rc:           rc,
		cacheConfig:  cacheConfig,
		analyticsCfg: analyticsCfg,
	}
}

func (f *AnalyticsFlowImpl) Summarize(ctx context.Context, productID uint, after, before *time.Time) (*dto.AnalyticsSnapshot, error) {
	if after != nil && before != nil && after.After(*before) {
		return nil, ErrStartDateAfterEndDate
	}

	cacheKey := f.cacheKey(productID, after, before)
	if cached := f.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	filter := models.ScanLogFilter{ProductID: &productID, CreatedAfter: after, CreatedBefore: before}
	total, err := f.scanRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("SCAN_COUNT_FAILED", "Failed to count scans", err)
	}

	unique, err := f.scanRepo.CountDistinctIPs(ctx, productID, after, before)
	if err != nil {
		return nil, NewBusinessError("UNIQUE_COUNT_FAILED", "Failed to count unique visitors", err)
	}

	byDate, err := f.scanRepo.CountByDate(ctx, productID, f.analyticsCfg.Timezone, after, before)
	if err != nil {
		return nil, NewBusinessError("DATE_BUCKETS_FAILED", "Failed to bucket scans by date", err)
	}

	byCountry, err := f.scanRepo.CountByCountry(ctx, productID, after, before)
	if err != nil {
		return nil, NewBusinessError("COUNTRY_BUCKETS_FAILED", "Failed to bucket scans by country", err)
	}

	recent, err := f.scanRepo.Recent(ctx, productID, f.recentLimit())
	if err != nil {
		return nil, NewBusinessError("RECENT_SCANS_FAILED", "Failed to fetch recent scans", err)
	}

	snapshot := &dto.AnalyticsSnapshot{
		ProductID:      productID,
		TotalScans:     total,
		UniqueScans:    unique,
		ScansByDate:    make(map[string]int64, len(byDate)),
		ScansByCountry: make(map[string]int64, len(byCountry)),
		RecentScans:    make([]dto.RecentScanDTO, 0, len(recent)),
		Timezone:       f.analyticsCfg.Timezone,
		GeneratedAt:    utils.UTCNow().Format(time.RFC3339),
	}
	for _, b := range byDate {
		snapshot.ScansByDate[b.Date] = b.Count
	}
	for _, b := range byCountry {
		snapshot.ScansByCountry[b.Country] = b.Count
	}
	for _, s := range recent {
		snapshot.RecentScans = append(snapshot.RecentScans, mapRecentScanDTO(s))
	}

	f.toCache(ctx, cacheKey, snapshot)
	return snapshot, nil
}

// ExportScans builds an Excel workbook of the product's scan ledger, one
// sheet per code version.
func (f *AnalyticsFlowImpl) ExportScans(ctx context.Context, productID uint, after, before *time.Time) (string, []byte, error) {
	if after != nil && before != nil && after.After(*before) {
		return "", nil, ErrStartDateAfterEndDate
	}

	codes, err := f.qrRepo.ByFilter(ctx, models.QRCodeFilter{ProductID: &productID}, "version ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_CODES_FAILED", "Failed to fetch codes for product", err)
	}
	if len(codes) == 0 {
		return "", nil, ErrNoActiveCode
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	header := []string{"id", "scanned_at", "country", "region", "user_agent", "referrer", "ip_hash"}
	for i, code := range codes {
		name := fmt.Sprintf("v%d_%s", code.Version, code.Code)
		if len(name) > 31 {
			name = name[:31] // Excel sheet name limit
		}
		if i == 0 {
			xl.SetSheetName(xl.GetSheetName(0), name)
		} else {
			_, _ = xl.NewSheet(name)
		}
		_ = xl.SetSheetRow(name, "A1", &header)

		codeID := code.ID
		scans, err := f.scanRepo.ByFilter(ctx, models.ScanLogFilter{
			QRCodeID:      &codeID,
			CreatedAfter:  after,
			CreatedBefore: before,
		}, "created_at ASC, id ASC", 0, 0)
		if err != nil {
			return "", nil, NewBusinessError("FETCH_SCANS_FAILED", "Failed to fetch scan logs", err)
		}

		for ri, s := range scans {
			record := []string{
				strconv.FormatUint(uint64(s.ID), 10),
				s.CreatedAt.UTC().Format(time.RFC3339),
				derefOrEmpty(s.Country),
				derefOrEmpty(s.Region),
				derefOrEmpty(s.UserAgent),
				derefOrEmpty(s.Referrer),
				derefOrEmpty(s.IPHash),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			_ = xl.SetSheetRow(name, cellRef, &record)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("product_%d_scans.xlsx", productID)
	return filename, buf.Bytes(), nil
}

// recentLimit keeps the recent-scan list bounded even when configuration
// leaves the limit unset; a non-positive limit would make ByFilter unbounded.
func (f *AnalyticsFlowImpl) recentLimit() int {
	if f.analyticsCfg.RecentScanLimit > 0 {
		return f.analyticsCfg.RecentScanLimit
	}
	return 10
}

func (f *AnalyticsFlowImpl) cacheKey(productID uint, after, before *time.Time) string {
	fmtBound := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return strconv.FormatInt(t.Unix(), 10)
	}
	prefix := "veritag"
	if f.cacheConfig != nil && f.cacheConfig.RedisPrefix != "" {
		prefix = f.cacheConfig.RedisPrefix
	}
	return fmt.Sprintf("%s:analytics:%d:%s:%s", prefix, productID, fmtBound(after), fmtBound(before))
}

func (f *AnalyticsFlowImpl) fromCache(ctx context.Context, key string) *dto.AnalyticsSnapshot {
	if f.rc == nil || f.cacheConfig == nil || !f.cacheConfig.Enabled {
		return nil
	}
	bs, err := f.rc.Get(ctx, key).Bytes()
	if err != nil || len(bs) == 0 {
		return nil
	}
	var snapshot dto.AnalyticsSnapshot
	if err := json.Unmarshal(bs, &snapshot); err != nil {
		return nil
	}
	return &snapshot
}

func (f *AnalyticsFlowImpl) toCache(ctx context.Context, key string, snapshot *dto.AnalyticsSnapshot) {
	if f.rc == nil || f.cacheConfig == nil || !f.cacheConfig.Enabled {
		return
	}
	bs, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	ttl := f.analyticsCfg.CacheTTL
	if ttl <= 0 {
		ttl = f.cacheConfig.DefaultTTL
	}
	_ = f.rc.Set(ctx, key, bs, ttl).Err()
}

func mapRecentScanDTO(s *models.ScanLog) dto.RecentScanDTO {
	return dto.RecentScanDTO{
		QRCodeID:  s.QRCodeID,
		Country:   derefOrEmpty(s.Country),
		Region:    derefOrEmpty(s.Region),
		UserAgent: derefOrEmpty(s.UserAgent),
		ScannedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
