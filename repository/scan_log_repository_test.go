package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	testingutil "github.com/veritag/veritag/testing"
	"github.com/veritag/veritag/utils"
)

func newScanLog(qrCodeID, productID uint, ipHash, country string, at time.Time) *models.ScanLog {
	row := &models.ScanLog{
		QRCodeID:  qrCodeID,
		ProductID: productID,
		CreatedAt: at,
	}
	if ipHash != "" {
		row.IPHash = utils.ToPtr(ipHash)
	}
	if country != "" {
		row.Country = utils.ToPtr(country)
	}
	return row
}

func TestScanLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQRCodeRepository(testDB.DB)
		scanRepo := repository.NewScanLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		// Two code versions for the same product; analytics must span both
		v1 := newQRCode(1, "tok_scan_v1", 1, false)
		v2 := newQRCode(1, "tok_scan_v2", 2, true)
		require.NoError(t, qrRepo.Save(ctx, v1))
		require.NoError(t, qrRepo.Save(ctx, v2))

		day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		day2 := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

		scans := []*models.ScanLog{
			newScanLog(v1.ID, 1, "hash_a", "DE", day1),
			newScanLog(v1.ID, 1, "hash_a", "DE", day1.Add(time.Hour)),
			newScanLog(v2.ID, 1, "hash_b", "FR", day2),
			newScanLog(v2.ID, 1, "", "", day2.Add(time.Hour)),
		}
		for _, s := range scans {
			require.NoError(t, scanRepo.Save(ctx, s))
		}

		t.Run("CountSpansAllVersions", func(t *testing.T) {
			productID := uint(1)
			count, err := scanRepo.Count(ctx, models.ScanLogFilter{ProductID: &productID})
			require.NoError(t, err)
			assert.Equal(t, int64(4), count)
		})

		t.Run("CountDistinctIPsExcludesMissingHashes", func(t *testing.T) {
			unique, err := scanRepo.CountDistinctIPs(ctx, 1, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(2), unique)
		})

		t.Run("CountByDate", func(t *testing.T) {
			buckets, err := scanRepo.CountByDate(ctx, 1, "UTC", nil, nil)
			require.NoError(t, err)
			require.Len(t, buckets, 2)
			assert.Equal(t, "2026-08-01", buckets[0].Date)
			assert.Equal(t, int64(2), buckets[0].Count)
			assert.Equal(t, "2026-08-02", buckets[1].Date)
			assert.Equal(t, int64(2), buckets[1].Count)
		})

		t.Run("CountByDateShiftsTimezone", func(t *testing.T) {
			// 22:00 UTC lands on the next calendar day in UTC+4
			late := time.Date(2026, 8, 3, 22, 0, 0, 0, time.UTC)
			require.NoError(t, scanRepo.Save(ctx, newScanLog(v2.ID, 1, "hash_c", "AE", late)))

			buckets, err := scanRepo.CountByDate(ctx, 1, "Asia/Dubai", &late, nil)
			require.NoError(t, err)
			require.Len(t, buckets, 1)
			assert.Equal(t, "2026-08-04", buckets[0].Date)
		})

		t.Run("CountByCountry", func(t *testing.T) {
			buckets, err := scanRepo.CountByCountry(ctx, 1, nil, &day2)
			require.NoError(t, err)
			require.Len(t, buckets, 1)
			assert.Equal(t, "DE", buckets[0].Country)
			assert.Equal(t, int64(2), buckets[0].Count)
		})

		t.Run("Recent", func(t *testing.T) {
			recent, err := scanRepo.Recent(ctx, 1, 3)
			require.NoError(t, err)
			require.Len(t, recent, 3)
			for i := 1; i < len(recent); i++ {
				assert.False(t, recent[i-1].CreatedAt.Before(recent[i].CreatedAt))
			}
		})

		t.Run("RangeFilter", func(t *testing.T) {
			productID := uint(1)
			count, err := scanRepo.Count(ctx, models.ScanLogFilter{
				ProductID:    &productID,
				CreatedAfter: &day2,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		return nil
	})
	require.NoError(t, err)
}
