package businessflow_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessflow "github.com/veritag/veritag/business_flow"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	testingutil "github.com/veritag/veritag/testing"
)

func TestResolutionFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQRCodeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		directory := newStubDirectory(1)
		directory.validations[1] = &businessflow.ValidationInfo{
			Status:      "passed",
			Laboratory:  "EuroLab",
			Summary:     "All parameters within limits",
			ValidatedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		}

		current := &models.QRCode{UUID: uuid.New(), ProductID: 1, Code: "live_token", Version: 2, IsActive: true}
		outdated := &models.QRCode{UUID: uuid.New(), ProductID: 1, Code: "old_token", Version: 1, IsActive: false}
		orphan := &models.QRCode{UUID: uuid.New(), ProductID: 7, Code: "orphan_token", Version: 1, IsActive: true}
		for _, row := range []*models.QRCode{current, outdated, orphan} {
			require.NoError(t, qrRepo.Save(ctx, row))
		}

		recorder := &captureRecorder{}
		flow := businessflow.NewResolutionFlow(qrRepo, directory, recorder, []byte("test-hash-key"))

		t.Run("ResolveActiveCode", func(t *testing.T) {
			meta := businessflow.NewScanMetadata("203.0.113.7", "Mozilla/5.0", "https://example.com")
			result, err := flow.Resolve(ctx, "live_token", meta)
			require.NoError(t, err)
			assert.True(t, result.IsCurrent)
			assert.Equal(t, uint(1), result.Product.ID)
			require.NotNil(t, result.Validation)
			assert.Equal(t, "passed", result.Validation.Status)
			assert.False(t, result.AccessedAt.IsZero())
		})

		t.Run("ScanIsEnqueuedWithHashedAddress", func(t *testing.T) {
			require.NotEmpty(t, recorder.jobs)
			job := recorder.jobs[len(recorder.jobs)-1]
			assert.Equal(t, current.ID, job.QRCodeID)
			assert.Equal(t, uint(1), job.ProductID)
			require.NotNil(t, job.IPHash)
			assert.NotContains(t, *job.IPHash, "203.0.113.7")
			require.NotNil(t, job.UserAgent)
			assert.Equal(t, "Mozilla/5.0", *job.UserAgent)
		})

		t.Run("OutdatedCodeStaysResolvable", func(t *testing.T) {
			result, err := flow.Resolve(ctx, "old_token", nil)
			require.NoError(t, err)
			assert.False(t, result.IsCurrent)
			assert.Equal(t, uint(1), result.Product.ID)
		})

		t.Run("UnknownCode", func(t *testing.T) {
			_, err := flow.Resolve(ctx, "never_issued", nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsUnknownCode(err))
		})

		t.Run("RetiredProductLooksUnknown", func(t *testing.T) {
			// Product 7 no longer exists in the directory; the response must be
			// indistinguishable from an unknown token.
			_, err := flow.Resolve(ctx, "orphan_token", nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsUnknownCode(err))
		})

		t.Run("DroppedScanDoesNotFailResolution", func(t *testing.T) {
			full := &captureRecorder{refuse: true}
			flowWithFullQueue := businessflow.NewResolutionFlow(qrRepo, directory, full, []byte("test-hash-key"))

			result, err := flowWithFullQueue.Resolve(ctx, "live_token", businessflow.NewScanMetadata("203.0.113.7", "", ""))
			require.NoError(t, err)
			assert.True(t, result.IsCurrent)
			assert.Empty(t, full.jobs)
		})

		t.Run("NoHashKeyLeavesAddressOut", func(t *testing.T) {
			bare := &captureRecorder{}
			flowWithoutKey := businessflow.NewResolutionFlow(qrRepo, directory, bare, nil)

			_, err := flowWithoutKey.Resolve(ctx, "live_token", businessflow.NewScanMetadata("203.0.113.7", "", ""))
			require.NoError(t, err)
			require.Len(t, bare.jobs, 1)
			assert.Nil(t, bare.jobs[0].IPHash)
		})

		return nil
	})
	require.NoError(t, err)
}
