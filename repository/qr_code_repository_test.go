package repository_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	testingutil "github.com/veritag/veritag/testing"
)

func newQRCode(productID uint, code string, version int, active bool) *models.QRCode {
	return &models.QRCode{
		UUID:      uuid.New(),
		ProductID: productID,
		Code:      code,
		Version:   version,
		IsActive:  active,
	}
}

func TestQRCodeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewQRCodeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByCode", func(t *testing.T) {
			row := newQRCode(1, "tok_alpha", 1, true)
			require.NoError(t, repo.Save(ctx, row))
			assert.NotZero(t, row.ID)

			found, err := repo.ByCode(ctx, "tok_alpha")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, row.ID, found.ID)
			assert.Equal(t, 1, found.Version)
			assert.True(t, found.IsActive)
		})

		t.Run("ByCodeUnknown", func(t *testing.T) {
			found, err := repo.ByCode(ctx, "tok_never_issued")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("DuplicateCodeRejected", func(t *testing.T) {
			err := repo.Save(ctx, newQRCode(2, "tok_alpha", 1, false))
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateCode)
		})

		t.Run("SecondActivePerProductRejected", func(t *testing.T) {
			// The partial unique index makes the store itself refuse a second
			// active code for the same product.
			err := repo.Save(ctx, newQRCode(1, "tok_bravo", 2, true))
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateCode)

			// Inactive rows for the same product are fine
			require.NoError(t, repo.Save(ctx, newQRCode(1, "tok_charlie", 2, false)))
		})

		t.Run("ActiveByProduct", func(t *testing.T) {
			active, err := repo.ActiveByProduct(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, active)
			assert.Equal(t, "tok_alpha", active.Code)

			none, err := repo.ActiveByProduct(ctx, 99)
			require.NoError(t, err)
			assert.Nil(t, none)
		})

		t.Run("MaxVersionByProduct", func(t *testing.T) {
			max, err := repo.MaxVersionByProduct(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 2, max)

			max, err = repo.MaxVersionByProduct(ctx, 99)
			require.NoError(t, err)
			assert.Equal(t, 0, max)
		})

		t.Run("DeactivateActiveByProduct", func(t *testing.T) {
			require.NoError(t, repo.DeactivateActiveByProduct(ctx, 1))

			active, err := repo.ActiveByProduct(ctx, 1)
			require.NoError(t, err)
			assert.Nil(t, active)

			// Deactivated codes stay resolvable
			found, err := repo.ByCode(ctx, "tok_alpha")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.False(t, found.IsActive)

			// Idempotent when nothing is active
			require.NoError(t, repo.DeactivateActiveByProduct(ctx, 1))
		})

		t.Run("Deactivate", func(t *testing.T) {
			row := newQRCode(3, "tok_delta", 1, true)
			require.NoError(t, repo.Save(ctx, row))
			require.NoError(t, repo.Deactivate(ctx, row.ID))
			require.NoError(t, repo.Deactivate(ctx, row.ID))

			found, err := repo.ByID(ctx, row.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.False(t, found.IsActive)
		})

		t.Run("ByFilter", func(t *testing.T) {
			productID := uint(1)
			rows, err := repo.ByFilter(ctx, models.QRCodeFilter{ProductID: &productID}, "version ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 2)
			assert.LessOrEqual(t, rows[0].Version, rows[1].Version)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRCodeRepositoryIncrementScanCount(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewQRCodeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		row := newQRCode(10, "tok_counter", 1, true)
		require.NoError(t, repo.Save(ctx, row))

		t.Run("UnknownID", func(t *testing.T) {
			assert.Error(t, repo.IncrementScanCount(ctx, 999999))
		})

		t.Run("ConcurrentIncrementsLoseNothing", func(t *testing.T) {
			const n = 20
			var wg sync.WaitGroup
			wg.Add(n)
			for i := 0; i < n; i++ {
				go func() {
					defer wg.Done()
					assert.NoError(t, repo.IncrementScanCount(ctx, row.ID))
				}()
			}
			wg.Wait()

			found, err := repo.ByID(ctx, row.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, int64(n), found.ScanCount)
		})

		return nil
	})
	require.NoError(t, err)
}
