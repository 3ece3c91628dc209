package businessflow_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessflow "github.com/veritag/veritag/business_flow"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	testingutil "github.com/veritag/veritag/testing"
)

func TestQRIssuanceFlowIssue(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQRCodeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		directory := newStubDirectory(1)

		flow := businessflow.NewQRIssuanceFlow(
			qrRepo,
			businessflow.NewCodeGenerator(9),
			directory,
			&captureNotifier{},
			testDB.DB,
			5,
		)

		t.Run("IssueCreatesFirstVersion", func(t *testing.T) {
			qr, reused, err := flow.Issue(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, qr)
			assert.False(t, reused)
			assert.Equal(t, 1, qr.Version)
			assert.True(t, qr.IsActive)
			assert.NotEmpty(t, qr.Code)
		})

		t.Run("IssueIsIdempotent", func(t *testing.T) {
			first, _, err := flow.Issue(ctx, 1)
			require.NoError(t, err)
			second, reused, err := flow.Issue(ctx, 1)
			require.NoError(t, err)
			assert.True(t, reused)
			assert.Equal(t, first.Code, second.Code)
			assert.Equal(t, first.ID, second.ID)
		})

		t.Run("IssueUnknownProduct", func(t *testing.T) {
			_, _, err := flow.Issue(ctx, 42)
			require.Error(t, err)
			assert.True(t, businessflow.IsProductNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRIssuanceFlowCollisions(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQRCodeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		directory := newStubDirectory(1, 2, 3)

		// Occupy a token so the first generation attempt collides
		taken := &models.QRCode{UUID: uuid.New(), ProductID: 2, Code: "taken_token", Version: 1, IsActive: true}
		require.NoError(t, qrRepo.Save(ctx, taken))

		t.Run("RetriesPastCollision", func(t *testing.T) {
			gen := &seqGenerator{codes: []string{"taken_token", "fresh_token"}}
			flow := businessflow.NewQRIssuanceFlow(qrRepo, gen, directory, nil, testDB.DB, 5)

			qr, reused, err := flow.Issue(ctx, 1)
			require.NoError(t, err)
			assert.False(t, reused)
			assert.Equal(t, "fresh_token", qr.Code)
			assert.Equal(t, 1, qr.Version)
		})

		t.Run("ExhaustsAfterMaxAttempts", func(t *testing.T) {
			gen := &seqGenerator{codes: []string{"taken_token"}}
			flow := businessflow.NewQRIssuanceFlow(qrRepo, gen, directory, nil, testDB.DB, 3)

			_, _, err := flow.Issue(ctx, 3)
			require.Error(t, err)
			assert.True(t, businessflow.IsCodeSpaceExhausted(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRIssuanceFlowRegenerate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQRCodeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		directory := newStubDirectory(1)
		notifier := &captureNotifier{}

		flow := businessflow.NewQRIssuanceFlow(
			qrRepo,
			businessflow.NewCodeGenerator(9),
			directory,
			notifier,
			testDB.DB,
			5,
		)

		v1, _, err := flow.Issue(ctx, 1)
		require.NoError(t, err)

		t.Run("RotationActivatesNextVersion", func(t *testing.T) {
			v2, err := flow.Regenerate(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 2, v2.Version)
			assert.True(t, v2.IsActive)
			assert.NotEqual(t, v1.Code, v2.Code)

			// Exactly one active code remains
			active, err := qrRepo.ActiveByProduct(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, active)
			assert.Equal(t, v2.Code, active.Code)

			// The old version survives, deactivated
			old, err := qrRepo.ByCode(ctx, v1.Code)
			require.NoError(t, err)
			require.NotNil(t, old)
			assert.False(t, old.IsActive)
		})

		t.Run("NotifierReceivesRotation", func(t *testing.T) {
			require.NotEmpty(t, notifier.events)
			event := notifier.events[len(notifier.events)-1]
			assert.Equal(t, uint(1), event.ProductID)
			assert.Equal(t, v1.Code, event.OldCode)
			assert.NotEmpty(t, event.NewCode)
		})

		t.Run("VersionsAreMonotonic", func(t *testing.T) {
			v3, err := flow.Regenerate(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 3, v3.Version)

			max, err := qrRepo.MaxVersionByProduct(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 3, max)
		})

		t.Run("RegenerateWithoutActiveCode", func(t *testing.T) {
			// Deactivate everything first; rotation still mints the next version
			require.NoError(t, qrRepo.DeactivateActiveByProduct(ctx, 1))

			v4, err := flow.Regenerate(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 4, v4.Version)
			assert.True(t, v4.IsActive)

			event := notifier.events[len(notifier.events)-1]
			assert.Empty(t, event.OldCode)
		})

		return nil
	})
	require.NoError(t, err)
}
