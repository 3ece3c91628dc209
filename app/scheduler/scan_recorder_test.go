package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritag/veritag/app/scheduler"
	businessflow "github.com/veritag/veritag/business_flow"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
	"github.com/veritag/veritag/utils"
)

// fakeQRRepo tracks scan counter increments in memory
type fakeQRRepo struct {
	mu         sync.Mutex
	increments map[uint]int
}

func newFakeQRRepo() *fakeQRRepo {
	return &fakeQRRepo{increments: make(map[uint]int)}
}

func (f *fakeQRRepo) IncrementScanCount(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments[id]++
	return nil
}

func (f *fakeQRRepo) incrementsFor(id uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.increments[id]
}

func (f *fakeQRRepo) ByID(ctx context.Context, id uint) (*models.QRCode, error) {
	return nil, nil
}

func (f *fakeQRRepo) ByFilter(ctx context.Context, filter models.QRCodeFilter, orderBy string, limit, offset int) ([]*models.QRCode, error) {
	return nil, nil
}

func (f *fakeQRRepo) Save(ctx context.Context, entity *models.QRCode) error { return nil }

func (f *fakeQRRepo) SaveBatch(ctx context.Context, entities []*models.QRCode) error { return nil }

func (f *fakeQRRepo) Count(ctx context.Context, filter models.QRCodeFilter) (int64, error) {
	return 0, nil
}

func (f *fakeQRRepo) Exists(ctx context.Context, filter models.QRCodeFilter) (bool, error) {
	return false, nil
}

func (f *fakeQRRepo) ByCode(ctx context.Context, code string) (*models.QRCode, error) {
	return nil, nil
}

func (f *fakeQRRepo) ActiveByProduct(ctx context.Context, productID uint) (*models.QRCode, error) {
	return nil, nil
}

func (f *fakeQRRepo) MaxVersionByProduct(ctx context.Context, productID uint) (int, error) {
	return 0, nil
}

func (f *fakeQRRepo) Deactivate(ctx context.Context, id uint) error { return nil }

func (f *fakeQRRepo) DeactivateActiveByProduct(ctx context.Context, productID uint) error {
	return nil
}

var _ repository.QRCodeRepository = (*fakeQRRepo)(nil)

// fakeScanRepo collects saved ledger rows, optionally failing the first write
type fakeScanRepo struct {
	mu       sync.Mutex
	rows     []*models.ScanLog
	failOnce bool
}

func (f *fakeScanRepo) Save(ctx context.Context, entity *models.ScanLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnce {
		f.failOnce = false
		return errors.New("transient store error")
	}
	f.rows = append(f.rows, entity)
	return nil
}

func (f *fakeScanRepo) saved() []*models.ScanLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ScanLog, len(f.rows))
	copy(out, f.rows)
	return out
}

func (f *fakeScanRepo) ByID(ctx context.Context, id uint) (*models.ScanLog, error) { return nil, nil }

func (f *fakeScanRepo) ByFilter(ctx context.Context, filter models.ScanLogFilter, orderBy string, limit, offset int) ([]*models.ScanLog, error) {
	return nil, nil
}

func (f *fakeScanRepo) SaveBatch(ctx context.Context, entities []*models.ScanLog) error { return nil }

func (f *fakeScanRepo) Count(ctx context.Context, filter models.ScanLogFilter) (int64, error) {
	return 0, nil
}

func (f *fakeScanRepo) Exists(ctx context.Context, filter models.ScanLogFilter) (bool, error) {
	return false, nil
}

func (f *fakeScanRepo) CountDistinctIPs(ctx context.Context, productID uint, after, before *time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeScanRepo) CountByDate(ctx context.Context, productID uint, timezone string, after, before *time.Time) ([]repository.DateCount, error) {
	return nil, nil
}

func (f *fakeScanRepo) CountByCountry(ctx context.Context, productID uint, after, before *time.Time) ([]repository.CountryCount, error) {
	return nil, nil
}

func (f *fakeScanRepo) Recent(ctx context.Context, productID uint, limit int) ([]*models.ScanLog, error) {
	return nil, nil
}

var _ repository.ScanLogRepository = (*fakeScanRepo)(nil)

func testJob(codeID uint) businessflow.ScanJob {
	return businessflow.ScanJob{
		QRCodeID:   codeID,
		ProductID:  1,
		IPHash:     utils.ToPtr("abcd1234"),
		UserAgent:  utils.ToPtr("Mozilla/5.0"),
		OccurredAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestScanRecorderPersistsJobs(t *testing.T) {
	qrRepo := newFakeQRRepo()
	scanRepo := &fakeScanRepo{}
	recorder := scheduler.NewScanRecorder(qrRepo, scanRepo, nil, nil, 16, 2, time.Second)

	stop := recorder.Start(context.Background())

	require.True(t, recorder.Enqueue(testJob(7)))
	require.True(t, recorder.Enqueue(testJob(7)))
	require.True(t, recorder.Enqueue(testJob(8)))

	stop()

	rows := scanRepo.saved()
	require.Len(t, rows, 3)
	assert.Equal(t, uint(1), rows[0].ProductID)
	require.NotNil(t, rows[0].IPHash)
	assert.Equal(t, "abcd1234", *rows[0].IPHash)
	assert.Equal(t, time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC), rows[0].CreatedAt)

	assert.Equal(t, 2, qrRepo.incrementsFor(7))
	assert.Equal(t, 1, qrRepo.incrementsFor(8))
}

func TestScanRecorderDropsWhenFull(t *testing.T) {
	qrRepo := newFakeQRRepo()
	scanRepo := &fakeScanRepo{}
	// Workers not started, so the single buffer slot fills immediately
	recorder := scheduler.NewScanRecorder(qrRepo, scanRepo, nil, nil, 1, 1, time.Second)

	assert.True(t, recorder.Enqueue(testJob(1)))
	assert.False(t, recorder.Enqueue(testJob(2)))

	stop := recorder.Start(context.Background())
	stop()

	require.Len(t, scanRepo.saved(), 1)
	assert.Equal(t, 1, qrRepo.incrementsFor(1))
	assert.Equal(t, 0, qrRepo.incrementsFor(2))
}

func TestScanRecorderRetriesTransientWriteFailure(t *testing.T) {
	qrRepo := newFakeQRRepo()
	scanRepo := &fakeScanRepo{failOnce: true}
	recorder := scheduler.NewScanRecorder(qrRepo, scanRepo, nil, nil, 16, 1, time.Second)

	stop := recorder.Start(context.Background())
	require.True(t, recorder.Enqueue(testJob(3)))
	stop()

	require.Len(t, scanRepo.saved(), 1)
	assert.Equal(t, 1, qrRepo.incrementsFor(3))
}

func TestScanRecorderEnqueueDuringStop(t *testing.T) {
	// Resolutions still in flight while the server drains must get a clean
	// true/false from Enqueue, never a send on the closed queue.
	for iter := 0; iter < 50; iter++ {
		recorder := scheduler.NewScanRecorder(newFakeQRRepo(), &fakeScanRepo{}, nil, nil, 4, 2, time.Second)
		stop := recorder.Start(context.Background())

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					recorder.Enqueue(testJob(uint(i)))
				}
			}()
		}

		stop()
		wg.Wait()

		assert.False(t, recorder.Enqueue(testJob(1)))
	}
}

func TestScanRecorderRefusesAfterStop(t *testing.T) {
	recorder := scheduler.NewScanRecorder(newFakeQRRepo(), &fakeScanRepo{}, nil, nil, 16, 1, time.Second)

	stop := recorder.Start(context.Background())
	stop()

	assert.False(t, recorder.Enqueue(testJob(9)))
}
