// Package scheduler contains background workers that run alongside the HTTP server
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	businessflow "github.com/veritag/veritag/business_flow"
	"github.com/veritag/veritag/models"
	"github.com/veritag/veritag/repository"
)

var (
	scansRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_scans_recorded_total",
		Help: "Scan events durably persisted to the ledger",
	})

	scanWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_scan_write_failures_total",
		Help: "Scan events that failed to persist after retry",
	})

	scanQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qr_scan_queue_depth",
		Help: "Scan events currently buffered in memory",
	})
)

// GeoResolver resolves a client address to coarse location, best-effort.
// A nil result or an error leaves the geo fields empty; it never fails a scan.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (country, region string, err error)
}

// ScanRecorder buffers scan events in a bounded in-memory queue and persists
// them with a small worker pool: one ScanLog append plus one atomic counter
// increment per event. The resolution hot path only pays for a channel send.
//
// A full queue drops the event (accepted loss, surfaced via metrics). A
// process crash between response and flush loses buffered events; the ledger
// is at-least-once with respect to successful resolutions, not exactly-once.
type ScanRecorder struct {
	qrRepo   repository.QRCodeRepository
	scanRepo repository.ScanLogRepository
	geo      GeoResolver
	logger   *log.Logger

	jobs         chan businessflow.ScanJob
	drainTimeout time.Duration
	workers      int

	wg      sync.WaitGroup
	closeMu sync.RWMutex
	closed  bool
}

func NewScanRecorder(
	qrRepo repository.QRCodeRepository,
	scanRepo repository.ScanLogRepository,
	geo GeoResolver,
	logger *log.Logger,
	queueSize, workers int,
	drainTimeout time.Duration,
) *ScanRecorder {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 2
	}
	if drainTimeout <= 0 {
		drainTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ScanRecorder{
		qrRepo:       qrRepo,
		scanRepo:     scanRepo,
		geo:          geo,
		logger:       logger,
		jobs:         make(chan businessflow.ScanJob, queueSize),
		drainTimeout: drainTimeout,
		workers:      workers,
	}
}

// Enqueue hands a scan event to the worker pool without blocking. Returns
// false when the buffer is full and the event was dropped.
// The read lock is held across the send: the stop function closes the channel
// under the write lock, so a send can never hit a closed channel.
func (r *ScanRecorder) Enqueue(job businessflow.ScanJob) bool {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return false
	}

	select {
	case r.jobs <- job:
		scanQueueDepth.Inc()
		return true
	default:
		return false
	}
}

// Start launches the worker pool. The returned stop function closes intake
// and waits up to the drain timeout for buffered events to flush, so scans
// already accepted are not lost to an orderly shutdown.
func (r *ScanRecorder) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}

	return func() {
		r.closeMu.Lock()
		if !r.closed {
			r.closed = true
			close(r.jobs)
		}
		r.closeMu.Unlock()

		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(r.drainTimeout):
			r.logger.Printf("scan recorder: drain timeout, abandoning buffered scans")
		}
		cancel()
	}
}

func (r *ScanRecorder) worker(ctx context.Context) {
	defer r.wg.Done()
	for job := range r.jobs {
		scanQueueDepth.Dec()
		r.persist(ctx, job)
	}
}

// persist writes one ledger row and bumps the owning code's counter. The two
// writes need no mutual ordering; each must eventually reflect the scan.
// The request context that produced the job may be long gone, so persistence
// runs on the recorder's own context and survives caller cancellation.
func (r *ScanRecorder) persist(ctx context.Context, job businessflow.ScanJob) {
	row := &models.ScanLog{
		QRCodeID:  job.QRCodeID,
		ProductID: job.ProductID,
		IPHash:    job.IPHash,
		UserAgent: job.UserAgent,
		Referrer:  job.Referrer,
		CreatedAt: job.OccurredAt,
	}

	if r.geo != nil && job.RawIP != "" {
		if country, region, err := r.geo.Resolve(ctx, job.RawIP); err == nil {
			if country != "" {
				row.Country = &country
			}
			if region != "" {
				row.Region = &region
			}
		}
	}

	if err := r.saveWithRetry(ctx, row); err != nil {
		scanWriteFailures.Inc()
		r.logger.Printf("scan recorder: failed to append scan log for code id %d: %v", job.QRCodeID, err)
		return
	}

	if err := r.qrRepo.IncrementScanCount(ctx, job.QRCodeID); err != nil {
		scanWriteFailures.Inc()
		r.logger.Printf("scan recorder: failed to increment scan count for code id %d: %v", job.QRCodeID, err)
		return
	}

	scansRecorded.Inc()
}

// saveWithRetry retries once on transient store errors before giving up.
func (r *ScanRecorder) saveWithRetry(ctx context.Context, row *models.ScanLog) error {
	err := r.scanRepo.Save(ctx, row)
	if err == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(100 * time.Millisecond):
	}
	return r.scanRepo.Save(ctx, row)
}
