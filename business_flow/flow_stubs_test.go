package businessflow_test

import (
	"context"
	"sync"

	businessflow "github.com/veritag/veritag/business_flow"
)

// stubDirectory serves canned product and validation snapshots
type stubDirectory struct {
	products    map[uint]*businessflow.ProductInfo
	validations map[uint]*businessflow.ValidationInfo
}

func newStubDirectory(productIDs ...uint) *stubDirectory {
	d := &stubDirectory{
		products:    make(map[uint]*businessflow.ProductInfo),
		validations: make(map[uint]*businessflow.ValidationInfo),
	}
	for _, id := range productIDs {
		d.products[id] = &businessflow.ProductInfo{ID: id, Name: "Product", Brand: "Brand", Status: "active"}
	}
	return d
}

func (d *stubDirectory) Product(ctx context.Context, productID uint) (*businessflow.ProductInfo, error) {
	return d.products[productID], nil
}

func (d *stubDirectory) LatestValidation(ctx context.Context, productID uint) (*businessflow.ValidationInfo, error) {
	return d.validations[productID], nil
}

// seqGenerator hands out a fixed token sequence, repeating the last entry
type seqGenerator struct {
	codes []string
	next  int
}

func (g *seqGenerator) Generate() (string, error) {
	if g.next < len(g.codes)-1 {
		g.next++
		return g.codes[g.next-1], nil
	}
	return g.codes[len(g.codes)-1], nil
}

// captureNotifier records regeneration events
type captureNotifier struct {
	mu     sync.Mutex
	events []businessflow.CodeRegeneratedEvent
}

func (n *captureNotifier) CodeRegenerated(ctx context.Context, event businessflow.CodeRegeneratedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// captureRecorder collects enqueued scan jobs, optionally refusing them
type captureRecorder struct {
	mu     sync.Mutex
	jobs   []businessflow.ScanJob
	refuse bool
}

func (r *captureRecorder) Enqueue(job businessflow.ScanJob) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refuse {
		return false
	}
	r.jobs = append(r.jobs, job)
	return true
}
