package businessflow

import "sync"

// Issuance is low-frequency, so serializing it per product in-process is
// cheap. Concurrent regenerations for the same product must not both observe
// the same version and race the one-active invariant; the partial unique
// index backstops races across instances.
var (
	productLocksMu sync.Mutex
	productLocks   = map[uint]*sync.Mutex{}
)

func lockProduct(productID uint) {
	productLocksMu.Lock()
	mu, ok := productLocks[productID]
	if !ok {
		mu = &sync.Mutex{}
		productLocks[productID] = mu
	}
	productLocksMu.Unlock()
	mu.Lock()
}

func unlockProduct(productID uint) {
	productLocksMu.Lock()
	mu := productLocks[productID]
	productLocksMu.Unlock()
	if mu != nil {
		mu.Unlock()
	}
}
