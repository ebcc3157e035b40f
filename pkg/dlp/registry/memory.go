package registry

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-process SensitiveHashRegistry, tenant-keyed.
// Safe for concurrent tenants; reads return copies so callers never hold
// the registry's own sets.
type MemoryRegistry struct {
	mu     sync.RWMutex
	hashes map[string]map[string]struct{}
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		hashes: make(map[string]map[string]struct{}),
	}
}

// GetKnownHashes returns a copy of the tenant's fingerprint set.
func (r *MemoryRegistry) GetKnownHashes(_ context.Context, tenantID string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	known := make(map[string]struct{}, len(r.hashes[tenantID]))
	for digest := range r.hashes[tenantID] {
		known[digest] = struct{}{}
	}
	return known, nil
}

// Add registers digests as known-sensitive for the tenant.
func (r *MemoryRegistry) Add(_ context.Context, tenantID string, digests ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.hashes[tenantID]
	if !ok {
		set = make(map[string]struct{})
		r.hashes[tenantID] = set
	}
	for _, digest := range digests {
		set[digest] = struct{}{}
	}
	return nil
}

// Remove drops digests from the tenant's fingerprint set.
func (r *MemoryRegistry) Remove(_ context.Context, tenantID string, digests ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, digest := range digests {
		delete(r.hashes[tenantID], digest)
	}
	return nil
}
