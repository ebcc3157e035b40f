package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry is a SensitiveHashRegistry backed by a Redis set per
// tenant, for deployments where multiple scanner instances share one
// fingerprint store.
type RedisRegistry struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRegistry creates a registry over the given client. keyPrefix
// defaults to "leakguard:hashes".
func NewRedisRegistry(client redis.UniversalClient, keyPrefix string) *RedisRegistry {
	if keyPrefix == "" {
		keyPrefix = "leakguard:hashes"
	}
	return &RedisRegistry{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisRegistry) key(tenantID string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, tenantID)
}

// GetKnownHashes loads the tenant's fingerprint set.
func (r *RedisRegistry) GetKnownHashes(ctx context.Context, tenantID string) (map[string]struct{}, error) {
	members, err := r.client.SMembers(ctx, r.key(tenantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading hash set for tenant %s: %w", tenantID, err)
	}

	known := make(map[string]struct{}, len(members))
	for _, digest := range members {
		known[digest] = struct{}{}
	}
	return known, nil
}

// Add registers digests as known-sensitive for the tenant.
func (r *RedisRegistry) Add(ctx context.Context, tenantID string, digests ...string) error {
	if len(digests) == 0 {
		return nil
	}
	members := make([]interface{}, len(digests))
	for i, digest := range digests {
		members[i] = digest
	}
	if err := r.client.SAdd(ctx, r.key(tenantID), members...).Err(); err != nil {
		return fmt.Errorf("adding hashes for tenant %s: %w", tenantID, err)
	}
	return nil
}

// Remove drops digests from the tenant's fingerprint set.
func (r *RedisRegistry) Remove(ctx context.Context, tenantID string, digests ...string) error {
	if len(digests) == 0 {
		return nil
	}
	members := make([]interface{}, len(digests))
	for i, digest := range digests {
		members[i] = digest
	}
	if err := r.client.SRem(ctx, r.key(tenantID), members...).Err(); err != nil {
		return fmt.Errorf("removing hashes for tenant %s: %w", tenantID, err)
	}
	return nil
}
