package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yieldai/bridge_service/internal/domain/entities"
)

const (
	attestationKeyPrefix  = "bridge:attestation"
	DefaultAttestationTTL  = 24 * time.Hour
)

// AttestationCache keeps ready attestations so repeated requests for the
// same burn skip IRIS. Only ready attestations are ever stored.
type AttestationCache struct {
	client RedisClient
	ttl    time.Duration
}

// NewAttestationCache creates a new attestation cache
func NewAttestationCache(client RedisClient, ttl time.Duration) *AttestationCache {
	if ttl <= 0 {
		ttl = DefaultAttestationTTL
	}
	return &AttestationCache{client: client, ttl: ttl}
}

func attestationKey(burn entities.BurnMessage) string {
	return fmt.Sprintf("%s:%d:%s", attestationKeyPrefix, uint32(burn.SourceDomain), burn.Signature)
}

// Get returns the cached attestation, or nil when absent
func (c *AttestationCache) Get(ctx context.Context, burn entities.BurnMessage) (*entities.Attestation, error) {
	var attestation entities.Attestation
	if err := c.client.Get(ctx, attestationKey(burn), &attestation); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &attestation, nil
}

// Put stores a ready attestation
func (c *AttestationCache) Put(ctx context.Context, burn entities.BurnMessage, attestation *entities.Attestation) error {
	return c.client.Set(ctx, attestationKey(burn), attestation, c.ttl)
}
