package proof

import (
	"context"
	"time"

	"github.com/geocoder89/civicchain/internal/cache"
	"github.com/geocoder89/civicchain/internal/domain/identity"
)

// Cached remembers accepted proofs for a short window so a client retrying
// the same verification does not hit the remote verifier twice. Rejections
// and failures are never cached.
type Cached struct {
	inner    Verifier
	accepted *cache.Cache[bool]
}

func NewCached(inner Verifier, ttl time.Duration) *Cached {
	return &Cached{
		inner:    inner,
		accepted: cache.New[bool](ttl),
	}
}

func (c *Cached) Verify(ctx context.Context, p identity.Proof) (bool, error) {
	key := p.Key()

	if _, ok := c.accepted.Get(key); ok {
		return true, nil
	}

	ok, err := c.inner.Verify(ctx, p)
	if err != nil || !ok {
		return ok, err
	}

	c.accepted.Set(key, true)
	return true, nil
}
