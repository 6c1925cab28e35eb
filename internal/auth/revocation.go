package auth

import (
	"context"
	"time"

	"github.com/geocoder89/todohub/internal/cache"
)

// Revoker is an optional denylist of token ids (jti). Without one, logout is
// purely client-side and tokens live until their natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type NopRevoker struct{}

func (NopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (NopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// MemoryRevoker keeps the denylist in process. Entries disappear on their own
// once the token they refer to would have expired anyway.
type MemoryRevoker struct {
	entries *cache.Cache
}

func NewMemoryRevoker(c *cache.Cache) *MemoryRevoker {
	if c == nil {
		c = cache.New()
	}
	return &MemoryRevoker{entries: c}
}

func (r *MemoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	if jti == "" {
		return nil
	}
	r.entries.Purge()
	r.entries.SetUntil(jti, struct{}{}, until)
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, ok := r.entries.Get(jti)
	return ok, nil
}
