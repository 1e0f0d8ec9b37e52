// internal/infrastructure/database/redis/applied_store.go
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

const appliedVoucherPrefix = "applied_voucher:"

var _ voucher.AppliedStore = (*AppliedStore)(nil)

// AppliedStore keeps the applied voucher per cart owner as JSON. Entries
// expire together with the guest session.
type AppliedStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewAppliedStore creates a store whose entries live for ttl
func NewAppliedStore(rdb redis.Cmdable, ttl time.Duration) *AppliedStore {
	return &AppliedStore{rdb: rdb, ttl: ttl}
}

func (s *AppliedStore) Get(ctx context.Context, key string) (*voucher.Applied, error) {
	raw, err := s.rdb.Get(ctx, appliedVoucherPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get applied voucher")
	}

	var applied voucher.Applied
	if err := json.Unmarshal(raw, &applied); err != nil {
		return nil, errors.Wrap(err, "decode applied voucher")
	}
	return &applied, nil
}

func (s *AppliedStore) Set(ctx context.Context, key string, applied voucher.Applied) error {
	raw, err := json.Marshal(applied)
	if err != nil {
		return errors.Wrap(err, "encode applied voucher")
	}
	if err := s.rdb.Set(ctx, appliedVoucherPrefix+key, raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "set applied voucher")
	}
	return nil
}

func (s *AppliedStore) Clear(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, appliedVoucherPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "clear applied voucher")
	}
	return nil
}
