package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourorg/cma-api/internal/logger"
	"github.com/yourorg/cma-api/mls"
)

// DailyQuota caps provider calls per UTC day across every API instance.
// It implements mls.Quota.
type DailyQuota struct {
	rdb    redis.Cmdable
	prefix string
	limit  int64
	now    func() time.Time
}

func NewDailyQuota(rdb redis.Cmdable, prefix string, limit int) *DailyQuota {
	if prefix == "" {
		prefix = "cma:mls:calls"
	}
	return &DailyQuota{rdb: rdb, prefix: prefix, limit: int64(limit), now: time.Now}
}

func (q *DailyQuota) key() string {
	return q.prefix + ":" + q.now().UTC().Format("20060102")
}

// Take counts one call. A limit <= 0 disables the quota. Redis errors fail
// open so an outage never blocks searches.
func (q *DailyQuota) Take(ctx context.Context) error {
	if q == nil || q.limit <= 0 {
		return nil
	}
	key := q.key()
	pipe := q.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, 26*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.FromContext(ctx).Warn("quota counter unavailable", "key", key, "error", err)
		return nil
	}
	if incr.Val() > q.limit {
		return fmt.Errorf("%w: %d calls today", mls.ErrDailyLimitExceeded, q.limit)
	}
	return nil
}

func (q *DailyQuota) Used(ctx context.Context) (int64, error) {
	n, err := q.rdb.Get(ctx, q.key()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
