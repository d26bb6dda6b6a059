package lock

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Locker serializes writers on the same records across instances.
// Locks are best effort: the version check in the write is the real guard,
// so a lock that cannot be obtained only costs a retry later.
type Locker interface {
	Acquire(ctx context.Context, keys []string) (release func())
}

// Keys builds lock keys like "invoice:<id>" from any stringer ids.
func Keys[T interface{ String() string }](kind string, ids ...T) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, kind+":"+id.String())
	}
	return out
}

// normalize sorts and dedups keys so two writers always lock in the same order.
func normalize(keys []string) []string {
	cp := append([]string(nil), keys...)
	sort.Strings(cp)
	out := cp[:0]
	for i, k := range cp {
		if i > 0 && k == cp[i-1] {
			continue
		}
		out = append(out, k)
	}
	return out
}

type noop struct{}

func NewNoop() Locker { return noop{} }

func (noop) Acquire(context.Context, []string) func() { return func() {} }

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewRedis(rdb *redis.Client, log *logrus.Logger) Locker {
	return &redisLocker{client: redislock.New(rdb), ttl: 30 * time.Second, log: log}
}

func (l *redisLocker) Acquire(ctx context.Context, keys []string) func() {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	}

	var held []*redislock.Lock
	for _, key := range normalize(keys) {
		lk, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, opts)
		if errors.Is(err, redislock.ErrNotObtained) {
			l.log.WithField("key", key).Warn("could not obtain redis lock; proceeding without it")
			continue
		} else if err != nil {
			l.log.WithField("key", key).Warn("error obtaining redis lock; proceeding without it: " + err.Error())
			continue
		}
		held = append(held, lk)
	}

	return func() {
		// Lepas dengan urutan terbalik
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.log.WithField("key", held[i].Key()).Warn("failed to release redis lock: " + err.Error())
			}
		}
	}
}
