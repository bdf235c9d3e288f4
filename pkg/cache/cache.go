// Package cache provides an optional Redis-backed result cache for the
// scoring engine. It memoizes verdicts for recently seen texts so hot
// comments are not re-run through both classifiers. Entries are
// TTL-bounded and keyed by a digest of the text plus the scoring
// configuration fingerprint; this is recomputation avoidance, not a
// history of past scores.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinelml/toxguard/pkg/engine"
)

const keyPrefix = "toxguard:score:"

// DefaultTTL bounds how long a cached verdict may be served.
const DefaultTTL = 15 * time.Minute

// ScoreCache implements engine.ResultCache on Redis. A failing backend
// degrades to cache misses; it never fails a scoring call.
type ScoreCache struct {
	rdb         *redis.Client
	ttl         time.Duration
	fingerprint string
}

// New connects a score cache. The scoring configuration fingerprint is
// baked into every key so a reconfigured engine never reads verdicts
// computed under old weights or thresholds.
func New(addr, password string, db int, ttl time.Duration, cfg engine.ScoringConfig) *ScoreCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ScoreCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl:         ttl,
		fingerprint: cfg.Fingerprint(),
	}
}

// Ping verifies connectivity.
func (c *ScoreCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the cached verdict for text, if any.
func (c *ScoreCache) Get(ctx context.Context, text string) (*engine.ScoreResult, bool) {
	data, err := c.rdb.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Score cache: get failed: %v", err)
		}
		return nil, false
	}

	var result engine.ScoreResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Printf("Score cache: corrupt entry dropped: %v", err)
		_ = c.rdb.Del(ctx, c.key(text)).Err()
		return nil, false
	}
	return &result, true
}

// Put stores a verdict. Failures are logged and ignored.
func (c *ScoreCache) Put(ctx context.Context, text string, result *engine.ScoreResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(text), data, c.ttl).Err(); err != nil {
		log.Printf("Score cache: set failed: %v", err)
	}
}

// Close releases the Redis connection.
func (c *ScoreCache) Close() error {
	return c.rdb.Close()
}

// key digests the configuration fingerprint and text. Hashing keeps
// arbitrary comment text out of Redis keys and bounds key size.
func (c *ScoreCache) key(text string) string {
	h := sha256.New()
	h.Write([]byte(c.fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
