package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/opencrvs/dedup/internal/dedup"
)

// ReplayCache remembers the candidate list produced for a transaction ID so
// that a retried submission does not re-run the search. A nil *ReplayCache
// disables caching.
type ReplayCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewReplayCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *ReplayCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReplayCache{rdb: rdb, ttl: ttl, logger: logger}
}

func replayKey(transactionID string) string {
	return "dedup:tx:" + transactionID
}

// Get returns the cached candidate list for a transaction ID. Cache failures
// read as a miss.
func (c *ReplayCache) Get(ctx context.Context, transactionID string) ([]dedup.Candidate, bool) {
	if c == nil || transactionID == "" {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, replayKey(transactionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("transaction_id", transactionID).Msg("replay cache read failed")
		}
		return nil, false
	}

	var candidates []dedup.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

// Put stores the candidate list for a transaction ID. Best effort: a cache
// write failure is logged and otherwise ignored.
func (c *ReplayCache) Put(ctx context.Context, transactionID string, candidates []dedup.Candidate) {
	if c == nil || transactionID == "" {
		return
	}

	raw, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, replayKey(transactionID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("transaction_id", transactionID).Msg("replay cache write failed")
	}
}
