package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"askgm/internal/domain"
)

const evalKeyPrefix = "eval:"

type PositionEvaluator interface {
	Evaluate(ctx context.Context, pos domain.Position) domain.Evaluation
}

// CachedEvaluator remembers non-empty evaluations in Redis keyed by FEN.
// Redis trouble is logged and the wrapped evaluator is used directly.
type CachedEvaluator struct {
	next  PositionEvaluator
	redis *redis.Client
	ttl   time.Duration
	log   *zap.SugaredLogger
}

func NewCachedEvaluator(next PositionEvaluator, client *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *CachedEvaluator {
	return &CachedEvaluator{next: next, redis: client, ttl: ttl, log: log}
}

func (c *CachedEvaluator) Evaluate(ctx context.Context, pos domain.Position) domain.Evaluation {
	key := evalKeyPrefix + pos.String()

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached domain.Evaluation
		if err := json.Unmarshal(raw, &cached); err == nil {
			if cached.PV == nil {
				cached.PV = []domain.Move{}
			}
			return cached
		}
		c.log.Warnw("dropping corrupt cached evaluation", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnw("evaluation cache read failed", "error", err)
	}

	res := c.next.Evaluate(ctx, pos)
	if res.IsEmpty() {
		return res
	}
	data, err := json.Marshal(res)
	if err != nil {
		return res
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warnw("evaluation cache write failed", "error", err)
	}
	return res
}
