package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"askgm/internal/domain"
)

type countingEvaluator struct {
	calls int
	res   domain.Evaluation
}

func (c *countingEvaluator) Evaluate(context.Context, domain.Position) domain.Evaluation {
	c.calls++
	return c.res
}

func TestCachedEvaluatorFallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	best := domain.Move{From: "e2", To: "e4"}
	inner := &countingEvaluator{res: domain.Evaluation{BestMove: &best, PV: []domain.Move{best}}.WithCentipawns(30)}
	c := NewCachedEvaluator(inner, client, time.Minute, zap.NewNop().Sugar())

	for i := 0; i < 2; i++ {
		res := c.Evaluate(context.Background(), domain.StartFEN)
		if res.Score == nil || *res.Score != 30 {
			t.Fatalf("score = %v", deref(res.Score))
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner evaluator called %d times, want 2", inner.calls)
	}
}
