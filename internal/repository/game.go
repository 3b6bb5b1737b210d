package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"askgm/internal/domain"
	errs "askgm/internal/errors"
)

const (
	timelineKeyPrefix = "timeline:"
	gamesCollection   = "games"
)

func NewGameID() string {
	return uuid.New().String()
}

// GameRepository keeps the working copy of each timeline in Redis and an
// archive copy in MongoDB. Either backend may be nil.
type GameRepository struct {
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
	ttl   time.Duration
}

func NewGameRepository(log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database, ttl time.Duration) *GameRepository {
	return &GameRepository{
		log:   log,
		redis: redis,
		mongo: mongo,
		ttl:   ttl,
	}
}

func (g *GameRepository) SaveTimeline(ctx context.Context, snap domain.TimelineSnapshot) error {
	snap.UpdatedAt = time.Now().UTC()

	if g.redis != nil {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		if err := g.redis.Set(ctx, timelineKeyPrefix+snap.GameID, data, g.ttl).Err(); err != nil {
			return fmt.Errorf("save timeline %s to redis: %w", snap.GameID, err)
		}
	}

	if g.mongo != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		filter := bson.M{"game_id": snap.GameID}
		opts := options.Replace().SetUpsert(true)
		if _, err := g.mongo.Collection(gamesCollection).ReplaceOne(ctx, filter, snap, opts); err != nil {
			return fmt.Errorf("archive timeline %s: %w", snap.GameID, err)
		}
	}
	return nil
}

func (g *GameRepository) LoadTimeline(ctx context.Context, gameID string) (domain.TimelineSnapshot, error) {
	var snap domain.TimelineSnapshot

	if g.redis != nil {
		raw, err := g.redis.Get(ctx, timelineKeyPrefix+gameID).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &snap); err != nil {
				return snap, fmt.Errorf("decode timeline %s: %w", gameID, err)
			}
			return snap, nil
		case !errors.Is(err, redis.Nil):
			g.log.Warnw("timeline cache read failed", "game", gameID, "error", err)
		}
	}

	if g.mongo != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := g.mongo.Collection(gamesCollection).FindOne(ctx, bson.M{"game_id": gameID}).Decode(&snap)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return snap, errs.ErrGameNotFound
		}
		if err != nil {
			return snap, fmt.Errorf("load timeline %s: %w", gameID, err)
		}
		return snap, nil
	}

	return snap, errs.ErrGameNotFound
}

// MemoryGameRepository is the store used when no database is configured.
type MemoryGameRepository struct {
	mu    sync.RWMutex
	games map[string]domain.TimelineSnapshot
}

func NewMemoryGameRepository() *MemoryGameRepository {
	return &MemoryGameRepository{games: make(map[string]domain.TimelineSnapshot)}
}

func (m *MemoryGameRepository) SaveTimeline(_ context.Context, snap domain.TimelineSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.UpdatedAt = time.Now().UTC()
	m.games[snap.GameID] = snap
	return nil
}

func (m *MemoryGameRepository) LoadTimeline(_ context.Context, gameID string) (domain.TimelineSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.games[gameID]
	if !ok {
		return domain.TimelineSnapshot{}, errs.ErrGameNotFound
	}
	return snap, nil
}
