package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"askgm/internal/domain"
)

const conversationsCollection = "conversations"

type ChatRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewChatRepository(log *zap.SugaredLogger, mongo *mongo.Database) *ChatRepository {
	return &ChatRepository{log: log, mongo: mongo}
}

func (c *ChatRepository) AppendTurns(ctx context.Context, turns ...domain.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docs := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		docs = append(docs, t)
	}
	if _, err := c.mongo.Collection(conversationsCollection).InsertMany(ctx, docs); err != nil {
		c.log.Errorw("failed to store chat turns", "game", turns[0].GameID, "error", err)
		return fmt.Errorf("store chat turns: %w", err)
	}
	return nil
}

// History returns the last limit turns of a game's conversation with a
// persona, oldest first.
func (c *ChatRepository) History(ctx context.Context, gameID, persona string, limit int) ([]domain.ChatTurn, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"game_id": gameID, "persona": persona}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := c.mongo.Collection(conversationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	defer cursor.Close(ctx)

	var turns []domain.ChatTurn
	for cursor.Next(ctx) {
		var t domain.ChatTurn
		if err := cursor.Decode(&t); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	reverse(turns)
	return turns, nil
}

func reverse(turns []domain.ChatTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}

type MemoryChatRepository struct {
	mu    sync.Mutex
	turns []domain.ChatTurn
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{}
}

func (m *MemoryChatRepository) AppendTurns(_ context.Context, turns ...domain.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turns...)
	return nil
}

func (m *MemoryChatRepository) History(_ context.Context, gameID, persona string, limit int) ([]domain.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChatTurn
	for _, t := range m.turns {
		if t.GameID == gameID && t.Persona == persona {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
