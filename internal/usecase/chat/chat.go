package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"askgm/internal/domain"
	"askgm/internal/domain/persona"
	errs "askgm/internal/errors"
	"askgm/internal/usecase/analysis"
)

const historyLimit = 20

type TextGenerator interface {
	Complete(ctx context.Context, system string, turns []domain.ChatTurn) (string, error)
}

type ChatStore interface {
	AppendTurns(ctx context.Context, turns ...domain.ChatTurn) error
	History(ctx context.Context, gameID, persona string, limit int) ([]domain.ChatTurn, error)
}

type PositionSource interface {
	CurrentPosition(ctx context.Context, gameID string) (domain.Position, error)
}

type AnalysisSource interface {
	LatestFor(pos domain.Position) (analysis.Update, bool)
}

// AskRequest names either a game, whose current position is discussed, or
// a bare FEN with a client-side history. BestMove is only used when the
// server has no settled analysis of the position.
type AskRequest struct {
	GameID   string            `json:"gameId,omitempty"`
	Persona  string            `json:"selectedGM"`
	FEN      string            `json:"currentFen,omitempty"`
	Question string            `json:"question"`
	BestMove string            `json:"bestMove,omitempty"`
	History  []domain.ChatTurn `json:"conversationHistory,omitempty"`
}

type AskResponse struct {
	Reply    string       `json:"reply"`
	Persona  string       `json:"gm"`
	FEN      string       `json:"fen"`
	BestMove *domain.Move `json:"bestMove"`
}

type ChatUseCase struct {
	llm      TextGenerator
	store    ChatStore
	games    PositionSource
	analysis AnalysisSource
	log      *zap.SugaredLogger
}

func NewChatUseCase(llm TextGenerator, store ChatStore, games PositionSource, analysis AnalysisSource, log *zap.SugaredLogger) *ChatUseCase {
	return &ChatUseCase{llm: llm, store: store, games: games, analysis: analysis, log: log}
}

func (c *ChatUseCase) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	if err := validate(req); err != nil {
		return AskResponse{}, err
	}
	gm, err := persona.Find(req.Persona)
	if err != nil {
		return AskResponse{}, err
	}

	pos := domain.Position(req.FEN)
	if req.GameID != "" {
		pos, err = c.games.CurrentPosition(ctx, req.GameID)
		if err != nil {
			return AskResponse{}, err
		}
	} else if !pos.Valid() {
		return AskResponse{}, fmt.Errorf("%w: %q", errs.ErrInvalidPosition, req.FEN)
	}

	best := c.settledBestMove(pos)
	if best == nil && req.BestMove != "" {
		if mv, err := domain.ParseMove(req.BestMove); err == nil {
			best = &mv
		}
	}

	history := make([]domain.ChatTurn, 0, len(req.History))
	for _, t := range req.History {
		t.Role = domain.ClientRole(t.Role)
		history = append(history, t)
	}
	if req.GameID != "" {
		stored, err := c.store.History(ctx, req.GameID, gm.Key, historyLimit)
		if err != nil {
			c.log.Warnw("chat history unavailable", "game", req.GameID, "error", err)
		} else {
			history = stored
		}
	}

	question := domain.ChatTurn{
		GameID:    req.GameID,
		Persona:   gm.Key,
		Role:      domain.RoleUser,
		Content:   req.Question,
		CreatedAt: time.Now().UTC(),
	}
	turns := append(append([]domain.ChatTurn(nil), history...), question)

	reply, err := c.llm.Complete(ctx, gm.SystemPrompt(pos, best), turns)
	if err != nil {
		c.log.Errorw("persona reply failed", "persona", gm.Key, "error", err)
		return AskResponse{}, err
	}

	if req.GameID != "" {
		answer := domain.ChatTurn{
			GameID:    req.GameID,
			Persona:   gm.Key,
			Role:      domain.RoleAssistant,
			Content:   reply,
			CreatedAt: time.Now().UTC(),
		}
		if err := c.store.AppendTurns(ctx, question, answer); err != nil {
			c.log.Warnw("chat turns not stored", "game", req.GameID, "error", err)
		}
	}

	return AskResponse{Reply: reply, Persona: gm.Name, FEN: pos.String(), BestMove: best}, nil
}

func (c *ChatUseCase) settledBestMove(pos domain.Position) *domain.Move {
	if c.analysis == nil {
		return nil
	}
	u, ok := c.analysis.LatestFor(pos)
	if !ok || u.State != analysis.StateSettled {
		return nil
	}
	return u.Result.BestMove
}

func validate(req AskRequest) error {
	var missing []string
	if strings.TrimSpace(req.Question) == "" {
		missing = append(missing, "question")
	}
	if req.Persona == "" {
		missing = append(missing, "selectedGM")
	}
	if req.GameID == "" && req.FEN == "" {
		missing = append(missing, "currentFen")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errs.ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
