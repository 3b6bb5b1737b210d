package domain

import (
	"strings"
	"time"
)

// TimelineSnapshot is the persisted form of a game timeline.
type TimelineSnapshot struct {
	GameID    string     `json:"game_id" bson:"game_id"`
	Positions []Position `json:"positions" bson:"positions"`
	Moves     []Move     `json:"moves" bson:"moves"`
	Cursor    int        `json:"cursor" bson:"cursor"`
	Opening   string     `json:"opening,omitempty" bson:"opening,omitempty"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

func (s TimelineSnapshot) Current() Position {
	if len(s.Positions) == 0 {
		return ""
	}
	return s.Positions[s.Cursor]
}

// Material summarises captured pieces, listed most valuable first.
type Material struct {
	CapturedByWhite []string `json:"captured_by_white"`
	CapturedByBlack []string `json:"captured_by_black"`
	// Advantage is positive when White is ahead.
	Advantage int `json:"advantage"`
}

type GameState struct {
	GameID     string     `json:"game_id"`
	FEN        Position   `json:"fen"`
	Positions  []Position `json:"positions"`
	Moves      []string   `json:"moves"`
	Cursor     int        `json:"cursor"`
	CanBack    bool       `json:"can_back"`
	CanForward bool       `json:"can_forward"`
	InCheck    bool       `json:"in_check"`
	// CheckSquare is the square of the king in check, if any.
	CheckSquare string `json:"check_square,omitempty"`
	// Outcome is "checkmate" or "stalemate" once the side to move has no
	// legal moves.
	Outcome  string   `json:"outcome,omitempty"`
	Material Material `json:"material"`
	Opening  string   `json:"opening,omitempty"`
}

const (
	OutcomeCheckmate = "checkmate"
	OutcomeStalemate = "stalemate"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ClientRole maps a role sent by a chat client onto RoleUser or
// RoleAssistant. Clients label the player "user" or "You" and the
// grandmaster by role or display name.
func ClientRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleUser, "you":
		return RoleUser
	default:
		return RoleAssistant
	}
}

type ChatTurn struct {
	GameID    string    `json:"game_id,omitempty" bson:"game_id"`
	Persona   string    `json:"persona,omitempty" bson:"persona"`
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
