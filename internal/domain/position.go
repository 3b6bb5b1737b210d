package domain

import (
	"fmt"
	"strings"

	errs "askgm/internal/errors"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is the FEN encoding of a full board state. Two positions are
// equal iff their encodings are byte-identical.
type Position string

func (p Position) String() string {
	return string(p)
}

// Valid reports whether p is structurally a FEN: six fields, eight ranks of
// eight squares each and a side to move. Legality is left to the oracle.
func (p Position) Valid() bool {
	fields := strings.Fields(string(p))
	if len(fields) != 6 {
		return false
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return false
	}
	for _, rank := range ranks {
		width := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				width += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				width++
			default:
				return false
			}
		}
		if width != 8 {
			return false
		}
	}
	return fields[1] == "w" || fields[1] == "b"
}

func (p Position) WhiteToMove() bool {
	fields := strings.Fields(string(p))
	return len(fields) < 2 || fields[1] != "b"
}

// Move is a from/to square pair with an optional promotion piece, written
// in UCI long algebraic form ("e2e4", "e7e8q").
type Move struct {
	From      string
	To        string
	Promotion string
}

func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", errs.ErrInvalidMove, s)
	}
	m := Move{From: s[0:2], To: s[2:4]}
	if !ValidSquare(m.From) || !ValidSquare(m.To) {
		return Move{}, fmt.Errorf("%w: %q", errs.ErrInvalidMove, s)
	}
	if len(s) == 5 {
		if !strings.ContainsRune("qrbn", rune(s[4])) {
			return Move{}, fmt.Errorf("%w: bad promotion in %q", errs.ErrInvalidMove, s)
		}
		m.Promotion = s[4:]
	}
	return m, nil
}

func (m Move) String() string {
	return m.From + m.To + m.Promotion
}

func (m Move) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ValidSquare(sq string) bool {
	return len(sq) == 2 && sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}
