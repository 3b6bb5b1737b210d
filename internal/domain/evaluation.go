package domain

import (
	"fmt"
	"math"
)

// MateScore is the saturating centipawn value reported alongside a forced mate.
const MateScore = 9999

const (
	SourceEngine = "engine"
	SourceCloud  = "cloud"
)

// Evaluation is a normalized analysis result. Score is in centipawns from
// White's perspective; MateIn is positive when White mates. Nil fields mean
// "unknown".
type Evaluation struct {
	BestMove *Move  `json:"bestMove"`
	Score    *int   `json:"score"`
	MateIn   *int   `json:"forcedMateIn"`
	PV       []Move `json:"principalVariation"`
	Depth    int    `json:"depth,omitempty"`
	Source   string `json:"source,omitempty"`
}

// EmptyEvaluation is the all-nulls result.
func EmptyEvaluation() Evaluation {
	return Evaluation{PV: []Move{}}
}

func (e Evaluation) IsEmpty() bool {
	return e.BestMove == nil && e.Score == nil && e.MateIn == nil && len(e.PV) == 0
}

// WithCentipawns sets a centipawn score and clears any mate.
func (e Evaluation) WithCentipawns(cp int) Evaluation {
	e.Score = &cp
	e.MateIn = nil
	return e
}

// WithMate sets a forced mate and the matching score sentinel. A mate of 0
// means the side whose perspective the evaluation is in has been mated.
func (e Evaluation) WithMate(n int) Evaluation {
	score := MateScore
	if n <= 0 {
		score = -MateScore
	}
	e.MateIn = &n
	e.Score = &score
	return e
}

// Flip negates score and mate, turning a side-to-move relative evaluation
// into the opponent's perspective.
func (e Evaluation) Flip() Evaluation {
	if e.Score != nil {
		s := -*e.Score
		e.Score = &s
	}
	if e.MateIn != nil {
		m := -*e.MateIn
		e.MateIn = &m
	}
	return e
}

// FromSideToMove converts an evaluation expressed for the side to move into
// White's perspective.
func (e Evaluation) FromSideToMove(whiteToMove bool) Evaluation {
	if whiteToMove {
		return e
	}
	return e.Flip()
}

// Label renders the evaluation as shown next to the eval bar.
func (e Evaluation) Label() string {
	if e.Score == nil {
		return "="
	}
	if e.MateIn != nil {
		m := *e.MateIn
		if m < 0 {
			m = -m
		}
		return fmt.Sprintf("M%d", m)
	}
	cp := *e.Score
	if cp == 0 {
		return "0.00"
	}
	sign := "+"
	if cp < 0 {
		sign = "-"
		cp = -cp
	}
	if cp >= 100 {
		return fmt.Sprintf("%s%.1f", sign, float64(cp)/100)
	}
	return fmt.Sprintf("%s%.2f", sign, float64(cp)/100)
}

// WhitePercent maps the evaluation onto the white share of the eval bar.
func (e Evaluation) WhitePercent() float64 {
	if e.Score == nil {
		return 50
	}
	if e.MateIn != nil {
		if *e.Score > 0 {
			return 97
		}
		return 3
	}
	return 50 + 50*math.Tanh(float64(*e.Score)/400)
}

// SearchEvent is one message of an engine search stream. Every event carries
// the id of the search that produced it.
type SearchEvent struct {
	SearchID uint64
	Result   Evaluation
	Final    bool
}

// SearchStream is a running engine search. Events is closed after the final
// event, or early when the engine goes away.
type SearchStream struct {
	ID     uint64
	Events <-chan SearchEvent
}
