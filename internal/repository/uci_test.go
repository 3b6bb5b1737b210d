package repository

import (
	"testing"
)

func TestParseInfo(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		ok       bool
		score    *int
		mate     *int
		pv       string
		depth    int
		bestMove string
	}{
		{
			name:     "centipawns with pv",
			line:     "info depth 12 seldepth 18 multipv 1 score cp 34 nodes 12000 nps 500000 pv e2e4 e7e5 g1f3",
			ok:       true,
			score:    intPtr(34),
			pv:       "e2e4 e7e5 g1f3",
			depth:    12,
			bestMove: "e2e4",
		},
		{
			name:     "mate",
			line:     "info depth 20 score mate 3 pv d1h5",
			ok:       true,
			score:    intPtr(9999),
			mate:     intPtr(3),
			pv:       "d1h5",
			depth:    20,
			bestMove: "d1h5",
		},
		{
			name:     "mated",
			line:     "info depth 20 score mate -2 pv g8f6",
			ok:       true,
			score:    intPtr(-9999),
			mate:     intPtr(-2),
			pv:       "g8f6",
			depth:    20,
			bestMove: "g8f6",
		},
		{
			name:  "score without pv",
			line:  "info depth 3 score cp -15 lowerbound nodes 100",
			ok:    true,
			score: intPtr(-15),
			depth: 3,
		},
		{
			name:     "pv stops at first bad token",
			line:     "info depth 8 score cp 5 pv e2e4 zz99 d2d4",
			ok:       true,
			score:    intPtr(5),
			pv:       "e2e4",
			depth:    8,
			bestMove: "e2e4",
		},
		{name: "currmove only", line: "info depth 5 currmove e2e4 currmovenumber 1"},
		{name: "string", line: "info string NNUE evaluation using nn.nnue enabled"},
		{name: "secondary multipv", line: "info depth 10 multipv 2 score cp 10 pv d2d4"},
		{name: "malformed score", line: "info depth 10 score cp abc pv e2e4"},
		{name: "malformed depth", line: "info depth x score cp 10 pv e2e4"},
		{name: "truncated score", line: "info depth 10 score cp"},
		{name: "not info", line: "readyok"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseInfo(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !equalIntPtr(got.Score, tt.score) {
				t.Errorf("score = %v, want %v", deref(got.Score), deref(tt.score))
			}
			if !equalIntPtr(got.MateIn, tt.mate) {
				t.Errorf("mate = %v, want %v", deref(got.MateIn), deref(tt.mate))
			}
			if s := joinMoves(got.PV); s != tt.pv {
				t.Errorf("pv = %q, want %q", s, tt.pv)
			}
			if got.Depth != tt.depth {
				t.Errorf("depth = %d, want %d", got.Depth, tt.depth)
			}
			var best string
			if got.BestMove != nil {
				best = got.BestMove.String()
			}
			if best != tt.bestMove {
				t.Errorf("best move = %q, want %q", best, tt.bestMove)
			}
		})
	}
}

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		move string
	}{
		{"bestmove e2e4 ponder e7e5", true, "e2e4"},
		{"bestmove e7e8q", true, "e7e8q"},
		{"bestmove (none)", true, ""},
		{"bestmove 0000", true, ""},
		{"bestmove", true, ""},
		{"info depth 1", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			mv, ok := parseBestMove(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			var got string
			if mv != nil {
				got = mv.String()
			}
			if got != tt.move {
				t.Errorf("move = %q, want %q", got, tt.move)
			}
		})
	}
}
