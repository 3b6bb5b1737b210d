package repository

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"askgm/internal/domain"
	errs "askgm/internal/errors"
)

func mustMove(t *testing.T, s string) domain.Move {
	t.Helper()
	m, err := domain.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func TestOracleApply(t *testing.T) {
	o := NewChessOracle()

	next, err := o.Apply(domain.StartFEN, mustMove(t, "e2e4"))
	if err != nil {
		t.Fatalf("Apply e2e4: %v", err)
	}
	if want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq"; !strings.HasPrefix(next.String(), want) {
		t.Errorf("after e2e4 got %q, want prefix %q", next, want)
	}

	if _, err := o.Apply(domain.StartFEN, mustMove(t, "e2e5")); !errors.Is(err, errs.ErrIllegalMove) {
		t.Errorf("e2e5 should be illegal, got %v", err)
	}

	if _, err := o.Apply("not a fen", mustMove(t, "e2e4")); !errors.Is(err, errs.ErrInvalidPosition) {
		t.Errorf("garbage position should be invalid, got %v", err)
	}
}

func TestOracleNormalizeRoundTrip(t *testing.T) {
	o := NewChessOracle()
	got, err := o.Normalize(domain.StartFEN)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != domain.StartFEN {
		t.Errorf("start position did not round-trip: %q", got)
	}
}

func TestOraclePromotion(t *testing.T) {
	o := NewChessOracle()
	pos := domain.Position("8/P7/8/8/8/8/8/k6K w - - 0 1")

	if _, err := o.Apply(pos, mustMove(t, "a7a8")); !errors.Is(err, errs.ErrIllegalMove) {
		t.Errorf("promotion without piece should be rejected, got %v", err)
	}
	next, err := o.Apply(pos, mustMove(t, "a7a8n"))
	if err != nil {
		t.Fatalf("a7a8n: %v", err)
	}
	if next.String()[0] != 'N' {
		t.Errorf("expected a knight on a8, got %q", next)
	}
}

func TestOracleLegalDestinations(t *testing.T) {
	o := NewChessOracle()

	got, err := o.LegalDestinations(domain.StartFEN, "g1")
	if err != nil {
		t.Fatalf("LegalDestinations: %v", err)
	}
	if want := []string{"f3", "h3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("g1 destinations = %v, want %v", got, want)
	}

	got, err = o.LegalDestinations(domain.StartFEN, "e4")
	if err != nil {
		t.Fatalf("LegalDestinations empty square: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty square should have no destinations, got %v", got)
	}

	if _, err := o.LegalDestinations(domain.StartFEN, "z9"); !errors.Is(err, errs.ErrInvalidSquare) {
		t.Errorf("z9 should be an invalid square, got %v", err)
	}
}

func TestOracleCheckAndKing(t *testing.T) {
	o := NewChessOracle()
	tests := []struct {
		name    string
		fen     domain.Position
		inCheck bool
	}{
		{"start", domain.StartFEN, false},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", true},
		{"rook on file", "4k3/8/8/8/8/8/8/4RK2 b - - 0 1", true},
		{"rook blocked", "4k3/8/8/4p3/8/8/8/4RK2 b - - 0 1", false},
		{"pawn check", "8/8/8/8/8/5k2/6P1/7K b - - 0 1", true},
		{"knight check", "4k3/8/3N4/8/8/8/8/4K3 b - - 0 1", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := o.IsInCheck(tc.fen)
			if err != nil {
				t.Fatalf("IsInCheck: %v", err)
			}
			if got != tc.inCheck {
				t.Errorf("IsInCheck = %v, want %v", got, tc.inCheck)
			}
		})
	}

	sq, err := o.KingSquare(domain.StartFEN, false)
	if err != nil {
		t.Fatalf("KingSquare: %v", err)
	}
	if sq != "e8" {
		t.Errorf("black king on %s, want e8", sq)
	}
}

func TestOracleMaterial(t *testing.T) {
	o := NewChessOracle()
	// White has won a knight, Black a pawn.
	m, err := o.Material("r1bqkbnr/pppppppp/8/8/8/8/1PPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("Material: %v", err)
	}
	if !reflect.DeepEqual(m.CapturedByWhite, []string{"n"}) {
		t.Errorf("captured by white = %v", m.CapturedByWhite)
	}
	if !reflect.DeepEqual(m.CapturedByBlack, []string{"p"}) {
		t.Errorf("captured by black = %v", m.CapturedByBlack)
	}
	if m.Advantage != 2 {
		t.Errorf("advantage = %d, want 2", m.Advantage)
	}
}
