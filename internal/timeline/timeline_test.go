package timeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"askgm/internal/domain"
	errs "askgm/internal/errors"
	"askgm/internal/repository"
)

// stubApplier accepts every move except those landing on h8 and encodes the
// successor as the parent followed by the move.
type stubApplier struct{}

func (stubApplier) Apply(pos domain.Position, mv domain.Move) (domain.Position, error) {
	if mv.To == "h8" {
		return "", errors.New("rejected")
	}
	return domain.Position(fmt.Sprintf("%s %s", pos, mv)), nil
}

func move(t *testing.T, s string) domain.Move {
	t.Helper()
	m, err := domain.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func TestTruncateAfterNavigatingBack(t *testing.T) {
	moves := []string{"a2a3", "b2b3", "c2c3", "d2d3", "e2e3", "f2f3"}
	for n := 1; n <= len(moves); n++ {
		for k := 0; k < n; k++ {
			t.Run(fmt.Sprintf("n=%d,k=%d", n, k), func(t *testing.T) {
				tl := New("g", stubApplier{}, "start")
				for _, s := range moves[:n] {
					if _, err := tl.ApplyMove(move(t, s)); err != nil {
						t.Fatalf("ApplyMove(%s): %v", s, err)
					}
				}
				before := tl.Snapshot().Positions
				tl.JumpTo(k)
				if _, err := tl.ApplyMove(move(t, "g2g3")); err != nil {
					t.Fatalf("ApplyMove after jump: %v", err)
				}

				snap := tl.Snapshot()
				if len(snap.Positions) != k+2 {
					t.Fatalf("length = %d, want %d", len(snap.Positions), k+2)
				}
				for i := 0; i <= k; i++ {
					if snap.Positions[i] != before[i] {
						t.Errorf("position %d changed: %q != %q", i, snap.Positions[i], before[i])
					}
				}
				if snap.Cursor != k+1 {
					t.Errorf("cursor = %d, want %d", snap.Cursor, k+1)
				}
				if len(snap.Moves) != k+1 {
					t.Errorf("moves length = %d, want %d", len(snap.Moves), k+1)
				}
			})
		}
	}
}

func TestNavigateBoundariesAreNoOps(t *testing.T) {
	tl := New("g", stubApplier{}, "start")
	notified := 0
	tl.Subscribe(func(domain.TimelineSnapshot) { notified++ })

	if got := tl.Navigate(Back); got != "start" {
		t.Errorf("back at 0 returned %q", got)
	}
	if got := tl.Navigate(Forward); got != "start" {
		t.Errorf("forward at end returned %q", got)
	}
	if notified != 0 {
		t.Errorf("no-op navigation notified %d times", notified)
	}

	after, _ := tl.ApplyMove(move(t, "e2e4"))
	if got := tl.Navigate(Forward); got != after {
		t.Errorf("forward at end returned %q, want %q", got, after)
	}
	if tl.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", tl.Cursor())
	}
}

func TestIllegalMoveLeavesStateUnchanged(t *testing.T) {
	tl := New("g", stubApplier{}, "start")
	if _, err := tl.ApplyMove(move(t, "e2e4")); err != nil {
		t.Fatal(err)
	}
	tl.Navigate(Back)
	notified := 0
	tl.Subscribe(func(domain.TimelineSnapshot) { notified++ })

	cur := tl.Current()
	_, err := tl.ApplyMove(move(t, "a1h8"))
	if !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if tl.Current() != cur {
		t.Errorf("current changed to %q", tl.Current())
	}
	if tl.Len() != 2 {
		t.Errorf("length changed to %d", tl.Len())
	}
	if notified != 0 {
		t.Errorf("rejected move notified observers")
	}
}

func TestJumpToClamps(t *testing.T) {
	tl := New("g", stubApplier{}, "start")
	for _, s := range []string{"a2a3", "b2b3", "c2c3"} {
		tl.ApplyMove(move(t, s))
	}
	tl.JumpTo(-5)
	if tl.Cursor() != 0 {
		t.Errorf("cursor = %d after JumpTo(-5)", tl.Cursor())
	}
	tl.JumpTo(99)
	if tl.Cursor() != 3 {
		t.Errorf("cursor = %d after JumpTo(99)", tl.Cursor())
	}
	if got := tl.JumpTo(1); !strings.HasSuffix(got.String(), "a2a3") {
		t.Errorf("JumpTo(1) = %q", got)
	}
}

func TestObserversSeeEveryChangeBeforeReturn(t *testing.T) {
	tl := New("g", stubApplier{}, "start")
	var seen []domain.Position
	tl.Subscribe(func(s domain.TimelineSnapshot) { seen = append(seen, s.Current()) })

	p1, _ := tl.ApplyMove(move(t, "e2e4"))
	if len(seen) != 1 || seen[0] != p1 {
		t.Fatalf("observer saw %v after ApplyMove", seen)
	}
	tl.Navigate(Back)
	tl.Navigate(Forward)
	tl.JumpTo(0)
	want := []domain.Position{p1, "start", p1, "start"}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %d changes, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("change %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestRestore(t *testing.T) {
	tl := New("g", stubApplier{}, "start")
	tl.ApplyMove(move(t, "e2e4"))
	tl.ApplyMove(move(t, "e7e5"))
	tl.Navigate(Back)

	restored, err := Restore(stubApplier{}, tl.Snapshot())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Current() != tl.Current() || restored.Len() != 3 {
		t.Errorf("restored timeline differs: cursor %d len %d", restored.Cursor(), restored.Len())
	}

	bad := tl.Snapshot()
	bad.Moves = bad.Moves[:1]
	if _, err := Restore(stubApplier{}, bad); err == nil {
		t.Error("Restore accepted a snapshot with a gap")
	}
}

func TestOpeningScenarioWithChessRules(t *testing.T) {
	tl := New("g", repository.NewChessOracle(), domain.StartFEN)

	afterE4, err := tl.ApplyMove(move(t, "e2e4"))
	if err != nil {
		t.Fatalf("e2e4: %v", err)
	}
	if tl.Len() != 2 || tl.Cursor() != 1 {
		t.Fatalf("after e2e4: len %d cursor %d", tl.Len(), tl.Cursor())
	}

	if got := tl.Navigate(Back); got != domain.StartFEN {
		t.Fatalf("back returned %q", got)
	}

	afterD4, err := tl.ApplyMove(move(t, "d2d4"))
	if err != nil {
		t.Fatalf("d2d4: %v", err)
	}
	snap := tl.Snapshot()
	if len(snap.Positions) != 2 || snap.Cursor != 1 {
		t.Fatalf("after d2d4: len %d cursor %d", len(snap.Positions), snap.Cursor)
	}
	if snap.Positions[1] != afterD4 || afterD4 == afterE4 {
		t.Errorf("e4 branch was not discarded: %v", snap.Positions)
	}

	if _, err := tl.ApplyMove(move(t, "d4d6")); !errors.Is(err, errs.ErrIllegalMove) {
		t.Errorf("d4d6 should be illegal for black to move, got %v", err)
	}
}
