package timeline

import (
	"fmt"
	"sync"

	"askgm/internal/domain"
	errs "askgm/internal/errors"
)

type Direction int

const (
	Back Direction = iota
	Forward
)

// MoveApplier validates a move against a position and returns the successor.
type MoveApplier interface {
	Apply(pos domain.Position, mv domain.Move) (domain.Position, error)
}

// Observer is called synchronously with the new state after every change of
// the current position. Observers must not call back into the Timeline.
type Observer func(domain.TimelineSnapshot)

// Timeline is a flat, branch-truncating sequence of positions with a cursor.
// positions[i+1] is produced by moves[i] applied to positions[i].
type Timeline struct {
	mu        sync.Mutex
	gameID    string
	oracle    MoveApplier
	positions []domain.Position
	moves     []domain.Move
	cursor    int
	observers []Observer
}

func New(gameID string, oracle MoveApplier, start domain.Position) *Timeline {
	return &Timeline{
		gameID:    gameID,
		oracle:    oracle,
		positions: []domain.Position{start},
		moves:     make([]domain.Move, 0),
	}
}

// Restore rebuilds a timeline from a snapshot. The snapshot must be gapless.
func Restore(oracle MoveApplier, snap domain.TimelineSnapshot) (*Timeline, error) {
	if len(snap.Positions) == 0 || len(snap.Moves) != len(snap.Positions)-1 {
		return nil, fmt.Errorf("restore timeline %s: %d positions for %d moves", snap.GameID, len(snap.Positions), len(snap.Moves))
	}
	if snap.Cursor < 0 || snap.Cursor >= len(snap.Positions) {
		return nil, fmt.Errorf("restore timeline %s: cursor %d out of range", snap.GameID, snap.Cursor)
	}
	t := &Timeline{
		gameID:    snap.GameID,
		oracle:    oracle,
		positions: append([]domain.Position(nil), snap.Positions...),
		moves:     append([]domain.Move(nil), snap.Moves...),
		cursor:    snap.Cursor,
	}
	return t, nil
}

func (t *Timeline) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// ApplyMove applies mv to the current position. Forward history past the
// cursor is discarded before the successor is appended. On failure the
// timeline is unchanged and the error wraps ErrIllegalMove.
func (t *Timeline) ApplyMove(mv domain.Move) (domain.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.oracle.Apply(t.positions[t.cursor], mv)
	if err != nil {
		return t.positions[t.cursor], fmt.Errorf("%w: %s", errs.ErrIllegalMove, mv)
	}

	t.positions = append(t.positions[:t.cursor+1], next)
	t.moves = append(t.moves[:t.cursor], mv)
	t.cursor = len(t.positions) - 1

	t.notifyLocked()
	return next, nil
}

// Navigate moves the cursor one step. At either end it is a no-op and the
// current position is returned unchanged.
func (t *Timeline) Navigate(dir Direction) domain.Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	target := t.cursor - 1
	if dir == Forward {
		target = t.cursor + 1
	}
	return t.moveCursorLocked(target)
}

// JumpTo sets the cursor to index clamped into the timeline bounds.
func (t *Timeline) JumpTo(index int) domain.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moveCursorLocked(index)
}

func (t *Timeline) GameID() string {
	return t.gameID
}

func (t *Timeline) Current() domain.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positions[t.cursor]
}

func (t *Timeline) Cursor() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.positions)
}

func (t *Timeline) Snapshot() domain.TimelineSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timeline) moveCursorLocked(target int) domain.Position {
	if target < 0 {
		target = 0
	}
	if last := len(t.positions) - 1; target > last {
		target = last
	}
	if target == t.cursor {
		return t.positions[t.cursor]
	}
	t.cursor = target
	t.notifyLocked()
	return t.positions[t.cursor]
}

func (t *Timeline) snapshotLocked() domain.TimelineSnapshot {
	return domain.TimelineSnapshot{
		GameID:    t.gameID,
		Positions: append([]domain.Position(nil), t.positions...),
		Moves:     append([]domain.Move(nil), t.moves...),
		Cursor:    t.cursor,
	}
}

func (t *Timeline) notifyLocked() {
	if len(t.observers) == 0 {
		return
	}
	snap := t.snapshotLocked()
	for _, o := range t.observers {
		o(snap)
	}
}
