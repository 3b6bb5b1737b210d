package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"askgm/internal/domain"
	"askgm/internal/domain/opening"
	errs "askgm/internal/errors"
	"askgm/internal/repository"
	"askgm/internal/timeline"
	"askgm/internal/usecase/analysis"
)

type Oracle interface {
	timeline.MoveApplier
	Normalize(fen string) (domain.Position, error)
	LegalDestinations(pos domain.Position, square string) ([]string, error)
	IsInCheck(pos domain.Position) (bool, error)
	KingSquare(pos domain.Position, white bool) (string, error)
	LegalMoves(pos domain.Position) ([]domain.Move, error)
	Material(pos domain.Position) (domain.Material, error)
}

type TimelineStore interface {
	SaveTimeline(ctx context.Context, snap domain.TimelineSnapshot) error
	LoadTimeline(ctx context.Context, gameID string) (domain.TimelineSnapshot, error)
}

type Analyzer interface {
	Analyze(pos domain.Position)
	Subscribe(o analysis.Observer) (unsubscribe func())
	LatestFor(pos domain.Position) (analysis.Update, bool)
}

const (
	EventPosition = "position"
	EventAnalysis = "analysis"
)

// Event is pushed to display clients of a game.
type Event struct {
	Type     string            `json:"type"`
	State    *domain.GameState `json:"state,omitempty"`
	Analysis *analysis.Update  `json:"analysis,omitempty"`
}

const subscriberBuffer = 32

type session struct {
	tl      *timeline.Timeline
	opening string

	mu      sync.Mutex
	current domain.Position
}

type GameUseCase struct {
	oracle   Oracle
	store    TimelineStore
	analyzer Analyzer
	log      *zap.SugaredLogger

	mu       sync.RWMutex
	sessions map[string]*session

	subMu   sync.Mutex
	subs    map[string]map[int]chan Event
	nextSub int
}

func NewGameUseCase(oracle Oracle, store TimelineStore, analyzer Analyzer, log *zap.SugaredLogger) *GameUseCase {
	uc := &GameUseCase{
		oracle:   oracle,
		store:    store,
		analyzer: analyzer,
		log:      log,
		sessions: make(map[string]*session),
		subs:     make(map[string]map[int]chan Event),
	}
	analyzer.Subscribe(uc.forwardAnalysis)
	return uc
}

// NewGame starts a timeline at startFEN, or at the standard start position
// when startFEN is empty.
func (uc *GameUseCase) NewGame(ctx context.Context, gameID, startFEN string) (domain.GameState, error) {
	start := domain.Position(domain.StartFEN)
	if startFEN != "" {
		pos, err := uc.oracle.Normalize(startFEN)
		if err != nil {
			return domain.GameState{}, err
		}
		start = pos
	}
	if gameID == "" {
		gameID = repository.NewGameID()
	}

	s := uc.register(timeline.New(gameID, uc.oracle, start), "")
	uc.analyzer.Analyze(start)
	uc.persist(ctx, s)
	return uc.stateOf(s), nil
}

// StartOpening replays the opening on a fresh timeline and rewinds it to
// the start position, so the lesson is stepped through with Jump.
func (uc *GameUseCase) StartOpening(ctx context.Context, gameID, key string) (domain.GameState, error) {
	op, err := opening.Find(key)
	if err != nil {
		return domain.GameState{}, err
	}
	if gameID == "" {
		gameID = repository.NewGameID()
	}

	tl := timeline.New(gameID, uc.oracle, domain.StartFEN)
	for _, raw := range op.Moves {
		mv, err := domain.ParseMove(raw)
		if err != nil {
			return domain.GameState{}, fmt.Errorf("opening %s: %w", op.Key, err)
		}
		if _, err := tl.ApplyMove(mv); err != nil {
			return domain.GameState{}, fmt.Errorf("opening %s: %w", op.Key, err)
		}
	}
	tl.JumpTo(0)

	s := uc.register(tl, op.Key)
	uc.analyzer.Analyze(tl.Current())
	uc.persist(ctx, s)
	return uc.stateOf(s), nil
}

func (uc *GameUseCase) Move(ctx context.Context, gameID, uci string) (domain.GameState, error) {
	mv, err := domain.ParseMove(uci)
	if err != nil {
		return domain.GameState{}, err
	}
	s, err := uc.session(ctx, gameID)
	if err != nil {
		return domain.GameState{}, err
	}
	if _, err := s.tl.ApplyMove(mv); err != nil {
		return uc.stateOf(s), err
	}
	uc.persist(ctx, s)
	return uc.stateOf(s), nil
}

func (uc *GameUseCase) Back(ctx context.Context, gameID string) (domain.GameState, error) {
	return uc.navigate(ctx, gameID, func(tl *timeline.Timeline) { tl.Navigate(timeline.Back) })
}

func (uc *GameUseCase) Forward(ctx context.Context, gameID string) (domain.GameState, error) {
	return uc.navigate(ctx, gameID, func(tl *timeline.Timeline) { tl.Navigate(timeline.Forward) })
}

func (uc *GameUseCase) Jump(ctx context.Context, gameID string, index int) (domain.GameState, error) {
	return uc.navigate(ctx, gameID, func(tl *timeline.Timeline) { tl.JumpTo(index) })
}

func (uc *GameUseCase) navigate(ctx context.Context, gameID string, step func(*timeline.Timeline)) (domain.GameState, error) {
	s, err := uc.session(ctx, gameID)
	if err != nil {
		return domain.GameState{}, err
	}
	before := s.tl.Cursor()
	step(s.tl)
	if s.tl.Cursor() != before {
		uc.persist(ctx, s)
	}
	return uc.stateOf(s), nil
}

func (uc *GameUseCase) State(ctx context.Context, gameID string) (domain.GameState, error) {
	s, err := uc.session(ctx, gameID)
	if err != nil {
		return domain.GameState{}, err
	}
	return uc.stateOf(s), nil
}

func (uc *GameUseCase) Destinations(ctx context.Context, gameID, square string) ([]string, error) {
	s, err := uc.session(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return uc.oracle.LegalDestinations(s.tl.Current(), square)
}

// Analysis returns the analysis of the game's current position. When
// another game superseded it before it settled, it is requested again and
// the fresh in-flight update is returned.
func (uc *GameUseCase) Analysis(ctx context.Context, gameID string) (analysis.Update, bool, error) {
	s, err := uc.session(ctx, gameID)
	if err != nil {
		return analysis.Update{}, false, err
	}
	pos := s.tl.Current()
	u, ok := uc.analyzer.LatestFor(pos)
	if !ok || u.State == analysis.StateSuperseded {
		uc.log.Debugw("no analysis for the current position, requesting it", "game", gameID, "fen", pos)
		uc.analyzer.Analyze(pos)
		u, ok = uc.analyzer.LatestFor(pos)
	}
	return u, ok, nil
}

// CurrentPosition is the position shown for gameID.
func (uc *GameUseCase) CurrentPosition(ctx context.Context, gameID string) (domain.Position, error) {
	s, err := uc.session(ctx, gameID)
	if err != nil {
		return "", err
	}
	return s.tl.Current(), nil
}

// Subscribe streams position and analysis events of a game. Slow readers
// lose events rather than block the game.
func (uc *GameUseCase) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	if _, err := uc.session(ctx, gameID); err != nil {
		return nil, nil, err
	}
	ch := make(chan Event, subscriberBuffer)

	uc.subMu.Lock()
	id := uc.nextSub
	uc.nextSub++
	if uc.subs[gameID] == nil {
		uc.subs[gameID] = make(map[int]chan Event)
	}
	uc.subs[gameID][id] = ch
	uc.subMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			uc.subMu.Lock()
			delete(uc.subs[gameID], id)
			if len(uc.subs[gameID]) == 0 {
				delete(uc.subs, gameID)
			}
			close(ch)
			uc.subMu.Unlock()
		})
	}
	return ch, unsubscribe, nil
}

// session returns the live session, restoring it from the store after a
// restart.
func (uc *GameUseCase) session(ctx context.Context, gameID string) (*session, error) {
	uc.mu.RLock()
	s, ok := uc.sessions[gameID]
	uc.mu.RUnlock()
	if ok {
		return s, nil
	}

	snap, err := uc.store.LoadTimeline(ctx, gameID)
	if err != nil {
		if !errors.Is(err, errs.ErrGameNotFound) {
			uc.log.Errorw("failed to load timeline", "game", gameID, "error", err)
		}
		return nil, err
	}
	tl, err := timeline.Restore(uc.oracle, snap)
	if err != nil {
		uc.log.Errorw("stored timeline is corrupt", "game", gameID, "error", err)
		return nil, fmt.Errorf("%w: %v", errs.ErrInternal, err)
	}

	uc.mu.Lock()
	if existing, ok := uc.sessions[gameID]; ok {
		uc.mu.Unlock()
		return existing, nil
	}
	s = uc.newSession(tl, snap.Opening)
	uc.sessions[gameID] = s
	uc.mu.Unlock()

	uc.log.Infow("game restored", "game", gameID, "positions", len(snap.Positions))
	uc.analyzer.Analyze(tl.Current())
	return s, nil
}

func (uc *GameUseCase) register(tl *timeline.Timeline, openingKey string) *session {
	s := uc.newSession(tl, openingKey)

	uc.mu.Lock()
	uc.sessions[tl.GameID()] = s
	uc.mu.Unlock()

	state := uc.stateOf(s)
	uc.broadcast(tl.GameID(), Event{Type: EventPosition, State: &state})
	return s
}

func (uc *GameUseCase) newSession(tl *timeline.Timeline, openingKey string) *session {
	s := &session{
		tl:      tl,
		opening: openingKey,
		current: tl.Current(),
	}
	tl.Subscribe(func(snap domain.TimelineSnapshot) {
		pos := snap.Current()
		s.mu.Lock()
		s.current = pos
		s.mu.Unlock()

		uc.analyzer.Analyze(pos)
		state := uc.buildState(snap, s.opening)
		uc.broadcast(snap.GameID, Event{Type: EventPosition, State: &state})
	})
	return s
}

// forwardAnalysis runs under the coordinator's lock. It must not touch any
// timeline.
func (uc *GameUseCase) forwardAnalysis(u analysis.Update) {
	var matching []string
	uc.mu.RLock()
	for id, s := range uc.sessions {
		s.mu.Lock()
		if s.current == u.Position {
			matching = append(matching, id)
		}
		s.mu.Unlock()
	}
	uc.mu.RUnlock()

	for _, id := range matching {
		update := u
		uc.broadcast(id, Event{Type: EventAnalysis, Analysis: &update})
	}
}

func (uc *GameUseCase) persist(ctx context.Context, s *session) {
	snap := s.tl.Snapshot()
	snap.Opening = s.opening
	if err := uc.store.SaveTimeline(ctx, snap); err != nil {
		uc.log.Errorw("failed to save timeline", "game", snap.GameID, "error", err)
	}
}

func (uc *GameUseCase) stateOf(s *session) domain.GameState {
	return uc.buildState(s.tl.Snapshot(), s.opening)
}

func (uc *GameUseCase) buildState(snap domain.TimelineSnapshot, openingKey string) domain.GameState {
	pos := snap.Current()
	moves := make([]string, len(snap.Moves))
	for i, mv := range snap.Moves {
		moves[i] = mv.String()
	}

	state := domain.GameState{
		GameID:     snap.GameID,
		FEN:        pos,
		Positions:  snap.Positions,
		Moves:      moves,
		Cursor:     snap.Cursor,
		CanBack:    snap.Cursor > 0,
		CanForward: snap.Cursor < len(snap.Positions)-1,
		Opening:    openingKey,
	}
	if check, err := uc.oracle.IsInCheck(pos); err == nil && check {
		state.InCheck = true
		if sq, err := uc.oracle.KingSquare(pos, pos.WhiteToMove()); err == nil {
			state.CheckSquare = sq
		}
	}
	if legal, err := uc.oracle.LegalMoves(pos); err == nil && len(legal) == 0 {
		state.Outcome = domain.OutcomeStalemate
		if state.InCheck {
			state.Outcome = domain.OutcomeCheckmate
		}
	}
	if material, err := uc.oracle.Material(pos); err == nil {
		state.Material = material
	} else {
		uc.log.Debugw("material summary unavailable", "fen", pos, "error", err)
	}
	return state
}

func (uc *GameUseCase) broadcast(gameID string, ev Event) {
	uc.subMu.Lock()
	defer uc.subMu.Unlock()
	for id, ch := range uc.subs[gameID] {
		select {
		case ch <- ev:
		default:
			uc.log.Debugw("display client is behind, dropping event", "game", gameID, "subscriber", id, "type", ev.Type)
		}
	}
}
