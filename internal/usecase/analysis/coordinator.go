package analysis

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"askgm/internal/domain"
)

type Engine interface {
	Init(ctx context.Context) error
	Search(ctx context.Context, pos domain.Position, depth int) (domain.SearchStream, error)
	Cancel(searchID uint64)
	Terminate() error
}

type Evaluator interface {
	Evaluate(ctx context.Context, pos domain.Position) domain.Evaluation
}

type State string

const (
	StateIdle       State = "idle"
	StateRequested  State = "requested"
	StateStreaming  State = "streaming"
	StateSettled    State = "settled"
	StateSuperseded State = "superseded"
)

const (
	ModeIdle     = "idle"
	ModeReady    = "ready"
	ModeFallback = "fallback"
)

// settledCacheSize bounds how many settled results LatestFor can still
// answer after the coordinator has moved on to other positions.
const settledCacheSize = 64

// Update is one externally visible step of an analysis generation.
type Update struct {
	Generation uint64            `json:"generation"`
	Position   domain.Position   `json:"fen"`
	State      State             `json:"state"`
	Thinking   bool              `json:"thinking"`
	Result     domain.Evaluation `json:"result"`
}

// Observer receives updates while the coordinator's lock is held. It must
// return quickly and must not call back into the Coordinator.
type Observer func(Update)

// Coordinator analyses the most recent position only. Each Analyze call
// starts a new generation; results of older generations are dropped.
type Coordinator struct {
	engine   Engine
	fallback Evaluator
	depth    int
	log      *zap.SugaredLogger

	// searchMu orders Search calls with generation checks so an older
	// generation can never start its search after a newer one.
	searchMu sync.Mutex

	mu           sync.Mutex
	generation   uint64
	cancel       context.CancelFunc
	latest       Update
	engineFailed bool
	engineReady  bool
	closed       bool
	observers    map[int]Observer
	nextObserver int

	settled      map[domain.Position]Update
	settledOrder []domain.Position

	wg sync.WaitGroup
}

// NewCoordinator wires the primary engine and the fallback evaluator. A nil
// engine means every analysis goes to the fallback.
func NewCoordinator(engine Engine, fallback Evaluator, depth int, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		engine:    engine,
		fallback:  fallback,
		depth:     depth,
		log:       log,
		latest:    Update{State: StateIdle, Result: domain.EmptyEvaluation()},
		observers: make(map[int]Observer),
		settled:   make(map[domain.Position]Update),
	}
}

func (c *Coordinator) Subscribe(o Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = o
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Analyze supersedes any analysis in flight and starts one for pos. It
// returns at once; progress is reported to observers.
func (c *Coordinator) Analyze(pos domain.Position) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	if s := c.latest.State; s == StateRequested || s == StateStreaming {
		c.log.Debugw("analysis generation finished", "generation", c.latest.Generation, "state", StateSuperseded)
		prev := c.latest
		c.publishLocked(Update{Generation: prev.Generation, Position: prev.Position, State: StateSuperseded, Result: prev.Result})
	}

	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.publishLocked(Update{Generation: gen, Position: pos, State: StateRequested, Thinking: true, Result: domain.EmptyEvaluation()})

	if !pos.Valid() {
		c.log.Debugw("invalid position, settling without analysis", "fen", pos)
		c.publishLocked(Update{Generation: gen, Position: pos, State: StateSettled, Result: domain.EmptyEvaluation()})
		c.mu.Unlock()
		return
	}

	useEngine := c.engine != nil && !c.engineFailed
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(ctx, gen, pos, useEngine)
}

func (c *Coordinator) run(ctx context.Context, gen uint64, pos domain.Position, useEngine bool) {
	defer c.wg.Done()

	if useEngine && c.runEngine(ctx, gen, pos) {
		return
	}
	if ctx.Err() != nil {
		return
	}
	res := c.fallback.Evaluate(ctx, pos)
	c.deliver(gen, pos, StateSettled, res)
}

// runEngine reports whether the generation was finished by the engine or
// superseded. false means the caller should fall back.
func (c *Coordinator) runEngine(ctx context.Context, gen uint64, pos domain.Position) bool {
	if err := c.engine.Init(ctx); err != nil {
		c.markEngineFailed(err)
		return ctx.Err() != nil
	}

	c.searchMu.Lock()
	current, failed := c.engineState(gen)
	if !current || failed {
		c.searchMu.Unlock()
		return !current
	}
	stream, err := c.engine.Search(ctx, pos, c.depth)
	c.searchMu.Unlock()
	if err != nil {
		c.markEngineFailed(err)
		return ctx.Err() != nil
	}
	c.markEngineReady()

	for {
		select {
		case <-ctx.Done():
			c.engine.Cancel(stream.ID)
			return true
		case ev, ok := <-stream.Events:
			if ctx.Err() != nil {
				c.engine.Cancel(stream.ID)
				return true
			}
			if !ok {
				c.markEngineFailed(errors.New("engine stopped before finishing the search"))
				return false
			}
			if ev.SearchID != stream.ID {
				continue
			}
			if ev.Final {
				c.deliver(gen, pos, StateSettled, ev.Result)
				return true
			}
			c.deliver(gen, pos, StateStreaming, ev.Result)
		}
	}
}

func (c *Coordinator) deliver(gen uint64, pos domain.Position, state State, res domain.Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.latest.State == StateSettled {
		c.log.Debugw("dropping stale analysis result", "generation", gen, "current", c.generation)
		return
	}
	c.publishLocked(Update{
		Generation: gen,
		Position:   pos,
		State:      state,
		Thinking:   state != StateSettled,
		Result:     res,
	})
}

func (c *Coordinator) publishLocked(u Update) {
	c.latest = u
	if u.State == StateSettled {
		c.rememberLocked(u)
	}
	for _, o := range c.observers {
		o(u)
	}
}

func (c *Coordinator) rememberLocked(u Update) {
	if _, ok := c.settled[u.Position]; !ok {
		if len(c.settledOrder) == settledCacheSize {
			delete(c.settled, c.settledOrder[0])
			c.settledOrder = c.settledOrder[1:]
		}
		c.settledOrder = append(c.settledOrder, u.Position)
	}
	c.settled[u.Position] = u
}

func (c *Coordinator) markEngineFailed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engineFailed {
		return
	}
	c.engineFailed = true
	c.log.Warnw("analysis engine unusable, using cloud evaluation from now on", "error", err)
}

func (c *Coordinator) markEngineReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engineReady = true
}

func (c *Coordinator) engineState(gen uint64) (current, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation, c.engineFailed
}

func (c *Coordinator) Thinking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest.Thinking
}

func (c *Coordinator) Latest() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// LatestFor returns the latest update if it belongs to pos, or else the
// last settled result for pos if one is still remembered.
func (c *Coordinator) LatestFor(pos domain.Position) (Update, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest.Generation != 0 && c.latest.Position == pos {
		return c.latest, true
	}
	u, ok := c.settled[pos]
	return u, ok
}

// Mode is "fallback" once the engine has failed, "ready" after the engine
// has served a search and "idle" before that.
func (c *Coordinator) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.engine == nil || c.engineFailed:
		return ModeFallback
	case c.engineReady:
		return ModeReady
	default:
		return ModeIdle
	}
}

// Close stops the analysis in flight and terminates the engine.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	var err error
	if c.engine != nil {
		err = c.engine.Terminate()
	}
	c.wg.Wait()
	return err
}
