package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"askgm/internal/domain"
	errs "askgm/internal/errors"
)

const (
	defaultInitTimeout = 10 * time.Second
	stopGracePeriod    = 2 * time.Second
	searchEventBuffer  = 64
)

type EngineStatus string

const (
	EngineIdle        EngineStatus = "idle"
	EngineReady       EngineStatus = "ready"
	EngineUnavailable EngineStatus = "unavailable"
)

// EngineProcess is a running engine speaking UCI over its stdin and stdout.
type EngineProcess struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	// Stop waits for the process to exit after quit, killing it if needed.
	Stop func() error
}

type StartFunc func() (*EngineProcess, error)

// ExecStarter launches the engine binary at path.
func ExecStarter(path string, args ...string) StartFunc {
	return func() (*EngineProcess, error) {
		if path == "" {
			return nil, errors.New("engine path is not configured")
		}
		cmd := exec.Command(path, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("engine stdin: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("engine stdout: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start engine %s: %w", path, err)
		}
		return &EngineProcess{
			Stdin:  stdin,
			Stdout: stdout,
			Stop:   func() error { return waitOrKill(cmd, stopGracePeriod) },
		}, nil
	}
}

func waitOrKill(cmd *exec.Cmd, grace time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		_ = cmd.Process.Kill()
		return <-done
	}
}

type search struct {
	id          uint64
	whiteToMove bool
	events      chan domain.SearchEvent
	superseded  bool
	last        domain.Evaluation
}

// EngineSession owns one long-lived UCI engine. Searches are attributed by
// order: every "go" yields exactly one "bestmove", so the oldest pending
// search owns each line until its bestmove arrives.
type EngineSession struct {
	start       StartFunc
	initTimeout time.Duration
	log         *zap.SugaredLogger

	initOnce sync.Once
	initErr  error
	termOnce sync.Once
	termErr  error

	// wmu serializes writes to the engine together with queueing of the
	// search they start. mu is never held while writing.
	wmu   sync.Mutex
	stdin *bufio.Writer

	mu         sync.Mutex
	proc       *EngineProcess
	pending    []*search
	nextID     uint64
	ready      bool
	dead       bool
	terminated bool

	control chan string
	done    chan struct{}
}

func NewEngineSession(start StartFunc, initTimeout time.Duration, log *zap.SugaredLogger) *EngineSession {
	if initTimeout <= 0 {
		initTimeout = defaultInitTimeout
	}
	return &EngineSession{
		start:       start,
		initTimeout: initTimeout,
		log:         log,
		control:     make(chan string, 4),
		done:        make(chan struct{}),
	}
}

// Init starts the engine and performs the UCI handshake. It runs once; a
// failure is remembered and returned by every later call.
func (s *EngineSession) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.boot(context.WithoutCancel(ctx))
		if s.initErr != nil {
			s.log.Warnw("analysis engine unavailable", "error", s.initErr)
		}
	})
	return s.initErr
}

func (s *EngineSession) boot(ctx context.Context) error {
	s.mu.Lock()
	if s.terminated {
		s.dead = true
		s.mu.Unlock()
		return fmt.Errorf("%w: session terminated", errs.ErrEngineUnavailable)
	}
	s.mu.Unlock()

	proc, err := s.start()
	if err != nil {
		s.markDead()
		return fmt.Errorf("%w: %v", errs.ErrEngineUnavailable, err)
	}

	s.mu.Lock()
	s.proc = proc
	s.stdin = bufio.NewWriter(proc.Stdin)
	s.mu.Unlock()

	go s.readLoop(proc.Stdout)

	ctx, cancel := context.WithTimeout(ctx, s.initTimeout)
	defer cancel()

	if err := s.handshake(ctx); err != nil {
		s.log.Errorw("engine handshake failed", "error", err)
		_ = s.Terminate()
		return fmt.Errorf("%w: %v", errs.ErrEngineUnavailable, err)
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.log.Info("analysis engine ready")
	return nil
}

func (s *EngineSession) handshake(ctx context.Context) error {
	if err := s.send("uci"); err != nil {
		return err
	}
	if err := s.await(ctx, "uciok"); err != nil {
		return err
	}
	if err := s.send("isready"); err != nil {
		return err
	}
	return s.await(ctx, "readyok")
}

func (s *EngineSession) await(ctx context.Context, token string) error {
	for {
		select {
		case got := <-s.control:
			if got == token {
				return nil
			}
		case <-s.done:
			return fmt.Errorf("engine exited before %s", token)
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", token, ctx.Err())
		}
	}
}

// Search starts a search of pos to the given depth. A search still in
// flight is stopped and its remaining output is dropped.
func (s *EngineSession) Search(ctx context.Context, pos domain.Position, depth int) (domain.SearchStream, error) {
	if err := s.Init(ctx); err != nil {
		return domain.SearchStream{}, err
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return domain.SearchStream{}, fmt.Errorf("%w: engine has exited", errs.ErrEngineUnavailable)
	}
	inFlight := s.supersedeLocked()
	s.nextID++
	sr := &search{
		id:          s.nextID,
		whiteToMove: pos.WhiteToMove(),
		events:      make(chan domain.SearchEvent, searchEventBuffer),
		last:        domain.EmptyEvaluation(),
	}
	s.pending = append(s.pending, sr)
	s.mu.Unlock()

	cmds := make([]string, 0, 3)
	if inFlight {
		cmds = append(cmds, "stop")
	}
	cmds = append(cmds, "position fen "+pos.String(), fmt.Sprintf("go depth %d", depth))
	if err := s.writeLocked(cmds...); err != nil {
		s.markDead()
		return domain.SearchStream{}, fmt.Errorf("%w: %v", errs.ErrEngineUnavailable, err)
	}
	return domain.SearchStream{ID: sr.id, Events: sr.events}, nil
}

// Cancel stops search id if it is still running. The stream is closed once
// the engine confirms with its bestmove; nothing else is delivered on it.
func (s *EngineSession) Cancel(id uint64) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	found := false
	for _, p := range s.pending {
		if p.id == id && !p.superseded {
			p.superseded = true
			found = true
		}
	}
	dead := s.dead
	s.mu.Unlock()

	if found && !dead {
		if err := s.writeLocked("stop"); err != nil {
			s.log.Warnw("failed to stop engine search", "search", id, "error", err)
		}
	}
}

func (s *EngineSession) supersedeLocked() bool {
	inFlight := false
	for _, p := range s.pending {
		if !p.superseded {
			p.superseded = true
			inFlight = true
			s.log.Debugw("engine search superseded", "search", p.id)
		}
	}
	return inFlight
}

// Terminate sends quit and releases the process. It is safe to call more
// than once and before Init.
func (s *EngineSession) Terminate() error {
	s.termOnce.Do(func() {
		s.mu.Lock()
		s.terminated = true
		proc := s.proc
		s.mu.Unlock()

		if proc == nil {
			s.markDead()
			return
		}

		s.wmu.Lock()
		_ = s.writeLocked("quit")
		s.wmu.Unlock()
		_ = proc.Stdin.Close()
		if proc.Stop != nil {
			s.termErr = proc.Stop()
		}
		s.markDead()
		s.log.Info("analysis engine terminated")
	})
	return s.termErr
}

func (s *EngineSession) Status() EngineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.dead:
		return EngineUnavailable
	case s.ready:
		return EngineReady
	default:
		return EngineIdle
	}
}

func (s *EngineSession) send(cmds ...string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.writeLocked(cmds...)
}

func (s *EngineSession) writeLocked(cmds ...string) error {
	if s.stdin == nil {
		return errors.New("engine not started")
	}
	for _, c := range cmds {
		s.log.Debugw("engine <", "cmd", c)
		if _, err := s.stdin.WriteString(c + "\n"); err != nil {
			return err
		}
	}
	return s.stdin.Flush()
}

func (s *EngineSession) readLoop(r io.Reader) {
	defer close(s.done)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		s.log.Debugw("engine >", "line", line)
		s.dispatch(line)
	}
	if err := sc.Err(); err != nil {
		s.log.Warnw("engine output closed", "error", err)
	}
	s.markDead()
}

func (s *EngineSession) dispatch(line string) {
	switch {
	case line == "uciok" || line == "readyok":
		select {
		case s.control <- line:
		default:
		}
	case strings.HasPrefix(line, "info"):
		ev, ok := parseInfo(line)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.pending) == 0 || s.pending[0].superseded {
			return
		}
		head := s.pending[0]
		res := ev.FromSideToMove(head.whiteToMove)
		res.Source = domain.SourceEngine
		head.last = res
		// the last slot is kept free for the final event
		if len(head.events) < cap(head.events)-1 {
			head.events <- domain.SearchEvent{SearchID: head.id, Result: res}
		}
	case strings.HasPrefix(line, "bestmove"):
		best, ok := parseBestMove(line)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.pending) == 0 {
			s.log.Debugw("unattributed bestmove", "line", line)
			return
		}
		head := s.pending[0]
		s.pending = s.pending[1:]
		if !head.superseded {
			head.events <- domain.SearchEvent{SearchID: head.id, Result: finalResult(head.last, best), Final: true}
		}
		close(head.events)
	}
}

func finalResult(last domain.Evaluation, best *domain.Move) domain.Evaluation {
	res := last
	res.Source = domain.SourceEngine
	res.BestMove = best
	if best == nil {
		res.PV = []domain.Move{}
		return res
	}
	if len(res.PV) == 0 || res.PV[0] != *best {
		res.PV = []domain.Move{*best}
	}
	return res
}

func (s *EngineSession) markDead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return
	}
	s.dead = true
	for _, p := range s.pending {
		close(p.events)
	}
	s.pending = nil
}
