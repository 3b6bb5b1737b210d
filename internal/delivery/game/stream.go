package game

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"askgm/internal/domain"
	"askgm/internal/usecase/analysis"
	gameuc "askgm/internal/usecase/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Command is a navigation request sent by a display client.
type Command struct {
	Type  string `json:"type"`
	Move  string `json:"move,omitempty"`
	Index int    `json:"index,omitempty"`
}

type streamMessage struct {
	Type     string            `json:"type"`
	State    *domain.GameState `json:"state,omitempty"`
	Analysis *analysis.Update  `json:"analysis,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// HandleStream pushes position and analysis events of one game and accepts
// move and navigation commands. Only the writer goroutine writes to conn.
func (g *GameHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	ctx := r.Context()

	// Subscribe before reading the snapshot so no change in between is lost.
	events, unsubscribe, err := g.gameUC.Subscribe(ctx, gameID)
	if err != nil {
		g.writeError(w, err)
		return
	}
	defer unsubscribe()

	state, err := g.gameUC.State(ctx, gameID)
	if err != nil {
		g.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnw("websocket upgrade failed", "game", gameID, "error", err)
		return
	}
	defer conn.Close()

	// The snapshot is written before the loop starts so queued events, which
	// are never older than it, always follow it.
	initial := []streamMessage{{Type: gameuc.EventPosition, State: &state}}
	if update, ok, _ := g.gameUC.Analysis(ctx, gameID); ok {
		initial = append(initial, streamMessage{Type: gameuc.EventAnalysis, Analysis: &update})
	}
	for _, msg := range initial {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			g.log.Debugw("websocket write failed", "game", gameID, "error", err)
			return
		}
	}

	replies := make(chan streamMessage, 8)
	readerDone := make(chan struct{})
	go g.readCommands(ctx, conn, gameID, replies, readerDone)

	g.log.Infow("display client connected", "game", gameID)
	g.writeLoop(conn, events, replies, readerDone)
	g.log.Infow("display client disconnected", "game", gameID)
}

func (g *GameHandler) writeLoop(conn *websocket.Conn, events <-chan gameuc.Event, replies <-chan streamMessage, readerDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(msg streamMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			g.log.Debugw("websocket write failed", "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-readerDone:
			return
		case msg := <-replies:
			if !write(msg) {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !write(streamMessage{Type: ev.Type, State: ev.State, Analysis: ev.Analysis}) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readCommands applies client commands. Position changes reach the client
// through the event stream; only failures are answered directly.
func (g *GameHandler) readCommands(ctx context.Context, conn *websocket.Conn, gameID string, replies chan<- streamMessage, done chan<- struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warnw("websocket read failed", "game", gameID, "error", err)
			}
			return
		}

		var err error
		switch cmd.Type {
		case "move":
			_, err = g.gameUC.Move(ctx, gameID, cmd.Move)
		case "back":
			_, err = g.gameUC.Back(ctx, gameID)
		case "forward":
			_, err = g.gameUC.Forward(ctx, gameID)
		case "jump":
			_, err = g.gameUC.Jump(ctx, gameID, cmd.Index)
		default:
			g.log.Debugw("unknown websocket command", "game", gameID, "type", cmd.Type)
			reply(replies, streamMessage{Type: "error", Error: "unknown command " + cmd.Type})
			continue
		}
		if err != nil {
			reply(replies, streamMessage{Type: "error", Error: err.Error()})
		}
	}
}

func reply(replies chan<- streamMessage, msg streamMessage) {
	select {
	case replies <- msg:
	default:
	}
}
