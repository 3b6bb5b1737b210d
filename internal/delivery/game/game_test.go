package game

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"askgm/internal/domain"
	"askgm/internal/httpresponse"
	"askgm/internal/repository"
	"askgm/internal/usecase/analysis"
	gameuc "askgm/internal/usecase/game"
)

type nopAnalyzer struct{}

func (nopAnalyzer) Analyze(domain.Position) {}

func (nopAnalyzer) Subscribe(analysis.Observer) func() {
	return func() {}
}

func (nopAnalyzer) LatestFor(domain.Position) (analysis.Update, bool) {
	return analysis.Update{}, false
}

func newRouter() http.Handler {
	log := zap.NewNop().Sugar()
	uc := gameuc.NewGameUseCase(repository.NewChessOracle(), repository.NewMemoryGameRepository(), nopAnalyzer{}, log)
	r := chi.NewRouter()
	r.Route("/api", NewGameHandler(log, uc).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, httpresponse.Response[json.RawMessage]) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var resp httpresponse.Response[json.RawMessage]
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: bad body %q", method, path, rec.Body.String())
	}
	return rec.Code, resp
}

func newGame(t *testing.T, h http.Handler) domain.GameState {
	t.Helper()
	code, resp := do(t, h, http.MethodPost, "/api/games", "")
	if code != http.StatusCreated {
		t.Fatalf("create game: %d %s", code, resp.Body)
	}
	var state domain.GameState
	if err := json.Unmarshal(resp.Body, &state); err != nil {
		t.Fatal(err)
	}
	return state
}

func TestGameLifecycle(t *testing.T) {
	h := newRouter()
	game := newGame(t, h)
	base := "/api/games/" + game.GameID

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantCode   int
		wantCursor int
	}{
		{"move", http.MethodPost, base + "/moves", `{"move":"e2e4"}`, http.StatusOK, 1},
		{"reply", http.MethodPost, base + "/moves", `{"move":"e7e5"}`, http.StatusOK, 2},
		{"illegal", http.MethodPost, base + "/moves", `{"move":"e1e3"}`, http.StatusUnprocessableEntity, -1},
		{"malformed move", http.MethodPost, base + "/moves", `{"move":"e9"}`, http.StatusBadRequest, -1},
		{"missing move", http.MethodPost, base + "/moves", `{}`, http.StatusBadRequest, -1},
		{"back", http.MethodPost, base + "/back", "", http.StatusOK, 1},
		{"forward", http.MethodPost, base + "/forward", "", http.StatusOK, 2},
		{"jump", http.MethodPost, base + "/jump", `{"index":0}`, http.StatusOK, 0},
		{"jump clamps", http.MethodPost, base + "/jump", `{"index":99}`, http.StatusOK, 2},
		{"jump without index", http.MethodPost, base + "/jump", `{}`, http.StatusBadRequest, -1},
		{"state", http.MethodGet, base + "/", "", http.StatusOK, 2},
		{"unknown game", http.MethodGet, "/api/games/nope/", "", http.StatusNotFound, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := do(t, h, tt.method, tt.path, tt.body)
			if code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", code, tt.wantCode, resp.Body)
			}
			if tt.wantCursor < 0 {
				return
			}
			var state domain.GameState
			if err := json.Unmarshal(resp.Body, &state); err != nil {
				t.Fatal(err)
			}
			if state.Cursor != tt.wantCursor {
				t.Errorf("cursor = %d, want %d", state.Cursor, tt.wantCursor)
			}
		})
	}
}

func TestDestinationsEndpoint(t *testing.T) {
	h := newRouter()
	game := newGame(t, h)

	code, resp := do(t, h, http.MethodGet, "/api/games/"+game.GameID+"/destinations?square=e2", "")
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	var body struct {
		Destinations []string `json:"destinations"`
	}
	json.Unmarshal(resp.Body, &body)
	if len(body.Destinations) != 2 || body.Destinations[0] != "e3" || body.Destinations[1] != "e4" {
		t.Errorf("destinations = %v", body.Destinations)
	}

	code, _ = do(t, h, http.MethodGet, "/api/games/"+game.GameID+"/destinations?square=z9", "")
	if code != http.StatusBadRequest {
		t.Errorf("bad square code = %d", code)
	}
}

func TestOpeningsEndpoints(t *testing.T) {
	h := newRouter()

	code, resp := do(t, h, http.MethodGet, "/api/openings?category=d4+Openings", "")
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	var list []struct {
		Category string `json:"category"`
	}
	json.Unmarshal(resp.Body, &list)
	if len(list) == 0 {
		t.Fatal("no d4 openings listed")
	}
	for _, op := range list {
		if op.Category != "d4 Openings" {
			t.Errorf("category filter leaked %q", op.Category)
		}
	}

	code, resp = do(t, h, http.MethodPost, "/api/openings/ruy-lopez-spanish", "")
	if code != http.StatusCreated {
		t.Fatalf("start opening code = %d", code)
	}
	var state domain.GameState
	json.Unmarshal(resp.Body, &state)
	if state.Cursor != 0 || len(state.Moves) != 5 {
		t.Errorf("lesson state = %+v", state)
	}

	code, _ = do(t, h, http.MethodPost, "/api/games/"+state.GameID+"/openings/unknown", "")
	if code != http.StatusNotFound {
		t.Errorf("unknown opening code = %d", code)
	}
}

func TestAnalysisEndpointWithoutResult(t *testing.T) {
	h := newRouter()
	game := newGame(t, h)

	code, resp := do(t, h, http.MethodGet, "/api/games/"+game.GameID+"/analysis", "")
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	var body AnalysisResponse
	json.Unmarshal(resp.Body, &body)
	if body.Available || body.Update != nil {
		t.Errorf("analysis = %+v", body)
	}
}

func TestStreamPushesPositionsAndAcceptsCommands(t *testing.T) {
	h := newRouter()
	game := newGame(t, h)

	srv := httptest.NewServer(h)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + game.GameID + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	msg := readMessage(t, conn)
	if msg.Type != gameuc.EventPosition || msg.State.Cursor != 0 {
		t.Errorf("initial message = %+v", msg)
	}

	conn.WriteJSON(Command{Type: "move", Move: "g1f3"})
	msg = readMessage(t, conn)
	if msg.Type != gameuc.EventPosition || msg.State.Cursor != 1 || msg.State.Moves[0] != "g1f3" {
		t.Errorf("after move = %+v", msg)
	}

	conn.WriteJSON(Command{Type: "move", Move: "g1f3"})
	msg = readMessage(t, conn)
	if msg.Type != "error" || !strings.Contains(msg.Error, "illegal move") {
		t.Errorf("illegal move reply = %+v", msg)
	}

	conn.WriteJSON(Command{Type: "back"})
	msg = readMessage(t, conn)
	if msg.State == nil || msg.State.Cursor != 0 || !msg.State.CanForward {
		t.Errorf("after back = %+v", msg)
	}
}

func TestStreamEndsOnLatestStateWhenMovesRaceTheConnect(t *testing.T) {
	h := newRouter()
	game := newGame(t, h)
	base := "/api/games/" + game.GameID

	srv := httptest.NewServer(h)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + base + "/ws"

	moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, mv := range moves {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/moves", strings.NewReader(`{"move":"`+mv+`"}`)))
		}
	}()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	<-done

	last := -1
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.State != nil {
			last = msg.State.Cursor
		}
	}
	if last != len(moves) {
		t.Errorf("last streamed cursor = %d, want %d", last, len(moves))
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) streamMessage {
	t.Helper()
	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}
