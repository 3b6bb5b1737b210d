package game

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"askgm/internal/domain/opening"
	errs "askgm/internal/errors"
	"askgm/internal/httpresponse"
	"askgm/internal/usecase/analysis"
	gameuc "askgm/internal/usecase/game"
	"askgm/internal/utils"
)

type GameHandler struct {
	log    *zap.SugaredLogger
	gameUC *gameuc.GameUseCase
}

type NewGameRequest struct {
	FEN string `json:"fen"`
}

type MoveRequest struct {
	Move string `json:"move"`
}

type JumpRequest struct {
	Index *int `json:"index"`
}

type AnalysisResponse struct {
	Available bool             `json:"available"`
	Update    *analysis.Update `json:"update,omitempty"`
}

func NewGameHandler(log *zap.SugaredLogger, gameUC *gameuc.GameUseCase) *GameHandler {
	return &GameHandler{log: log, gameUC: gameUC}
}

// Routes mounts the game endpoints under /games and /openings.
func (g *GameHandler) Routes(r chi.Router) {
	r.Post("/games", g.HandleNewGame)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", g.HandleGetGame)
		r.Post("/moves", g.HandleMove)
		r.Post("/back", g.HandleBack)
		r.Post("/forward", g.HandleForward)
		r.Post("/jump", g.HandleJump)
		r.Get("/destinations", g.HandleDestinations)
		r.Get("/analysis", g.HandleAnalysis)
		r.Post("/openings/{key}", g.HandleStartOpening)
		r.Get("/ws", g.HandleStream)
	})
	r.Get("/openings", g.HandleListOpenings)
	r.Post("/openings/{key}", g.HandleStartOpening)
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil && !errors.Is(err, utils.ErrEmptyBody) {
		g.log.Debugw("bad new game request", "error", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc)
		return
	}

	state, err := g.gameUC.NewGame(r.Context(), "", req.FEN)
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.log.Infow("new game created", "game", state.GameID)
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, state)
}

func (g *GameHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc)
		return
	}
	if req.Move == "" {
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, errs.ErrMissingField.Error()+": move")
		return
	}

	state, err := g.gameUC.Move(r.Context(), chi.URLParam(r, "id"), req.Move)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleForward(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.Forward(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleJump(w http.ResponseWriter, r *http.Request) {
	var req JumpRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc)
		return
	}
	if req.Index == nil {
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, errs.ErrMissingField.Error()+": index")
		return
	}

	state, err := g.gameUC.Jump(r.Context(), chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleDestinations(w http.ResponseWriter, r *http.Request) {
	square := r.URL.Query().Get("square")
	dests, err := g.gameUC.Destinations(r.Context(), chi.URLParam(r, "id"), square)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]any{
		"square":       square,
		"destinations": dests,
	})
}

func (g *GameHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	update, ok, err := g.gameUC.Analysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	resp := AnalysisResponse{Available: ok}
	if ok {
		resp.Update = &update
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleListOpenings(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusOK, opening.ByCategory(category))
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, opening.All())
}

func (g *GameHandler) HandleStartOpening(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.StartOpening(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "key"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.log.Infow("opening lesson started", "game", state.GameID, "opening", state.Opening)
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, state)
}

func (g *GameHandler) writeError(w http.ResponseWriter, err error) {
	if httpresponse.StatusFor(err) == http.StatusInternalServerError {
		g.log.Errorw("game request failed", "error", err)
	}
	httpresponse.WriteError(w, err)
}
