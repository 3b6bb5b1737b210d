package system

import (
	"net/http"

	"askgm/internal/httpresponse"
)

type EngineMode interface {
	Mode() string
}

type HealthResponse struct {
	Status    string `json:"status"`
	HasApiKey bool   `json:"hasApiKey"`
	Engine    string `json:"engine"`
}

type SystemHandler struct {
	hasApiKey bool
	engine    EngineMode
}

func NewSystemHandler(hasApiKey bool, engine EngineMode) *SystemHandler {
	return &SystemHandler{hasApiKey: hasApiKey, engine: engine}
}

func (s *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		HasApiKey: s.hasApiKey,
		Engine:    s.engine.Mode(),
	})
}
