package chat

import (
	"net/http"

	"go.uber.org/zap"

	"askgm/internal/httpresponse"
	chatuc "askgm/internal/usecase/chat"
	"askgm/internal/utils"
)

type ChatHandler struct {
	log    *zap.SugaredLogger
	chatUC *chatuc.ChatUseCase
}

func NewChatHandler(log *zap.SugaredLogger, chatUC *chatuc.ChatUseCase) *ChatHandler {
	return &ChatHandler{log: log, chatUC: chatUC}
}

func (c *ChatHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req chatuc.AskRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		c.log.Debugw("bad chat request", "error", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc)
		return
	}

	resp, err := c.chatUC.Ask(r.Context(), req)
	if err != nil {
		status := httpresponse.StatusFor(err)
		if status == http.StatusBadGateway {
			httpresponse.WriteErrorWithStatus(w, status, "The grandmaster is unavailable right now, please try again.")
			return
		}
		if status == http.StatusInternalServerError {
			c.log.Errorw("chat request failed", "error", err)
		}
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}
