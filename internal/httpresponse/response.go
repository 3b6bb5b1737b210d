package httpresponse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	errs "askgm/internal/errors"
)

type Response[T any] struct {
	Status int `json:"status"`
	Body   T   `json:"body,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const INTERNALERRORJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

const MALFORMEDJSON_errorDesc = "json unmarshalling error"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := marshalStatusJson(status, body)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

func WriteErrorWithStatus(w http.ResponseWriter, status int, description string) {
	WriteResponseWithStatus(w, status, ErrorResponse{Error: description})
}

// WriteError maps domain errors onto HTTP statuses. Anything unknown is a
// 500 whose details stay in the log.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		WriteInternalErrorResponse(w)
		return
	}
	WriteErrorWithStatus(w, status, err.Error())
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrGameNotFound), errors.Is(err, errs.ErrOpeningNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrInvalidMove),
		errors.Is(err, errs.ErrInvalidPosition),
		errors.Is(err, errs.ErrInvalidSquare),
		errors.Is(err, errs.ErrUnknownPersona),
		errors.Is(err, errs.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrTextGenerationFailed), errors.Is(err, errs.ErrEvaluationUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func marshalStatusJson(status int, body any) ([]byte, error) {
	response := Response[any]{
		Status: status,
		Body:   body,
	}
	marshal, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return marshal, nil
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	// implementation similar to http.Error, only difference is the Content-type
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}
