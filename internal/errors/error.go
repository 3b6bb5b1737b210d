package errors

import "errors"

var (
	ErrIllegalMove           = errors.New("illegal move")
	ErrInvalidMove           = errors.New("malformed move")
	ErrInvalidPosition       = errors.New("invalid position")
	ErrInvalidSquare         = errors.New("invalid square")
	ErrEngineUnavailable     = errors.New("analysis engine unavailable")
	ErrEvaluationUnavailable = errors.New("evaluation unavailable")
	ErrGameNotFound          = errors.New("game not found")
	ErrOpeningNotFound       = errors.New("opening not found")
	ErrUnknownPersona        = errors.New("unknown persona")
	ErrMissingField          = errors.New("missing required field")
	ErrTextGenerationFailed  = errors.New("text generation failed")
	ErrInternal              = errors.New("internal error")
)

