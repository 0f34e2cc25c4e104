package apperr

import (
	"errors"
	"net/http"
	"time"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeHTTP       = "HTTP_ERROR"
	CodeInternal   = "INTERNAL_SERVER_ERROR"

	validationMessage = "Invalid request data"
	internalMessage   = "An unexpected error occurred."
)

// Detail is the "error" member of the envelope.
type Detail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details"`
}

// Envelope is the body of every failed response.
type Envelope struct {
	Error     Detail    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// Translate maps err to a status and envelope. now is the capture time.
// Unrecognized errors become a generic 500; their text is never included.
func Translate(err error, path string, now time.Time) (int, Envelope) {
	env := Envelope{
		Timestamp: now.UTC(),
		Path:      path,
	}

	var verr *ValidationError
	var herr *Error
	switch {
	case errors.As(err, &verr):
		env.Error = Detail{
			Code:    CodeValidation,
			Message: validationMessage,
			Details: verr.Details(),
		}
		return http.StatusUnprocessableEntity, env
	case errors.As(err, &herr):
		env.Error = Detail{
			Code:    CodeHTTP,
			Message: herr.Message,
		}
		return herr.Status, env
	default:
		env.Error = Detail{
			Code:    CodeInternal,
			Message: internalMessage,
		}
		return http.StatusInternalServerError, env
	}
}

// IsInternal reports whether Translate would treat err as unhandled.
func IsInternal(err error) bool {
	var verr *ValidationError
	var herr *Error
	return !errors.As(err, &verr) && !errors.As(err, &herr)
}
