package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/logging"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextSubjectKey contextKey = "sub"

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextSubjectKey, userID)
}

func userIDFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError renders err as the error envelope. Internal failures are
// logged with the request id; their details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	status, envelope := apperr.Translate(err, r.URL.Path, time.Now())
	if apperr.IsInternal(err) && logger != nil {
		logger.Error(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, envelope)
}

// decodeJSON reads a JSON body into dst. Malformed input is reported as a
// validation failure at the body location.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return apperr.Invalid(apperr.LocBody, "Field required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Invalid(apperr.LocBody, "JSON decode error")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return apperr.Invalid(apperr.LocBody, "Input should be a valid dictionary or object")
		}
		return apperr.Invalid(apperr.LocBody, typeMessage(typeErr.Type.Kind().String()), strings.Split(typeErr.Field, ".")...)
	case errors.As(err, &sizeErr):
		return apperr.Invalid(apperr.LocBody, fmt.Sprintf("Body should be at most %d bytes", sizeErr.Limit))
	default:
		return apperr.Invalid(apperr.LocBody, "Invalid request body")
	}
}

func typeMessage(kind string) string {
	switch kind {
	case "string":
		return "Input should be a valid string"
	case "int", "int64", "int32":
		return "Input should be a valid integer"
	case "bool":
		return "Input should be a valid boolean"
	case "struct":
		return "Input should be a valid datetime"
	default:
		return "Input has an invalid type"
	}
}
