package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/internal/services"
	"github.com/todoapp/apiserver/types"
)

// AuthHandler provides the registration, login and token endpoints.
type AuthHandler struct {
	authService *services.AuthService
	logger      logging.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth resolves the bearer token into the caller identity before
// any resource handler runs.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, r, h.logger, apperr.Unauthorized("Not authenticated"))
			return
		}

		userID, err := h.authService.Authenticate(r.Context(), tokenString)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/auth/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user.Public())
}

// Login verifies credentials and returns an access/refresh token pair. The
// body is a form with username (the email) and password; JSON with the
// same fields is accepted too.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := parseLogin(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pair, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req types.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, h.logger, apperr.Unauthorized("Not authenticated"))
		return
	}

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func parseLogin(w http.ResponseWriter, r *http.Request) (types.LoginRequest, error) {
	var req types.LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := decodeJSON(w, r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, apperr.Invalid(apperr.LocBody, "Invalid form body")
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
