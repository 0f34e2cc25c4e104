package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/auth"
	"github.com/todoapp/apiserver/internal/store"
	"github.com/todoapp/apiserver/internal/validation"
	"github.com/todoapp/apiserver/types"
)

const (
	msgEmailTaken         = "Email already registered"
	msgUsernameTaken      = "Username already taken"
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidAuth        = "Invalid authentication"
	msgInvalidRefresh     = "Invalid refresh token"

	tokenTypeBearer = "bearer"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// AuthOptions tunes the token policy of an AuthService.
type AuthOptions struct {
	// RejectRefreshAsAccess makes Authenticate refuse refresh tokens.
	RejectRefreshAsAccess bool
}

// AuthService encapsulates registration, login and bearer-token checks.
type AuthService struct {
	users     UserRepository
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	validator *validation.Validator
	opts      AuthOptions
}

func NewAuthService(
	users UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	validator *validation.Validator,
	opts AuthOptions,
) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		opts:      opts,
	}
}

// Register creates an account. Duplicate emails and usernames are
// reported as conflicts, both from the pre-check and from the insert.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (types.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(apperr.LocBody, req); err != nil {
		return types.User{}, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return types.User{}, apperr.Conflict(msgEmailTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check email: %w", err)
	}

	if req.Username != nil {
		if _, err := s.users.GetByUsername(ctx, *req.Username); err == nil {
			return types.User{}, apperr.Conflict(msgUsernameTaken)
		} else if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, fmt.Errorf("check username: %w", err)
		}
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashed,
	})
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			if conflict.Column == "username" {
				return types.User{}, apperr.Conflict(msgUsernameTaken)
			}
			return types.User{}, apperr.Conflict(msgEmailTaken)
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and issues a token pair. An unknown email
// and a wrong password fail identically, including the bcrypt work done.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (types.TokenPair, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(apperr.LocBody, req); err != nil {
		return types.TokenPair{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyAbsent(req.Password)
			return types.TokenPair{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return types.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return types.TokenPair{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	return s.issuePair(user.ID)
}

// Authenticate resolves a bearer token to the user id it was issued for.
// It does not touch storage.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return "", &apperr.Error{Status: http.StatusUnauthorized, Message: msgInvalidAuth, Err: err}
	}
	if s.opts.RejectRefreshAsAccess && claims.Kind() == auth.TokenKindRefresh {
		return "", apperr.Unauthorized(msgInvalidAuth)
	}
	return claims.Subject, nil
}

// Refresh trades a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, req types.RefreshRequest) (types.TokenPair, error) {
	if err := s.validator.Struct(apperr.LocBody, req); err != nil {
		return types.TokenPair{}, err
	}

	claims, err := s.tokens.Validate(req.RefreshToken)
	if err != nil || claims.Kind() != auth.TokenKindRefresh {
		return types.TokenPair{}, apperr.Unauthorized(msgInvalidRefresh)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.TokenPair{}, apperr.Unauthorized(msgInvalidRefresh)
		}
		return types.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	return s.issuePair(user.ID)
}

// Me returns the public view of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (types.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicUser{}, apperr.Unauthorized(msgInvalidAuth)
		}
		return types.PublicUser{}, fmt.Errorf("load user: %w", err)
	}
	return user.Public(), nil
}

func (s *AuthService) issuePair(userID string) (types.TokenPair, error) {
	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return types.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return types.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return types.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
	}, nil
}
