package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails validation: bad
// signature, wrong algorithm, expired, malformed, or missing subject.
var ErrInvalidToken = errors.New("invalid token")

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// refreshMarker is the value of the "type" claim on refresh tokens. Access
// tokens carry no "type" claim at all.
const refreshMarker = "refresh"

// Clock returns the current time. Tests replace it to control expiry.
type Clock func() time.Time

// TokenConfig holds signing settings.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the JWT payload.
type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Kind reports whether the token was issued as a refresh or access token.
func (c Claims) Kind() TokenKind {
	if c.Type == refreshMarker {
		return TokenKindRefresh
	}
	return TokenKindAccess
}

// TokenService issues and validates HS256 tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        Clock
}

// NewTokenService builds a TokenService. A nil clock means time.Now.
func NewTokenService(cfg TokenConfig, clock Clock) *TokenService {
	if clock == nil {
		clock = time.Now
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        clock,
	}
}

// Issue signs a token for subject that expires ttl after the current clock time.
func (s *TokenService) Issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if kind == TokenKindRefresh {
		claims.Type = refreshMarker
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssueAccess signs an access token with the configured access TTL.
func (s *TokenService) IssueAccess(subject string) (string, error) {
	return s.Issue(subject, TokenKindAccess, s.accessTTL)
}

// IssueRefresh signs a refresh token with the configured refresh TTL.
func (s *TokenService) IssueRefresh(subject string) (string, error) {
	return s.Issue(subject, TokenKindRefresh, s.refreshTTL)
}

// AccessTTL is the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// Validate checks signature and expiry and returns the claims. The refresh
// marker is reported through Claims.Kind but not enforced here.
func (s *TokenService) Validate(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return s.secret, nil
		},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
