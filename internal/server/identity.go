package server

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/internal/config"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
)

var (
	ErrMissingJWTSecret = errors.New("auth_jwt_secret_required")
	ErrInvalidToken     = errors.New("invalid_token")
)

// actorClaims is the bearer token payload. IDs travel as strings so
// snowflakes survive JSON number precision.
type actorClaims struct {
	Role     string `json:"role"`
	DealerID string `json:"dealer_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier turns HS256 bearer tokens into claim actors.
type TokenVerifier struct {
	secret []byte
	clock  clock.Clock
}

func NewTokenVerifier(cfg config.Config, clk clock.Clock) (*TokenVerifier, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingJWTSecret
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &TokenVerifier{secret: []byte(secret), clock: clk}, nil
}

func (v *TokenVerifier) Verify(raw string) (warrantydomain.Actor, error) {
	claims := &actorClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil || !token.Valid {
		return warrantydomain.Actor{}, ErrInvalidToken
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(claims.Subject))
	if err != nil || userID <= 0 {
		return warrantydomain.Actor{}, ErrInvalidToken
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if role == "" {
		return warrantydomain.Actor{}, ErrInvalidToken
	}

	actor := warrantydomain.Actor{UserID: userID, Role: role}
	if value := strings.TrimSpace(claims.DealerID); value != "" {
		dealerID, err := snowflake.ParseString(value)
		if err != nil || dealerID <= 0 {
			return warrantydomain.Actor{}, ErrInvalidToken
		}
		actor.DealerID = &dealerID
	}
	return actor, nil
}

// Issue signs a token for actor valid for ttl.
func (v *TokenVerifier) Issue(actor warrantydomain.Actor, ttl time.Duration) (string, error) {
	now := v.clock.Now()
	claims := actorClaims{
		Role: actor.NormalizedRole(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if actor.DealerID != nil {
		claims.DealerID = actor.DealerID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
