package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/warrantyhub/internal/observability/context"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"github.com/smallbiznis/warrantyhub/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

const contextActorKey = "actor"

// AuthRequired resolves the bearer token into the request actor.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor, err := s.verifier.Verify(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextActorKey, actor)
		ctx := obscontext.WithActor(c.Request.Context(), actor.NormalizedRole(), actor.UserID.String())
		if actor.DealerID != nil {
			ctx = obscontext.WithDealerID(ctx, actor.DealerID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RateLimitClaimWrites throttles mutating claim requests per dealer.
// Limiter failures let the request through.
func (s *Server) RateLimitClaimWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		actor, ok := actorFromContext(c)
		if !ok {
			c.Next()
			return
		}

		result, err := s.limiter.Allow(c.Request.Context(), rateLimitSubject(actor))
		if err != nil {
			s.log.Warn("claim write rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func rateLimitSubject(actor warrantydomain.Actor) string {
	if actor.DealerID != nil {
		return "dealer:" + actor.DealerID.String()
	}
	return "user:" + actor.UserID.String()
}

// CorrelationID propagates the caller's correlation id, defaulting to the request id.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader(correlation.Header))
		if cid == "" {
			cid = obscontext.RequestIDFromContext(c.Request.Context())
		}
		ctx, cid := correlation.EnsureCorrelationID(correlation.ContextWithCorrelationID(c.Request.Context(), cid))
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.Header, cid)
		c.Next()
	}
}

func actorFromContext(c *gin.Context) (warrantydomain.Actor, bool) {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return warrantydomain.Actor{}, false
	}
	actor, ok := value.(warrantydomain.Actor)
	return actor, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
