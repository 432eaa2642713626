package server

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	authdomain "github.com/chantierflow/chantierflow/internal/auth/domain"
	"github.com/chantierflow/chantierflow/internal/observability/obscontext"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
)

const contextUserKey = "auth_user"

// AuthRequired resolves the session cookie into the acting user and
// attaches the tenant scope to the request context. Every /api route
// runs behind it.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		result, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, err)
			return
		}

		actor := result.User.Actor()
		ctx := tenantctx.WithActor(c.Request.Context(), actor)
		ctx = obscontext.WithActor(ctx, actor.UserID.String())
		if actor.CompanyID != 0 {
			ctx = obscontext.WithCompanyID(ctx, actor.CompanyID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserKey, result.User)

		c.Next()
	}
}

func currentUser(c *gin.Context) (*authdomain.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*authdomain.User)
	return user, ok
}

// authorize gates a route on an RBAC object/action pair within the
// actor's own tenant. Object-level tenant checks stay in the services.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := tenantctx.ActorFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, actor.CompanyID, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// rateLimiter is a fixed-window in-memory counter keyed by client IP.
// Good enough for single-node login throttling.
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	attempts map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string]*rateWindow),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.attempts[key]
	if !ok || now.After(w.resetAt) {
		r.attempts[key] = &rateWindow{count: 1, resetAt: now.Add(r.window)}
		return true
	}
	if w.count >= r.limit {
		return false
	}
	w.count++
	return true
}

func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Allow(c.ClientIP()) {
			AbortWithError(c, ErrTooManyLogins)
			return
		}
		c.Next()
	}
}
