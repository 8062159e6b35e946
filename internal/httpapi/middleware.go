package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meriley/lingua-nexus/internal/auth"
)

// identify resolves the caller's auth.Identity from the Authorization
// header and stores it on the gin context for downstream handlers and the
// rate limiter. A missing or disabled extractor falls back to the
// anonymous identity rather than rejecting the request: authentication is
// optional per spec.md §6 ("IdentityKey ... caller-supplied opaque
// token").
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := auth.AnonymousIdentity
		if s.extractor != nil {
			ident = s.extractor.Resolve(c.GetHeader("Authorization"))
		}
		c.Set(identityContextKey, ident)
		c.Next()
	}
}

// rateLimit enforces the per-identity token bucket. A nil limiter disables
// rate limiting entirely (e.g. local development).
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		if !s.limiter.Allow(identityFromContext(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"kind": "RateLimited", "message": "rate limit exceeded", "retryable": true},
			})
			return
		}
		c.Next()
	}
}
