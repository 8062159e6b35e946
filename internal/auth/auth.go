// Package auth extracts the caller-supplied identity the spec's HTTP
// boundary "MUST accept ... opaquely to key the cache and rate
// accounting" (spec.md §6) and enforces a per-identity rate limit. It is
// deliberately outside internal/controller: multi-tenant auth and billing
// are explicit core non-goals (spec.md §1); this package is the core's
// collaborator at the transport boundary, consistent with
// SPEC_FULL.md §6.
package auth

import (
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// Identity is the caller-supplied token, resolved into a stable key used
// for cache and rate accounting. It never gates translation semantics.
type Identity struct {
	// Key is the opaque identity used for cache/rate keying: the JWT
	// subject when the bearer token verifies, otherwise the raw token
	// text itself (spec: "opaquely").
	Key string
	// Verified is true when Key came from a JWT signature check rather
	// than being treated as an opaque string.
	Verified bool
}

// AnonymousIdentity is used when the request carries no bearer token.
var AnonymousIdentity = Identity{Key: "anonymous"}

// Extractor resolves the bearer token from an Authorization header into
// an Identity, verifying it as a JWT when a secret is configured.
type Extractor struct {
	secret []byte
}

// NewExtractor builds an Extractor. An empty secret disables JWT
// verification: every non-empty bearer token is accepted as an opaque
// identity key, per spec's "accept a caller-supplied identity token
// opaquely."
func NewExtractor(secret string) *Extractor {
	return &Extractor{secret: []byte(secret)}
}

// Resolve extracts the identity from an HTTP Authorization header value
// ("Bearer <token>"). An empty or malformed header resolves to
// AnonymousIdentity rather than failing the request — authentication is
// not a core concern, so an unauthenticated caller still gets service,
// just keyed anonymously.
func (e *Extractor) Resolve(authorization string) Identity {
	token := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer"))
	if token == "" {
		return AnonymousIdentity
	}

	if len(e.secret) > 0 {
		if sub, ok := e.verifyJWT(token); ok {
			return Identity{Key: sub, Verified: true}
		}
	}

	return Identity{Key: token}
}

func (e *Extractor) verifyJWT(tokenStr string) (string, bool) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return e.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !parsed.Valid {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// Limiter enforces a per-identity request rate using
// golang.org/x/time/rate, constructing one rate.Limiter per identity on
// first use and reusing it thereafter.
type Limiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLimiter builds a Limiter allowing rps requests/second per identity
// with the given burst. rps <= 0 disables limiting (Allow always true).
func NewLimiter(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{rps: rate.Limit(rps), burst: burst, limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether identity key may proceed now, consuming one
// token from its bucket if so.
func (l *Limiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	return l.limiterFor(key).Allow()
}

func (l *Limiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim
	}
	return lim
}
