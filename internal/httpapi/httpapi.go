// Package httpapi exposes the adaptive controller and model registry over
// the gin HTTP surface from spec.md §6. It owns request decoding, identity
// extraction, rate limiting, the Error-to-status-code mapping, and the
// server-sent-event encoding of the progressive emitter's event stream.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meriley/lingua-nexus/internal/auth"
	"github.com/meriley/lingua-nexus/internal/controller"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/registry"
	"github.com/meriley/lingua-nexus/internal/store"
)

// Server bundles the dependencies the HTTP handlers need.
type Server struct {
	ctrl      *controller.Controller
	reg       *registry.Registry
	extractor *auth.Extractor
	limiter   *auth.Limiter
	gstore    *store.Store // optional; nil disables /v1/glossary
	log       *zap.Logger
}

// New builds a Server. extractor and limiter may be nil to disable
// authentication/rate limiting respectively (e.g. for local development).
// gstore may be nil to disable the glossary management endpoints.
func New(ctrl *controller.Controller, reg *registry.Registry, extractor *auth.Extractor, limiter *auth.Limiter, gstore *store.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{ctrl: ctrl, reg: reg, extractor: extractor, limiter: limiter, gstore: gstore, log: log}
}

// Router builds the gin engine with every route from spec.md §6 wired to
// this Server's handlers.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/v1/health", s.handleHealth)

	v1 := r.Group("/v1")
	v1.Use(s.identify(), s.rateLimit())
	{
		v1.POST("/translate", s.handleTranslate)
		v1.POST("/translate/stream", s.handleTranslateStream)
		v1.GET("/languages", s.handleLanguages)
		v1.POST("/detect", s.handleDetect)
		v1.GET("/models", s.handleListModels)
		v1.POST("/models/:id/load", s.handleLoadModel)
		v1.POST("/models/:id/unload", s.handleUnloadModel)

		if s.gstore != nil {
			v1.GET("/glossary", s.handleListGlossary)
			v1.POST("/glossary", s.handleAddGlossary)
			v1.DELETE("/glossary/:id", s.handleDeleteGlossary)
		}
	}

	return r
}

// requestLogger logs one structured line per request, in the style of the
// teacher's zap usage elsewhere in the codebase rather than gin's default
// Logger() text format.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	loaded := 0
	for _, b := range s.reg.List() {
		if b.Status == core.StatusReady {
			loaded++
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backends_loaded": loaded})
}

const identityContextKey = "identity"

func identityFromContext(c *gin.Context) string {
	if v, ok := c.Get(identityContextKey); ok {
		if ident, ok := v.(auth.Identity); ok {
			return ident.Key
		}
	}
	return auth.AnonymousIdentity.Key
}
