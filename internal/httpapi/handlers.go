package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meriley/lingua-nexus/internal/core"
)

// translateRequestBody mirrors core.TranslationRequest's JSON shape; kept
// distinct so field-presence (e.g. an explicit empty source_lang) can be
// distinguished from an absent field in the future without touching the
// domain type.
type translateRequestBody = core.TranslationRequest

func (s *Server) bindRequest(c *gin.Context) (core.TranslationRequest, bool) {
	var req translateRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": string(core.KindInvalidRequest), "message": err.Error(), "retryable": false},
		})
		return req, false
	}
	req.IdentityKey = identityFromContext(c)
	return req, true
}

func (s *Server) handleTranslate(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	res, err := s.ctrl.Translate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleLanguages(c *gin.Context) {
	backendID := c.Query("backend_id")
	backends := s.reg.List()

	if backendID != "" {
		known := false
		for _, b := range backends {
			if b.ID == backendID {
				known = true
				break
			}
		}
		if !known {
			writeError(c, core.NewError(core.KindInvalidRequest, "unknown backend: "+backendID))
			return
		}
	}

	seen := map[string]bool{}
	var langs []string
	for _, b := range backends {
		if backendID != "" && b.ID != backendID {
			continue
		}
		for _, l := range b.SupportedLanguages {
			if !seen[l] {
				seen[l] = true
				langs = append(langs, l)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"languages": langs})
}

func (s *Server) handleListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.reg.List()})
}

func (s *Server) handleLoadModel(c *gin.Context) {
	id := c.Param("id")
	_, release, err := s.reg.GetOrLoad(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	release()
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "ready"})
}

func (s *Server) handleUnloadModel(c *gin.Context) {
	id := c.Param("id")
	if err := s.reg.Unload(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "unloaded"})
}
