package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/glossary"
)

type glossaryEntryBody struct {
	SourceLang string `json:"source_lang" binding:"required"`
	TargetLang string `json:"target_lang" binding:"required"`
	SourceTerm string `json:"source_term" binding:"required"`
	TargetTerm string `json:"target_term" binding:"required"`
}

func (s *Server) handleListGlossary(c *gin.Context) {
	entries, err := glossary.List(c.Request.Context(), s.gstore, c.Query("source_lang"), c.Query("target_lang"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleAddGlossary(c *gin.Context) {
	var body glossaryEntryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": string(core.KindInvalidRequest), "message": err.Error(), "retryable": false},
		})
		return
	}
	if err := glossary.Add(c.Request.Context(), s.gstore, body.SourceLang, body.TargetLang, body.SourceTerm, body.TargetTerm); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

func (s *Server) handleDeleteGlossary(c *gin.Context) {
	if err := glossary.Delete(c.Request.Context(), s.gstore, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
