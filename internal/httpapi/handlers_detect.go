package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/scriptdetect"
)

type detectRequest struct {
	Text      string  `json:"text"`
	Threshold float64 `json:"threshold,omitempty"`
}

// handleDetect exposes the Script Detector (C2) directly, independent of
// any backend, for callers that only need a cheap source-language guess
// before deciding whether to call /v1/translate at all.
func (s *Server) handleDetect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": string(core.KindInvalidRequest), "message": err.Error(), "retryable": false},
		})
		return
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}

	lang := scriptdetect.Detect(req.Text, threshold)
	c.JSON(http.StatusOK, gin.H{"detected_lang": lang})
}
