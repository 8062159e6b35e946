package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meriley/lingua-nexus/internal/core"
)

// statusFor maps a core.Error Kind to the HTTP status code spec.md §7
// assigns it. Errors that are not a *core.Error (a programming error
// reaching the handler) map to 500.
func statusFor(err error) int {
	var ce *core.Error
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError
	}
	switch ce.Kind {
	case core.KindInvalidRequest, core.KindUnsupportedLanguage, core.KindLanguagePairUnsupported:
		return http.StatusBadRequest
	case core.KindBackendUnavailable:
		return http.StatusServiceUnavailable
	case core.KindBackendTimeout, core.KindDeadlineExceeded:
		return http.StatusGatewayTimeout
	case core.KindOptimizerBudgetExceeded:
		return http.StatusRequestTimeout
	case core.KindBackendInternalError, core.KindChunkTranslationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as the {kind, message, retryable, hint?} body
// from spec.md §7, at the status statusFor(err) selects.
func writeError(c *gin.Context, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"kind": "InternalError", "message": err.Error(), "retryable": false},
		})
		return
	}
	body := gin.H{"kind": string(ce.Kind), "message": ce.Message, "retryable": ce.Retryable}
	if ce.Hint != "" {
		body["hint"] = ce.Hint
	}
	c.JSON(statusFor(err), gin.H{"error": body})
}
