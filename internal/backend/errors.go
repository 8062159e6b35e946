package backend

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/meriley/lingua-nexus/internal/core"
)

// classifyServiceError maps a wrapped translator service's failure onto
// the core error taxonomy so the chunk translator's retry policy can
// distinguish transient failures from permanent ones. A *core.Error is
// passed through untouched; transport-level failures (timeouts, refused
// connections) become retryable BackendTimeout/BackendUnavailable;
// everything else is a non-retryable BackendInternalError.
func classifyServiceError(serviceName string, err error) error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.Wrap(core.KindBackendTimeout, serviceName+": translate timed out", err).AsRetryable()
	}
	if errors.Is(err, context.Canceled) {
		return core.Wrap(core.KindBackendUnavailable, serviceName+": translate cancelled", err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return core.Wrap(core.KindBackendTimeout, serviceName+": translate timed out", err).AsRetryable()
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return core.Wrap(core.KindBackendUnavailable, serviceName+": request failed", err).AsRetryable()
	}

	return core.Wrap(core.KindBackendInternalError, serviceName+": translate failed", err)
}
