// Package chunktranslator implements the Parallel Chunk Translator
// (C7): bounded-concurrency fan-out of an ordered chunk list to a
// single backend, with order-preserving fan-in, jittered retry of
// transient per-chunk failures, and inline degradation markers for
// permanent ones.
package chunktranslator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/core"
)

// RetryPolicy controls per-chunk retry of transient backend errors.
type RetryPolicy struct {
	BaseDelay   time.Duration
	Factor      float64
	JitterFrac  float64
	MaxAttempts int
}

// DefaultRetryPolicy matches spec §4.7: base 250ms, factor 2, jitter
// ±25%, max 3 attempts.
var DefaultRetryPolicy = RetryPolicy{BaseDelay: 250 * time.Millisecond, Factor: 2, JitterFrac: 0.25, MaxAttempts: 3}

// Config controls fan-out concurrency and retry behavior.
type Config struct {
	MaxConcurrency int
	Retry          RetryPolicy

	// GlossaryTerms and Instructions are forwarded to every chunk's
	// TranslateInput, letting generative backends apply glossary-guided
	// and placeholder-preservation prompting across a chunked
	// translation (SPEC_FULL.md §9), not just the single-call direct
	// path. Both are optional; zero values reproduce the prior
	// behavior exactly.
	GlossaryTerms map[string]string
	Instructions  string
}

// DefaultConfig matches spec §5/§6 defaults (max_inflight=5).
func DefaultConfig() Config {
	return Config{MaxConcurrency: 5, Retry: DefaultRetryPolicy}
}

// Result is the fan-in output of translating an ordered chunk list.
type Result struct {
	Translations []string // index-aligned with the input chunks
	FailedCount  int
}

// Translate fans chunks out to b under a concurrency-limiting
// semaphore and collects results ordered by Chunk.Index (never by
// completion time). Transient errors are retried per Config.Retry;
// exhausted transient or any permanent per-chunk error is recorded as
// an inline «translation-error:<reason>» marker. If more than half the
// chunks fail, Translate returns core.KindChunkTranslationFailed and a
// nil Result.
func Translate(ctx context.Context, cfg Config, b backend.ModelBackend, chunks []core.Chunk, sourceLang, targetLang string, previousContext func(index int) string) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}

	out := make([]string, len(chunks))
	failed := make([]bool, len(chunks))
	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrency))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled while admitting; remaining chunks are
			// best-effort skipped rather than force-issued.
			for j := i; j < len(chunks); j++ {
				failed[j] = true
			}
			break
		}

		wg.Add(1)
		go func(idx int, c core.Chunk) {
			defer wg.Done()
			defer sem.Release(1)

			var ctxWord string
			if previousContext != nil {
				ctxWord = previousContext(idx)
			}

			text, ok := translateOneWithRetryExtras(ctx, cfg.Retry, b, c.Text, sourceLang, targetLang, ctxWord, cfg.GlossaryTerms, cfg.Instructions)
			out[idx] = text
			failed[idx] = !ok
		}(i, chunk)
	}
	wg.Wait()

	failedCount := 0
	for _, f := range failed {
		if f {
			failedCount++
		}
	}

	if failedCount*2 > len(chunks) {
		return nil, core.NewError(core.KindChunkTranslationFailed,
			fmt.Sprintf("%d of %d chunks failed translation", failedCount, len(chunks)))
	}

	return &Result{Translations: out, FailedCount: failedCount}, nil
}

// TranslateOneWithRetry issues a single chunk translation, retrying
// transient errors per policy. Returns (text, true) on success or a
// degraded marker and (marker, false) once retries are exhausted or the
// error is permanent.
func TranslateOneWithRetry(ctx context.Context, policy RetryPolicy, b backend.ModelBackend, text, sourceLang, targetLang, previousContext string) (string, bool) {
	return translateOneWithRetryExtras(ctx, policy, b, text, sourceLang, targetLang, previousContext, nil, "")
}

// TranslateOneWithRetryConfig is TranslateOneWithRetry but forwards cfg's
// GlossaryTerms and Instructions, for callers (the progressive emitter)
// that manage their own fan-out loop instead of calling Translate.
func TranslateOneWithRetryConfig(ctx context.Context, cfg Config, b backend.ModelBackend, text, sourceLang, targetLang, previousContext string) (string, bool) {
	return translateOneWithRetryExtras(ctx, cfg.Retry, b, text, sourceLang, targetLang, previousContext, cfg.GlossaryTerms, cfg.Instructions)
}

// translateOneWithRetryExtras is TranslateOneWithRetry plus the glossary
// terms and instruction hint a chunked Config may carry.
func translateOneWithRetryExtras(ctx context.Context, policy RetryPolicy, b backend.ModelBackend, text, sourceLang, targetLang, previousContext string, glossaryTerms map[string]string, instructions string) (string, bool) {
	delay := policy.BaseDelay
	var lastErr error

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := b.Translate(ctx, backend.TranslateInput{
			Text:            text,
			SourceLang:      sourceLang,
			TargetLang:      targetLang,
			PreviousContext: previousContext,
			GlossaryTerms:   glossaryTerms,
			Instructions:    instructions,
		})
		if err == nil {
			return out.TranslatedText, true
		}
		lastErr = err

		if !core.IsRetryable(err) {
			break
		}
		if attempt == maxAttempts-1 {
			break
		}

		jittered := jitter(delay, policy.JitterFrac)
		fmt.Fprintf(os.Stderr, "chunktranslator: attempt %d/%d failed: %v, retrying in %s\n",
			attempt+1, maxAttempts, err, jittered)

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = maxAttempts // break outer loop
		case <-time.After(jittered):
		}
		delay = time.Duration(float64(delay) * policy.Factor)
	}

	return fmt.Sprintf("«translation-error:%s»", reasonFor(lastErr)), false
}

func reasonFor(err error) string {
	if err == nil {
		return "unknown"
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return string(ce.Kind)
	}
	return "backend-error"
}

// jitter applies ±fraction random jitter to d.
func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * fraction
	return time.Duration(float64(d) * (1 + delta))
}
