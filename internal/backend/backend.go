// Package backend defines the capability surface a neural translation
// backend must expose to the adaptive core (C5), and adapts the
// teacher's per-provider translator.TranslationService implementations
// onto it. Two families are distinguished: SpecializedSeq2Seq backends
// (purpose-built encoder-decoder models with narrow, fixed language
// pairs and a native lang_Script code scheme) and GenerativeInstructed
// backends (prompted LLMs with broad, soft language coverage and plain
// English language names).
package backend

import (
	"context"
	"time"

	"github.com/meriley/lingua-nexus/internal/core"
)

// TranslateInput is the request a ModelBackend receives. It is a subset
// of core.TranslationRequest plus chunk-local context the chunk
// translator (C7) supplies.
type TranslateInput struct {
	Text            string
	SourceLang      string // public code; empty or core.AutoLang means detect
	TargetLang      string
	PreviousContext string
	GlossaryTerms   map[string]string
	Instructions    string
}

// TranslateOutput is a backend's response to a single TranslateInput.
type TranslateOutput struct {
	TranslatedText string
	Confidence     *float64 // nil when the backend does not self-report confidence
	Latency        time.Duration
}

// ModelBackend is the capability interface every translation backend,
// specialized or generative, must satisfy. Implementations are expected
// to be safe for concurrent use once Load has completed.
type ModelBackend interface {
	// Info returns the backend's static identity and capacity metadata.
	Info() core.BackendInfo

	// Translate performs a single chunk's translation. Implementations
	// must return a *core.Error with an appropriate Kind (not a bare
	// error) so callers can apply retry/fallback policy uniformly.
	Translate(ctx context.Context, in TranslateInput) (*TranslateOutput, error)

	// DetectLanguage returns the public language code this backend
	// believes the text is written in. Backends that cannot detect
	// return core.AutoLang unresolved via a KindUnsupportedLanguage error.
	DetectLanguage(ctx context.Context, text string) (string, error)

	// SupportedLanguages lists the public language codes this backend
	// can translate between.
	SupportedLanguages(ctx context.Context) []string

	// Health reports whether the backend is currently reachable and
	// able to serve requests. It must not block on a full translation.
	Health(ctx context.Context) error

	// Load prepares the backend for serving (auth handshake, connection
	// pool warmup, local model load). Load must be idempotent.
	Load(ctx context.Context) error

	// Unload releases any held resources. Unload must be safe to call
	// on a backend that was never loaded.
	Unload(ctx context.Context) error
}
