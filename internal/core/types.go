// Package core holds the transport-agnostic data model shared by every
// component of the adaptive translation pipeline: requests, results,
// chunks, quality metrics, and backend metadata. No component-specific
// logic lives here, only the shapes components exchange.
package core

import "time"

// Mode selects how the controller handles a request.
type Mode string

const (
	ModeDirect      Mode = "direct"
	ModeSemantic    Mode = "semantic"
	ModeAdaptive    Mode = "adaptive"
	ModeProgressive Mode = "progressive"
)

// UserPreference biases backend selection and optimization effort.
type UserPreference string

const (
	PreferFast     UserPreference = "fast"
	PreferBalanced UserPreference = "balanced"
	PreferQuality  UserPreference = "quality"
)

// AutoLang is the sentinel source-language value requesting detection.
const AutoLang = "auto"

// TranslationRequest is the immutable input accepted by the controller.
type TranslationRequest struct {
	Text                 string         `json:"text"`
	SourceLang           string         `json:"source_lang"`
	TargetLang           string         `json:"target_lang"`
	ModelPreference      string         `json:"model_preference,omitempty"`
	Mode                 Mode           `json:"mode,omitempty"`
	UserPreference       UserPreference `json:"user_preference,omitempty"`
	QualityThreshold     float64        `json:"quality_threshold,omitempty"`
	MaxOptimizationTimeS float64        `json:"max_optimization_time_s,omitempty"`
	ForceOptimization    bool           `json:"force_optimization,omitempty"`

	// PreserveMarkup enables placeholder protection of fenced code/HTML
	// spans around the backend call in direct, semantic and optimized
	// translation, whatever the backend family. Supplements the spec's core
	// fields; does not affect method selection.
	PreserveMarkup bool `json:"preserve_markup,omitempty"`

	// GlossaryTerms, when non-empty, are injected into generative backend
	// prompts for consistent terminology.
	GlossaryTerms map[string]string `json:"glossary_terms,omitempty"`

	// ContentFormat declares the source text's markup so the controller
	// knows whether it may offer a rendered_html view of the result.
	// "text" (default) skips rendering; "markdown" renders the final
	// translated_text as HTML alongside the plain-text field.
	ContentFormat string `json:"content_format,omitempty"`

	// IdentityKey is the caller-supplied opaque token used to key the
	// cache and rate accounting. It never affects translation semantics.
	IdentityKey string `json:"-"`
}

// Method records which control-flow path produced a TranslationResult.
type Method string

const (
	MethodDirect    Method = "direct"
	MethodSemantic  Method = "semantic"
	MethodOptimized Method = "optimized"
	MethodCached    Method = "cached"
)

// Grade is the letter grade derived from a composite quality score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// TranslationResult is returned to the caller for a completed request.
type TranslationResult struct {
	TranslatedText      string        `json:"translated_text"`
	DetectedSourceLang  string        `json:"detected_source_lang"`
	BackendUsed         string        `json:"backend_used"`
	Method              Method        `json:"method"`
	ChunkCount          int           `json:"chunk_count"`
	ChunkSize           int           `json:"chunk_size,omitempty"`
	QualityScore        *float64      `json:"quality_score,omitempty"`
	QualityGrade        Grade         `json:"quality_grade,omitempty"`
	OptimizationApplied bool          `json:"optimization_applied"`
	CacheHit            bool          `json:"cache_hit"`
	ProcessingTimeMs    int64         `json:"processing_time_ms"`
	ProcessingTime      time.Duration `json:"-"`

	// RenderedHTML is set when the request's ContentFormat is "markdown";
	// it holds TranslatedText rendered to HTML for clients that display a
	// formatted view rather than raw markdown source.
	RenderedHTML string `json:"rendered_html,omitempty"`
}

// ContentFormatMarkdown is the TranslationRequest.ContentFormat value that
// requests a rendered_html view of the result.
const ContentFormatMarkdown = "markdown"

// Chunk is a contiguous substring of the source text produced by the
// semantic chunker, tagged with its position in the reassembled order and
// its rune offsets within the chunk texts rejoined with single spaces.
type Chunk struct {
	Index         int    `json:"index"`
	Text          string `json:"text"`
	CharRangeFrom int    `json:"char_range_from"`
	CharRangeTo   int    `json:"char_range_to"`
}

// QualityMetrics is the composite and sub-metric output of the quality
// scorer. Composite is the fixed 0.30/0.20/0.20/0.20/0.10 weighted sum.
type QualityMetrics struct {
	Confidence         float64 `json:"confidence"`
	LengthConsistency  float64 `json:"length_consistency"`
	StructureIntegrity float64 `json:"structure_integrity"`
	EntityPreservation float64 `json:"entity_preservation"`
	BoundaryCoherence  float64 `json:"boundary_coherence"`
	Composite          float64 `json:"composite"`
}

// BackendFamily distinguishes specialized encoder-decoder backends from
// generative instructed-LLM backends.
type BackendFamily string

const (
	FamilySpecialized BackendFamily = "specialized"
	FamilyGenerative  BackendFamily = "generative"
)

// BackendStatus is a backend's lifecycle state, owned by the registry.
type BackendStatus string

const (
	StatusUnloaded  BackendStatus = "unloaded"
	StatusLoading   BackendStatus = "loading"
	StatusReady     BackendStatus = "ready"
	StatusFailed    BackendStatus = "failed"
	StatusUnloading BackendStatus = "unloading"
)

// MemoryClass is a coarse memory-footprint bucket used for eviction
// accounting (spec Open Question (c)).
type MemoryClass string

const (
	MemorySmall  MemoryClass = "small"
	MemoryMedium MemoryClass = "medium"
	MemoryLarge  MemoryClass = "large"
	MemoryXLarge MemoryClass = "xlarge"
)

// MemoryClassMB is the coarse MB estimate used by the registry's eviction
// accounting for each MemoryClass (Open Question (c) in SPEC_FULL.md).
var MemoryClassMB = map[MemoryClass]int{
	MemorySmall:  2048,
	MemoryMedium: 8192,
	MemoryLarge:  24576,
	MemoryXLarge: 65536,
}

// BackendInfo describes a backend's identity and capabilities.
type BackendInfo struct {
	ID                 string        `json:"id"`
	Family             BackendFamily `json:"family"`
	SupportedLanguages []string      `json:"supported_languages"`
	NativeCodeScheme   string        `json:"native_code_scheme"`
	ContextLimitTokens int           `json:"context_limit_tokens"`
	MemoryClass        MemoryClass   `json:"memory_class"`
	Status             BackendStatus `json:"status"`
}

// ContentClass is the coarse label used by the optimizer's cache key and
// the chunker's default sizing heuristics.
type ContentClass string

const (
	ContentShort     ContentClass = "short"
	ContentProse     ContentClass = "prose"
	ContentDialog    ContentClass = "dialog"
	ContentTechnical ContentClass = "technical"
)

// CacheEntry is the value stored by the optimizer's optimal-chunk-size
// cache.
type CacheEntry struct {
	OptimalChunkSize int       `json:"optimal_chunk_size"`
	QualityAtSize    float64   `json:"quality_at_size"`
	StoredAt         time.Time `json:"stored_at"`
	Hits             int       `json:"hits"`
}

// GradeFor maps a composite score to its letter grade per the fixed
// thresholds A>=0.90, B>=0.80, C>=0.70, D>=0.60, E>=0.50, else F.
func GradeFor(composite float64) Grade {
	switch {
	case composite >= 0.90:
		return GradeA
	case composite >= 0.80:
		return GradeB
	case composite >= 0.70:
		return GradeC
	case composite >= 0.60:
		return GradeD
	case composite >= 0.50:
		return GradeE
	default:
		return GradeF
	}
}
