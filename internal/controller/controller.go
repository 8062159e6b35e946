// Package controller implements the Adaptive Controller (C10): the
// top-level translate(request) -> TranslationResult state machine that
// validates input, resolves the source language, selects a backend,
// decides between direct/semantic/optimized handling, and records
// observability fields.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/cache"
	"github.com/meriley/lingua-nexus/internal/chunker"
	"github.com/meriley/lingua-nexus/internal/chunktranslator"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/glossary"
	"github.com/meriley/lingua-nexus/internal/langcode"
	"github.com/meriley/lingua-nexus/internal/markdown"
	"github.com/meriley/lingua-nexus/internal/optimizer"
	"github.com/meriley/lingua-nexus/internal/placeholder"
	"github.com/meriley/lingua-nexus/internal/postprocess"
	"github.com/meriley/lingua-nexus/internal/quality"
	"github.com/meriley/lingua-nexus/internal/refiner"
	"github.com/meriley/lingua-nexus/internal/registry"
	"github.com/meriley/lingua-nexus/internal/scriptdetect"
)

// Config controls the controller's thresholds, independent of any one
// request.
type Config struct {
	HardTextCap           int
	ShortThresholdChars   int
	DefaultMaxChunkSize   int
	OverallDeadline       time.Duration
	ScriptDetectThreshold float64
}

// DefaultConfig matches spec §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		HardTextCap:           10_000,
		ShortThresholdChars:   500,
		DefaultMaxChunkSize:   500,
		OverallDeadline:       120 * time.Second,
		ScriptDetectThreshold: 0.5,
	}
}

// Controller wires the registry, result cache, size cache and logger
// into the spec's §4.10 decision tree.
type Controller struct {
	cfg         Config
	reg         *registry.Registry
	resultCache cache.Cache // optional; may be nil
	sizeCache   *cache.SizeCache
	log         *zap.Logger

	// glossaryResolver and refiner are additive, optional stages
	// (SPEC_FULL.md §9): neither is required for any method, both are
	// nil by default and wired in via With* after New.
	glossaryResolver glossary.Resolver
	refiner          refiner.Refiner
}

// New builds a Controller. resultCache may be nil to disable the
// optional translation-result cache (spec §3 CacheEntry).
func New(cfg Config, reg *registry.Registry, resultCache cache.Cache, sizeCache *cache.SizeCache, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{cfg: cfg, reg: reg, resultCache: resultCache, sizeCache: sizeCache, log: log}
}

// WithGlossary attaches a glossary resolver so requests that don't
// already carry explicit GlossaryTerms get the stored glossary for their
// language pair injected before translation (SPEC_FULL.md §9).
func (c *Controller) WithGlossary(r glossary.Resolver) *Controller {
	c.glossaryResolver = r
	return c
}

// WithRefiner attaches an optional Stage 2 literary refiner, applied to
// direct, semantic and optimized results when the caller asked for user_preference
// "quality" (SPEC_FULL.md §9's two-pass refinement, adapted from the
// teacher's internal/refiner).
func (c *Controller) WithRefiner(r refiner.Refiner) *Controller {
	c.refiner = r
	return c
}

// Translate runs the full C10 decision tree for a single request.
func (c *Controller) Translate(ctx context.Context, req core.TranslationRequest) (*core.TranslationResult, error) {
	start := time.Now()

	if c.cfg.OverallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.OverallDeadline)
		defer cancel()
	}

	if err := c.validate(req); err != nil {
		return nil, err
	}

	targetLang := langcode.Canonicalize(req.TargetLang)

	backendID, err := c.reg.Select(req, 0)
	if err != nil {
		return nil, err
	}
	b, release, err := c.reg.GetOrLoad(ctx, backendID)
	if err != nil {
		return nil, err
	}
	defer release()

	sourceLang, err := c.resolveSourceLang(ctx, b, req)
	if err != nil {
		return nil, err
	}

	if err := glossary.Apply(ctx, c.glossaryResolver, &req); err != nil {
		// Glossary lookup is additive (SPEC_FULL.md §9): a storage hiccup
		// degrades to an unguided translation rather than failing the
		// request.
		c.log.Warn("glossary lookup failed, continuing without glossary terms", zap.Error(err))
	}

	cacheKey := resultCacheKey(backendID, sourceLang, targetLang, req.Text)
	if c.resultCache != nil && !req.ForceOptimization {
		if raw, ok := c.resultCache.Get(cacheKey); ok {
			if res, ok := decodeResult(raw); ok {
				res.Method = core.MethodCached
				res.CacheHit = true
				// I3: quality_score is present iff method is semantic or
				// optimized; a cached result reports neither.
				res.QualityScore = nil
				res.QualityGrade = ""
				res.ProcessingTime = time.Since(start)
				res.ProcessingTimeMs = res.ProcessingTime.Milliseconds()
				markdown.ApplyContentFormat(&res, req.ContentFormat)
				c.log.Debug("translation served from cache", zap.String("backend", backendID))
				return &res, nil
			}
		}
	}

	var result *core.TranslationResult
	switch {
	case req.Mode == core.ModeDirect ||
		(!req.ForceOptimization && len([]rune(req.Text)) <= c.cfg.ShortThresholdChars):
		result, err = c.direct(ctx, b, backendID, sourceLang, targetLang, req)
	case req.Mode == core.ModeSemantic || (!req.ForceOptimization && req.UserPreference == core.PreferFast):
		result, err = c.semantic(ctx, b, backendID, sourceLang, targetLang, req)
		// Semantic results below an explicit quality threshold escalate to
		// the optimizer unless the caller asked for speed (spec §4.10:
		// "If quality >= threshold or user_preference=fast, do not
		// optimize").
		if err == nil && req.UserPreference != core.PreferFast &&
			req.QualityThreshold > 0 && result.QualityScore != nil &&
			*result.QualityScore < req.QualityThreshold {
			if opt, oerr := c.optimized(ctx, b, backendID, sourceLang, targetLang, req); oerr == nil {
				result = opt
			}
		}
	default:
		result, err = c.optimized(ctx, b, backendID, sourceLang, targetLang, req)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, core.Wrap(core.KindDeadlineExceeded, "request deadline exceeded", err)
		}
		return nil, err
	}

	postprocess.CleanResult(result)
	result.ProcessingTime = time.Since(start)
	result.ProcessingTimeMs = result.ProcessingTime.Milliseconds()
	markdown.ApplyContentFormat(result, req.ContentFormat)

	if c.resultCache != nil {
		if raw, ok := encodeResult(*result); ok {
			c.resultCache.Put(cacheKey, raw, 24*time.Hour)
		}
	}

	c.log.Info("translation completed",
		zap.String("backend", backendID),
		zap.String("method", string(result.Method)),
		zap.Int("chunk_count", result.ChunkCount),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs),
	)

	return result, nil
}

func (c *Controller) validate(req core.TranslationRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return core.NewError(core.KindInvalidRequest, "text must not be empty")
	}
	if c.cfg.HardTextCap > 0 && len([]rune(req.Text)) > c.cfg.HardTextCap {
		return core.NewError(core.KindInvalidRequest, fmt.Sprintf("text exceeds hard cap of %d characters", c.cfg.HardTextCap))
	}
	if req.TargetLang == "" || req.TargetLang == core.AutoLang {
		return core.NewError(core.KindInvalidRequest, "target_lang must be a concrete language code")
	}
	return nil
}

// resolveSourceLang honors an explicit source_lang, otherwise attempts
// the backend's own detection capability before falling back to the
// cheap script-based heuristic (I5: never returns the auto sentinel).
func (c *Controller) resolveSourceLang(ctx context.Context, b backend.ModelBackend, req core.TranslationRequest) (string, error) {
	if req.SourceLang != "" && req.SourceLang != core.AutoLang {
		return langcode.Canonicalize(req.SourceLang), nil
	}

	if lang, err := b.DetectLanguage(ctx, req.Text); err == nil && lang != "" {
		return lang, nil
	}

	lang := scriptdetect.Detect(req.Text, c.cfg.ScriptDetectThreshold)
	if lang == "unknown" {
		return "", core.NewError(core.KindUnsupportedLanguage, "could not determine source language")
	}
	return lang, nil
}

func (c *Controller) direct(ctx context.Context, b backend.ModelBackend, backendID, sourceLang, targetLang string, req core.TranslationRequest) (*core.TranslationResult, error) {
	protReq, prot := placeholder.ProtectRequest(req)

	out, err := b.Translate(ctx, backend.TranslateInput{
		Text:          protReq.Text,
		SourceLang:    sourceLang,
		TargetLang:    targetLang,
		GlossaryTerms: protReq.GlossaryTerms,
		Instructions:  prot.Instructions,
	})
	if err != nil {
		return nil, err
	}

	res := &core.TranslationResult{
		TranslatedText:     out.TranslatedText,
		DetectedSourceLang: sourceLang,
		BackendUsed:        backendID,
		Method:             core.MethodDirect,
		ChunkCount:         1,
	}
	prot.RestoreResult(res)

	if req.UserPreference == core.PreferBalanced || req.UserPreference == core.PreferQuality {
		// Scored for observability only: I3 reserves quality_score on the
		// result for method in {semantic, optimized}.
		m := quality.Score(req.Text, res.TranslatedText, nil, nil, out.Confidence)
		c.log.Debug("direct translation quality", zap.String("backend", backendID), zap.Float64("composite", m.Composite))
	}

	if c.refiner != nil && req.UserPreference == core.PreferQuality {
		*res = c.refine(ctx, sourceLang, targetLang, req, *res)
	}

	return res, nil
}

func (c *Controller) semantic(ctx context.Context, b backend.ModelBackend, backendID, sourceLang, targetLang string, req core.TranslationRequest) (*core.TranslationResult, error) {
	protReq, prot := placeholder.ProtectRequest(req)

	chunks := chunker.ChunkText(protReq.Text, c.cfg.DefaultMaxChunkSize)
	ccfg := chunktranslator.DefaultConfig()
	ccfg.GlossaryTerms = protReq.GlossaryTerms
	ccfg.Instructions = prot.Instructions
	tr, err := chunktranslator.Translate(ctx, ccfg, b, chunks, sourceLang, targetLang, nil)
	if err != nil {
		return nil, err
	}

	res := &core.TranslationResult{
		TranslatedText:     joinChunks(tr.Translations),
		DetectedSourceLang: sourceLang,
		BackendUsed:        backendID,
		Method:             core.MethodSemantic,
		ChunkCount:         len(chunks),
		ChunkSize:          c.cfg.DefaultMaxChunkSize,
	}
	prot.RestoreResult(res)

	m := quality.Score(req.Text, res.TranslatedText, chunks, tr.Translations, nil)
	score := m.Composite
	res.QualityScore = &score
	res.QualityGrade = core.GradeFor(score)

	if c.refiner != nil && req.UserPreference == core.PreferQuality {
		*res = c.refine(ctx, sourceLang, targetLang, req, *res)
	}

	return res, nil
}

func (c *Controller) optimized(ctx context.Context, b backend.ModelBackend, backendID, sourceLang, targetLang string, req core.TranslationRequest) (*core.TranslationResult, error) {
	protReq, prot := placeholder.ProtectRequest(req)

	budget := time.Duration(req.MaxOptimizationTimeS * float64(time.Second))
	cfg := optimizer.DefaultConfig(len([]rune(protReq.Text)))
	if budget > 0 {
		cfg.TimeBudget = budget
	}

	class := chunker.ClassifyContent(protReq.Text)
	search, err := optimizer.Search(ctx, cfg, c.sizeCache, b, protReq.Text, sourceLang, targetLang, class, req.QualityThreshold)
	if err != nil {
		return nil, err
	}

	chunks := chunker.ChunkText(protReq.Text, search.ChunkSize)
	ccfg := chunktranslator.DefaultConfig()
	ccfg.GlossaryTerms = protReq.GlossaryTerms
	ccfg.Instructions = prot.Instructions
	tr, err := chunktranslator.Translate(ctx, ccfg, b, chunks, sourceLang, targetLang, nil)
	if err != nil {
		return nil, err
	}

	res := &core.TranslationResult{
		TranslatedText:      joinChunks(tr.Translations),
		DetectedSourceLang:  sourceLang,
		BackendUsed:         backendID,
		Method:              core.MethodOptimized,
		ChunkCount:          len(chunks),
		ChunkSize:           search.ChunkSize,
		OptimizationApplied: true,
	}
	prot.RestoreResult(res)

	m := quality.Score(req.Text, res.TranslatedText, chunks, tr.Translations, nil)
	score := m.Composite
	res.QualityScore = &score
	res.QualityGrade = core.GradeFor(score)

	if c.refiner != nil && req.UserPreference == core.PreferQuality {
		*res = c.refine(ctx, sourceLang, targetLang, req, *res)
	}

	return res, nil
}

// refine runs the optional Stage 2 literary refiner over a completed
// translation. A refiner failure is logged and the unrefined draft is kept:
// refinement is an additive quality stage, never a reason to fail a request
// that already produced a usable translation.
func (c *Controller) refine(ctx context.Context, sourceLang, targetLang string, req core.TranslationRequest, draft core.TranslationResult) core.TranslationResult {
	refined, err := refiner.RefineResult(ctx, c.refiner, sourceLang, targetLang, req, draft)
	if err != nil {
		c.log.Warn("refinement stage failed, keeping draft translation", zap.Error(err))
		return draft
	}
	return refined
}

func joinChunks(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}

func resultCacheKey(backendID, sourceLang, targetLang, text string) string {
	return backendID + "|" + sourceLang + "|" + targetLang + "|" + fmt.Sprintf("%x", hashText(text))
}
