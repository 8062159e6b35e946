package httpapi

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meriley/lingua-nexus/internal/chunker"
	"github.com/meriley/lingua-nexus/internal/chunktranslator"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/glossary"
	"github.com/meriley/lingua-nexus/internal/langcode"
	"github.com/meriley/lingua-nexus/internal/progressive"
	"github.com/meriley/lingua-nexus/internal/scriptdetect"
)

// streamChunkSize is the chunk size used for progressive streaming,
// matching the chunker's default semantic cap.
const streamChunkSize = 500

// handleTranslateStream drives the Progressive Emitter (C11) over SSE.
// Unlike /v1/translate it bypasses the controller's result cache and
// direct/semantic/optimized decision tree: a streaming caller has already
// opted into incremental per-chunk delivery, so the chunk size is always
// streamChunkSize; force_optimization and any optimized size are ignored
// here (spec §4.11 treats optimization and streaming as mutually exclusive).
func (s *Server) handleTranslateStream(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}
	if req.Mode == "" {
		req.Mode = core.ModeProgressive
	}

	backendID, err := s.reg.Select(req, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	b, release, err := s.reg.GetOrLoad(c.Request.Context(), backendID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer release()

	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == core.AutoLang {
		if lang, derr := b.DetectLanguage(c.Request.Context(), req.Text); derr == nil && lang != "" {
			sourceLang = lang
		} else if lang := scriptdetect.Detect(req.Text, 0.5); lang != "unknown" {
			sourceLang = lang
		} else {
			writeError(c, core.NewError(core.KindUnsupportedLanguage, "could not determine source language"))
			return
		}
	}
	sourceLang = langcode.Canonicalize(sourceLang)
	targetLang := langcode.Canonicalize(req.TargetLang)

	if s.gstore != nil {
		if gerr := glossary.Apply(c.Request.Context(), s.gstore, &req); gerr != nil {
			s.log.Warn("glossary lookup failed for streaming request", zap.Error(gerr))
		}
	}

	chunks := chunker.ChunkText(req.Text, streamChunkSize)

	cfg := chunktranslator.DefaultConfig()
	cfg.GlossaryTerms = req.GlossaryTerms

	events := progressive.Stream(c.Request.Context(), cfg, b, chunks, sourceLang, targetLang, nil, progressive.Params{
		BackendID:  backendID,
		Method:     core.MethodSemantic,
		ChunkSize:  streamChunkSize,
		SourceLang: sourceLang,
	}, progressive.DefaultBufferSize)

	c.Stream(func(w io.Writer) bool {
		ev, open := <-events
		if !open {
			return false
		}
		switch ev.Type {
		case progressive.EventPlanReady:
			c.SSEvent("plan_ready", gin.H{"chunk_count": ev.ChunkCount})
		case progressive.EventChunkReady:
			c.SSEvent("chunk_ready", gin.H{"index": ev.Index, "text": ev.Text, "quality": ev.Quality})
		case progressive.EventCompleted:
			c.SSEvent("completed", ev.Result)
		case progressive.EventFailed:
			c.SSEvent("failed", gin.H{"error": ev.Err.Error()})
		}
		return true
	})
}
