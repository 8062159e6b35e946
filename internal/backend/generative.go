package backend

import (
	"context"
	"strings"
	"time"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/detector"
	"github.com/meriley/lingua-nexus/internal/langcode"
	"github.com/meriley/lingua-nexus/internal/postprocess"
	"github.com/meriley/lingua-nexus/internal/translator"
)

// GenerativeInstructed adapts a prompted-LLM teacher translator.Service
// (Ollama, OpenRouter) onto ModelBackend. Generative backends speak
// plain English language names rather than a fixed code table, so
// public codes are always translated through internal/langcode before
// being interpolated into the prompt.
type GenerativeInstructed struct {
	svc  translator.TranslationService
	cfg  translator.ServiceConfig
	info core.BackendInfo
	det  *detector.Detector
}

func NewGenerativeInstructed(svc translator.TranslationService, cfg translator.ServiceConfig, info core.BackendInfo, det *detector.Detector) *GenerativeInstructed {
	info.Family = core.FamilyGenerative
	return &GenerativeInstructed{svc: svc, cfg: cfg, info: info, det: det}
}

func (b *GenerativeInstructed) Info() core.BackendInfo {
	return b.info
}

func (b *GenerativeInstructed) Translate(ctx context.Context, in TranslateInput) (*TranslateOutput, error) {
	sourceLang := core.AutoLang
	if in.SourceLang != "" && in.SourceLang != core.AutoLang {
		name, err := langcode.ToBackend(in.SourceLang, core.FamilyGenerative)
		if err != nil {
			return nil, err
		}
		sourceLang = name
	}
	targetLang, err := langcode.ToBackend(in.TargetLang, core.FamilyGenerative)
	if err != nil {
		return nil, err
	}

	req := translator.TranslateRequest{
		Request: core.TranslationRequest{
			Text:          in.Text,
			SourceLang:    sourceLang,
			TargetLang:    targetLang,
			GlossaryTerms: in.GlossaryTerms,
		},
		PreviousContext: in.PreviousContext,
		Instructions:    in.Instructions,
	}

	res, err := b.svc.Translate(ctx, b.cfg, req)
	if err != nil {
		return nil, classifyServiceError(b.svc.Name(), err)
	}

	confidence := res.Confidence
	return &TranslateOutput{
		// Generative backends are prompted LLMs: strip thinking blocks,
		// instruction echoes and quote wrapping before the result reaches
		// chunk assembly or C4 scoring.
		TranslatedText: postprocess.Clean(res.TranslatedText),
		Confidence:     &confidence,
		Latency:        res.Latency,
	}, nil
}

func (b *GenerativeInstructed) DetectLanguage(ctx context.Context, text string) (string, error) {
	if b.det == nil {
		return core.AutoLang, core.NewError(core.KindUnsupportedLanguage, "no detector configured for this backend")
	}
	lang, ok := b.det.DetectISO(text)
	if !ok {
		return core.AutoLang, core.NewError(core.KindUnsupportedLanguage, "could not confidently detect language")
	}
	return strings.ToLower(lang), nil
}

func (b *GenerativeInstructed) SupportedLanguages(ctx context.Context) []string {
	langs, err := b.svc.SupportedLanguages(ctx)
	if err != nil {
		return b.info.SupportedLanguages
	}
	return langs
}

func (b *GenerativeInstructed) Health(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := b.svc.IsAvailable(hctx); err != nil {
		return core.Wrap(core.KindBackendUnavailable, b.svc.Name()+": health check failed", err).AsRetryable()
	}
	return nil
}

func (b *GenerativeInstructed) Load(ctx context.Context) error {
	b.info.Status = core.StatusReady
	return nil
}

func (b *GenerativeInstructed) Unload(ctx context.Context) error {
	b.info.Status = core.StatusUnloaded
	return nil
}
