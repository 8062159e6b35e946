package backend

import (
	"context"
	"strings"
	"time"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/detector"
	"github.com/meriley/lingua-nexus/internal/langcode"
	"github.com/meriley/lingua-nexus/internal/translator"
)

// SpecializedSeq2Seq adapts a teacher translator.TranslationService
// (narrow, purpose-built encoder-decoder style providers — Google,
// MyMemory, and the unimplemented IBM/Amazon/Systran/Doclingo stubs) onto
// ModelBackend. When nativeCodeScheme is non-empty, public ISO-639-1
// codes are translated through internal/langcode before being handed to
// the wrapped service; services that already accept ISO/BCP-47 codes
// directly (Google, MyMemory) leave it empty and take codes as-is.
type SpecializedSeq2Seq struct {
	svc              translator.TranslationService
	cfg              translator.ServiceConfig
	info             core.BackendInfo
	nativeCodeScheme string
	det              *detector.Detector
}

// NewSpecializedSeq2Seq builds a ModelBackend around an existing
// translator.TranslationService. det may be nil, in which case
// DetectLanguage falls back to reporting core.AutoLang as unresolved.
func NewSpecializedSeq2Seq(svc translator.TranslationService, cfg translator.ServiceConfig, info core.BackendInfo, det *detector.Detector) *SpecializedSeq2Seq {
	info.Family = core.FamilySpecialized
	return &SpecializedSeq2Seq{svc: svc, cfg: cfg, info: info, nativeCodeScheme: info.NativeCodeScheme, det: det}
}

func (b *SpecializedSeq2Seq) Info() core.BackendInfo {
	return b.info
}

func (b *SpecializedSeq2Seq) toNative(publicCode string) (string, error) {
	if b.nativeCodeScheme == "" || publicCode == "" || publicCode == core.AutoLang {
		return publicCode, nil
	}
	return langcode.ToBackend(publicCode, core.FamilySpecialized)
}

func (b *SpecializedSeq2Seq) Translate(ctx context.Context, in TranslateInput) (*TranslateOutput, error) {
	sourceLang, err := b.toNative(in.SourceLang)
	if err != nil {
		return nil, err
	}
	targetLang, err := b.toNative(in.TargetLang)
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
		TranslatedText: res.TranslatedText,
		Confidence:     &confidence,
		Latency:        res.Latency,
	}, nil
}

func (b *SpecializedSeq2Seq) DetectLanguage(ctx context.Context, text string) (string, error) {
	if b.det == nil {
		return core.AutoLang, core.NewError(core.KindUnsupportedLanguage, "no detector configured for this backend")
	}
	lang, ok := b.det.DetectISO(text)
	if !ok {
		return core.AutoLang, core.NewError(core.KindUnsupportedLanguage, "could not confidently detect language")
	}
	return strings.ToLower(lang), nil
}

func (b *SpecializedSeq2Seq) SupportedLanguages(ctx context.Context) []string {
	langs, err := b.svc.SupportedLanguages(ctx)
	if err != nil {
		return b.info.SupportedLanguages
	}
	return langs
}

func (b *SpecializedSeq2Seq) Health(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := b.svc.IsAvailable(hctx); err != nil {
		return core.Wrap(core.KindBackendUnavailable, b.svc.Name()+": health check failed", err).AsRetryable()
	}
	return nil
}

func (b *SpecializedSeq2Seq) Load(ctx context.Context) error {
	b.info.Status = core.StatusReady
	return nil
}

func (b *SpecializedSeq2Seq) Unload(ctx context.Context) error {
	b.info.Status = core.StatusUnloaded
	return nil
}
