package backend

import (
	"context"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/translator"
)

// NotImplementedBackend wraps one of the teacher's declared-but-unbuilt
// provider stubs (IBM Watson, Amazon Translate, Systran, Doclingo) so the
// registry can still list and report on them without special-casing
// "not implemented" outside this one adapter. Translate and Health always
// fail with KindBackendUnavailable; SupportedLanguages and Info still
// work, since the stubs already know their provider's advertised
// language table.
type NotImplementedBackend struct {
	svc  translator.TranslationService
	info core.BackendInfo
}

func NewNotImplementedBackend(svc translator.TranslationService, info core.BackendInfo) *NotImplementedBackend {
	info.Status = core.StatusFailed
	return &NotImplementedBackend{svc: svc, info: info}
}

func (b *NotImplementedBackend) Info() core.BackendInfo {
	return b.info
}

func (b *NotImplementedBackend) Translate(ctx context.Context, in TranslateInput) (*TranslateOutput, error) {
	return nil, core.NewError(core.KindBackendUnavailable, b.svc.Name()+" is not implemented").WithHint("choose a different backend")
}

func (b *NotImplementedBackend) DetectLanguage(ctx context.Context, text string) (string, error) {
	return core.AutoLang, core.NewError(core.KindBackendUnavailable, b.svc.Name()+" is not implemented")
}

func (b *NotImplementedBackend) SupportedLanguages(ctx context.Context) []string {
	langs, err := b.svc.SupportedLanguages(ctx)
	if err != nil {
		return nil
	}
	return langs
}

func (b *NotImplementedBackend) Health(ctx context.Context) error {
	return core.NewError(core.KindBackendUnavailable, b.svc.Name()+" is not implemented")
}

func (b *NotImplementedBackend) Load(ctx context.Context) error {
	return core.NewError(core.KindBackendUnavailable, b.svc.Name()+" is not implemented")
}

func (b *NotImplementedBackend) Unload(ctx context.Context) error {
	return nil
}
