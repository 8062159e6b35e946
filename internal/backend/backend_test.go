package backend_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/translator"
)

// fakeService is a hand-rolled translator.TranslationService test double.
type fakeService struct {
	name           string
	translateFn    func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error)
	availableErr   error
	supportedLangs []string
	supportedErr   error
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	if f.translateFn != nil {
		return f.translateFn(ctx, cfg, req)
	}
	return &translator.ServiceResult{ServiceName: f.name, TranslatedText: "stub"}, nil
}

func (f *fakeService) IsAvailable(ctx context.Context) error { return f.availableErr }

func (f *fakeService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return f.supportedLangs, f.supportedErr
}

func TestSpecializedSeq2Seq_Translate_PassthroughCodes(t *testing.T) {
	var gotReq translator.TranslateRequest
	svc := &fakeService{
		name: "google",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			gotReq = req
			return &translator.ServiceResult{ServiceName: "google", TranslatedText: "Hola", Confidence: 1.0}, nil
		},
	}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "google"}, nil)

	out, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TranslatedText != "Hola" {
		t.Errorf("expected Hola, got %s", out.TranslatedText)
	}
	if gotReq.Request.SourceLang != "en" || gotReq.Request.TargetLang != "es" {
		t.Errorf("expected passthrough codes, got %+v", gotReq)
	}
}

func TestSpecializedSeq2Seq_Translate_NativeCodeScheme(t *testing.T) {
	var gotReq translator.TranslateRequest
	svc := &fakeService{
		name: "nllb",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			gotReq = req
			return &translator.ServiceResult{ServiceName: "nllb", TranslatedText: "Hola"}, nil
		},
	}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "nllb", NativeCodeScheme: "nllb"}, nil)

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq.Request.SourceLang != "eng_Latn" || gotReq.Request.TargetLang != "spa_Latn" {
		t.Errorf("expected native codes, got %+v", gotReq)
	}
}

func TestSpecializedSeq2Seq_Translate_UnsupportedLanguage(t *testing.T) {
	svc := &fakeService{name: "nllb"}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "nllb", NativeCodeScheme: "nllb"}, nil)

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "xx"})
	if err == nil {
		t.Fatal("expected error for unsupported target language")
	}
	ce, ok := err.(*core.Error)
	if !ok {
		t.Fatalf("expected *core.Error, got %T", err)
	}
	if ce.Kind != core.KindUnsupportedLanguage {
		t.Errorf("expected KindUnsupportedLanguage, got %s", ce.Kind)
	}
}

func TestSpecializedSeq2Seq_Translate_WrapsUnderlyingError(t *testing.T) {
	svc := &fakeService{
		name: "google",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			return &translator.ServiceResult{ServiceName: "google", Error: "boom"}, errors.New("boom")
		},
	}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "google"}, nil)

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err == nil {
		t.Fatal("expected error")
	}
	ce, ok := err.(*core.Error)
	if !ok {
		t.Fatalf("expected *core.Error, got %T", err)
	}
	if ce.Kind != core.KindBackendInternalError {
		t.Errorf("expected KindBackendInternalError, got %s", ce.Kind)
	}
	if !errors.Is(err, ce.Cause) {
		t.Errorf("expected Unwrap to reach the underlying cause")
	}
}

func TestSpecializedSeq2Seq_Translate_TransportErrorIsRetryable(t *testing.T) {
	svc := &fakeService{
		name: "google",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			return nil, &url.Error{Op: "Post", URL: "http://localhost:1", Err: errors.New("connection refused")}
		},
	}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "google"}, nil)

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	ce, ok := err.(*core.Error)
	if !ok {
		t.Fatalf("expected *core.Error, got %T", err)
	}
	if ce.Kind != core.KindBackendUnavailable || !ce.Retryable {
		t.Errorf("expected retryable KindBackendUnavailable, got %+v", ce)
	}
}

func TestSpecializedSeq2Seq_Translate_DeadlineBecomesTimeout(t *testing.T) {
	svc := &fakeService{
		name: "google",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			return nil, context.DeadlineExceeded
		},
	}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "google"}, nil)

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	ce, ok := err.(*core.Error)
	if !ok {
		t.Fatalf("expected *core.Error, got %T", err)
	}
	if ce.Kind != core.KindBackendTimeout || !ce.Retryable {
		t.Errorf("expected retryable KindBackendTimeout, got %+v", ce)
	}
}

func TestGenerativeInstructed_Translate_TypedErrorPassesThrough(t *testing.T) {
	svcErr := core.NewError(core.KindLanguagePairUnsupported, "pair not supported")
	svc := &fakeService{
		name: "ollama",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			return nil, svcErr
		},
	}
	b := backend.NewGenerativeInstructed(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "ollama"}, nil)

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err != svcErr {
		t.Errorf("expected the service's typed error unchanged, got %v", err)
	}
}

func TestSpecializedSeq2Seq_Health_Unavailable(t *testing.T) {
	svc := &fakeService{name: "google", availableErr: errors.New("down")}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "google"}, nil)

	err := b.Health(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	ce := err.(*core.Error)
	if ce.Kind != core.KindBackendUnavailable || !ce.Retryable {
		t.Errorf("expected retryable KindBackendUnavailable, got %+v", ce)
	}
}

func TestGenerativeInstructed_Translate_TranslatesCodesToNames(t *testing.T) {
	var gotReq translator.TranslateRequest
	svc := &fakeService{
		name: "ollama",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			gotReq = req
			return &translator.ServiceResult{ServiceName: "ollama", TranslatedText: "Hola", Confidence: 0.7}, nil
		},
	}
	b := backend.NewGenerativeInstructed(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "ollama"}, nil)

	out, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq.Request.SourceLang != "English" || gotReq.Request.TargetLang != "Spanish" {
		t.Errorf("expected English/Spanish, got %+v", gotReq)
	}
	if out.TranslatedText != "Hola" {
		t.Errorf("expected Hola, got %s", out.TranslatedText)
	}
}

func TestGenerativeInstructed_Translate_AutoSourceStaysAuto(t *testing.T) {
	var gotReq translator.TranslateRequest
	svc := &fakeService{
		name: "ollama",
		translateFn: func(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
			gotReq = req
			return &translator.ServiceResult{ServiceName: "ollama", TranslatedText: "Hola"}, nil
		},
	}
	b := backend.NewGenerativeInstructed(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "ollama"}, nil)

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello", SourceLang: core.AutoLang, TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq.Request.SourceLang != core.AutoLang {
		t.Errorf("expected auto source to stay auto, got %s", gotReq.Request.SourceLang)
	}
}

func TestNotImplementedBackend_TranslateFails(t *testing.T) {
	svc := &fakeService{name: "ibm", supportedLangs: []string{"en", "uk"}}
	b := backend.NewNotImplementedBackend(svc, core.BackendInfo{ID: "ibm"})

	_, err := b.Translate(context.Background(), backend.TranslateInput{Text: "Hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	ce := err.(*core.Error)
	if ce.Kind != core.KindBackendUnavailable {
		t.Errorf("expected KindBackendUnavailable, got %s", ce.Kind)
	}

	if langs := b.SupportedLanguages(context.Background()); len(langs) != 2 {
		t.Errorf("expected 2 supported languages, got %d", len(langs))
	}

	if b.Info().Status != core.StatusFailed {
		t.Errorf("expected StatusFailed, got %s", b.Info().Status)
	}
}

func TestNotImplementedBackend_UnloadIsNoop(t *testing.T) {
	svc := &fakeService{name: "ibm"}
	b := backend.NewNotImplementedBackend(svc, core.BackendInfo{ID: "ibm"})
	if err := b.Unload(context.Background()); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestSpecializedSeq2Seq_LoadSetsReady(t *testing.T) {
	svc := &fakeService{name: "google"}
	b := backend.NewSpecializedSeq2Seq(svc, translator.ServiceConfig{}, core.BackendInfo{ID: "google"}, nil)
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Info().Status != core.StatusReady {
		t.Errorf("expected StatusReady after Load, got %s", b.Info().Status)
	}
}
