package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/registry"
)

// fakeBackend is a hand-rolled backend.ModelBackend test double.
type fakeBackend struct {
	info      core.BackendInfo
	loadCalls int32
	loadDelay time.Duration
	loadErr   error
	unloadErr error
	mu        sync.Mutex
}

func (f *fakeBackend) Info() core.BackendInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info
}

func (f *fakeBackend) Translate(ctx context.Context, in backend.TranslateInput) (*backend.TranslateOutput, error) {
	return &backend.TranslateOutput{TranslatedText: "x"}, nil
}

func (f *fakeBackend) DetectLanguage(ctx context.Context, text string) (string, error) {
	return core.AutoLang, nil
}

func (f *fakeBackend) SupportedLanguages(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info.SupportedLanguages
}

func (f *fakeBackend) Health(ctx context.Context) error { return nil }

func (f *fakeBackend) Load(ctx context.Context) error {
	atomic.AddInt32(&f.loadCalls, 1)
	if f.loadDelay > 0 {
		time.Sleep(f.loadDelay)
	}
	return f.loadErr
}

func (f *fakeBackend) Unload(ctx context.Context) error {
	return f.unloadErr
}

func newFake(id string, family core.BackendFamily, langs []string) *fakeBackend {
	return &fakeBackend{info: core.BackendInfo{ID: id, Family: family, SupportedLanguages: langs, MemoryClass: core.MemorySmall}}
}

func TestGetOrLoad_LoadsOnFirstUse(t *testing.T) {
	fb := newFake("b1", core.FamilySpecialized, []string{"en", "es"})
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{{ID: "b1", Backend: fb}})

	b, release, err := reg.GetOrLoad(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()
	if b == nil {
		t.Fatal("expected non-nil backend")
	}
	if atomic.LoadInt32(&fb.loadCalls) != 1 {
		t.Errorf("expected exactly 1 load call, got %d", fb.loadCalls)
	}
}

func TestGetOrLoad_UnknownBackend(t *testing.T) {
	reg := registry.New(registry.DefaultConfig(), nil)
	_, _, err := reg.GetOrLoad(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestGetOrLoad_SingleFlight(t *testing.T) {
	// T6: N concurrent GetOrLoad calls on an unloaded backend cause
	// exactly one Load invocation.
	fb := newFake("b1", core.FamilySpecialized, []string{"en"})
	fb.loadDelay = 50 * time.Millisecond
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{{ID: "b1", Backend: fb}})

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, release, err := reg.GetOrLoad(context.Background(), "b1")
			errs[idx] = err
			if release != nil {
				release()
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if got := atomic.LoadInt32(&fb.loadCalls); got != 1 {
		t.Errorf("expected exactly 1 load call across concurrent callers, got %d", got)
	}
}

func TestGetOrLoad_FailureEntersBackoff(t *testing.T) {
	fb := newFake("b1", core.FamilySpecialized, []string{"en"})
	fb.loadErr = errors.New("boom")
	cfg := registry.DefaultConfig()
	cfg.Backoff = registry.Backoff{BaseS: 60, Factor: 2, MaxS: 300}
	reg := registry.New(cfg, []registry.Registration{{ID: "b1", Backend: fb}})

	_, _, err := reg.GetOrLoad(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected error")
	}

	// A second attempt within the backoff window should fail fast
	// without invoking Load again.
	_, _, err = reg.GetOrLoad(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected backoff error on second attempt")
	}
	if atomic.LoadInt32(&fb.loadCalls) != 1 {
		t.Errorf("expected load not retried during backoff, got %d calls", fb.loadCalls)
	}
}

func TestUnload_RefusesBusyBackend(t *testing.T) {
	fb := newFake("b1", core.FamilySpecialized, []string{"en"})
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{{ID: "b1", Backend: fb}})

	_, release, err := reg.GetOrLoad(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := reg.Unload(context.Background(), "b1"); err == nil {
		t.Error("expected unload to be refused while backend is serving")
	}
	release()
}

func TestList_ReflectsStatus(t *testing.T) {
	fb := newFake("b1", core.FamilySpecialized, []string{"en"})
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{{ID: "b1", Backend: fb}})

	list := reg.List()
	if len(list) != 1 || list[0].Status != core.StatusUnloaded {
		t.Fatalf("expected one unloaded backend, got %+v", list)
	}

	_, release, _ := reg.GetOrLoad(context.Background(), "b1")
	defer release()

	list = reg.List()
	if list[0].Status != core.StatusReady {
		t.Errorf("expected ready status, got %s", list[0].Status)
	}
}

func TestSelect_FastPrefersSpecialized(t *testing.T) {
	spec := newFake("spec", core.FamilySpecialized, []string{"en", "es"})
	gen := newFake("gen", core.FamilyGenerative, nil)
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{
		{ID: "spec", Backend: spec},
		{ID: "gen", Backend: gen},
	})

	req := core.TranslationRequest{TargetLang: "es", UserPreference: core.PreferFast}
	id, err := reg.Select(req, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "spec" {
		t.Errorf("expected spec, got %s", id)
	}
}

func TestSelect_QualityPrefersGenerative(t *testing.T) {
	spec := newFake("spec", core.FamilySpecialized, []string{"en", "es"})
	gen := newFake("gen", core.FamilyGenerative, nil)
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{
		{ID: "spec", Backend: spec},
		{ID: "gen", Backend: gen},
	})

	req := core.TranslationRequest{TargetLang: "es", UserPreference: core.PreferQuality, Text: "a long enough text to not hit the short threshold................"}
	id, err := reg.Select(req, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "gen" {
		t.Errorf("expected gen, got %s", id)
	}
}

func TestSelect_FallsOverToGenerativeWhenUnsupported(t *testing.T) {
	// Scenario 5: specialized backend lacks the pair, falls over to generative.
	spec := newFake("spec", core.FamilySpecialized, []string{"en", "es"})
	gen := newFake("gen", core.FamilyGenerative, nil)
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{
		{ID: "spec", Backend: spec},
		{ID: "gen", Backend: gen},
	})

	req := core.TranslationRequest{TargetLang: "yo", ModelPreference: "auto", UserPreference: core.PreferBalanced}
	id, err := reg.Select(req, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "gen" {
		t.Errorf("expected fallback to gen, got %s", id)
	}
}

func TestSelect_ExplicitPreferenceHonored(t *testing.T) {
	spec := newFake("spec", core.FamilySpecialized, []string{"en"})
	reg := registry.New(registry.DefaultConfig(), []registry.Registration{{ID: "spec", Backend: spec}})

	req := core.TranslationRequest{TargetLang: "en", ModelPreference: "spec"}
	id, err := reg.Select(req, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "spec" {
		t.Errorf("expected spec, got %s", id)
	}
}

func TestSelect_UnknownExplicitPreference(t *testing.T) {
	reg := registry.New(registry.DefaultConfig(), nil)
	_, err := reg.Select(core.TranslationRequest{TargetLang: "en", ModelPreference: "ghost"}, 500)
	if err == nil {
		t.Fatal("expected error for unknown explicit backend preference")
	}
}
