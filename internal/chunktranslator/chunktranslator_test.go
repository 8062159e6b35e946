package chunktranslator_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/chunktranslator"
	"github.com/meriley/lingua-nexus/internal/core"
)

// scriptedBackend returns a deterministic outcome per chunk text, keyed
// by a caller-supplied function, and records the attempt count per text.
type scriptedBackend struct {
	mu          sync.Mutex
	attempts    map[string]int
	outcome     func(text string, attempt int) (string, error)
	maxInFlight int32
	curInFlight int32
}

func (s *scriptedBackend) Info() core.BackendInfo { return core.BackendInfo{ID: "scripted"} }

func (s *scriptedBackend) Translate(ctx context.Context, in backend.TranslateInput) (*backend.TranslateOutput, error) {
	cur := atomic.AddInt32(&s.curInFlight, 1)
	defer atomic.AddInt32(&s.curInFlight, -1)
	for {
		old := atomic.LoadInt32(&s.maxInFlight)
		if cur <= old || atomic.CompareAndSwapInt32(&s.maxInFlight, old, cur) {
			break
		}
	}

	s.mu.Lock()
	s.attempts[in.Text]++
	attempt := s.attempts[in.Text]
	s.mu.Unlock()

	text, err := s.outcome(in.Text, attempt)
	if err != nil {
		return nil, err
	}
	return &backend.TranslateOutput{TranslatedText: text}, nil
}

func (s *scriptedBackend) DetectLanguage(ctx context.Context, text string) (string, error) {
	return core.AutoLang, nil
}
func (s *scriptedBackend) SupportedLanguages(ctx context.Context) []string { return nil }
func (s *scriptedBackend) Health(ctx context.Context) error                { return nil }
func (s *scriptedBackend) Load(ctx context.Context) error                  { return nil }
func (s *scriptedBackend) Unload(ctx context.Context) error                { return nil }

func chunksFor(texts []string) []core.Chunk {
	out := make([]core.Chunk, len(texts))
	pos := 0
	for i, t := range texts {
		out[i] = core.Chunk{Index: i, Text: t, CharRangeFrom: pos, CharRangeTo: pos + len(t)}
		pos += len(t) + 1
	}
	return out
}

func TestTranslate_OrderPreserved(t *testing.T) {
	texts := []string{"one", "two", "three", "four", "five"}
	b := &scriptedBackend{
		attempts: map[string]int{},
		outcome: func(text string, attempt int) (string, error) {
			return strings.ToUpper(text), nil
		},
	}

	res, err := chunktranslator.Translate(context.Background(), chunktranslator.DefaultConfig(), b, chunksFor(texts), "en", "es", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, text := range texts {
		want := strings.ToUpper(text)
		if res.Translations[i] != want {
			t.Errorf("index %d: expected %s, got %s", i, want, res.Translations[i])
		}
	}
}

func TestTranslate_BoundedConcurrency(t *testing.T) {
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk-%d", i)
	}
	b := &scriptedBackend{
		attempts: map[string]int{},
		outcome: func(text string, attempt int) (string, error) {
			time.Sleep(5 * time.Millisecond)
			return text, nil
		},
	}

	cfg := chunktranslator.DefaultConfig()
	cfg.MaxConcurrency = 3
	_, err := chunktranslator.Translate(context.Background(), cfg, b, chunksFor(texts), "en", "es", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.maxInFlight > 3 {
		t.Errorf("expected at most 3 in flight, observed %d", b.maxInFlight)
	}
}

func TestTranslate_TransientErrorRetriesThenSucceeds(t *testing.T) {
	b := &scriptedBackend{
		attempts: map[string]int{},
		outcome: func(text string, attempt int) (string, error) {
			if attempt < 2 {
				return "", core.NewError(core.KindBackendTimeout, "timeout").AsRetryable()
			}
			return "ok", nil
		},
	}

	cfg := chunktranslator.DefaultConfig()
	cfg.Retry.BaseDelay = time.Millisecond
	res, err := chunktranslator.Translate(context.Background(), cfg, b, chunksFor([]string{"hello"}), "en", "es", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translations[0] != "ok" {
		t.Errorf("expected eventual success, got %q", res.Translations[0])
	}
	if res.FailedCount != 0 {
		t.Errorf("expected 0 failed, got %d", res.FailedCount)
	}
}

func TestTranslate_PermanentErrorOnEveryChunkFails(t *testing.T) {
	b := &scriptedBackend{
		attempts: map[string]int{},
		outcome: func(text string, attempt int) (string, error) {
			return "", core.NewError(core.KindBackendInternalError, "fatal")
		},
	}

	res, err := chunktranslator.Translate(context.Background(), chunktranslator.DefaultConfig(), b,
		chunksFor([]string{"a", "b", "c"}), "en", "es", nil)
	// 3/3 failed chunks exceeds the 50% threshold.
	if err == nil {
		t.Fatal("expected ChunkTranslationFailed error when all chunks fail")
	}
	ce := err.(*core.Error)
	if ce.Kind != core.KindChunkTranslationFailed {
		t.Errorf("expected KindChunkTranslationFailed, got %s", ce.Kind)
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
}

func TestTranslate_DegradedPartialFailureStaysUnderThreshold(t *testing.T) {
	// Scenario 6: one transient-exhausted chunk out of five; overall call succeeds.
	b := &scriptedBackend{
		attempts: map[string]int{},
		outcome: func(text string, attempt int) (string, error) {
			if text == "bad" {
				return "", core.NewError(core.KindBackendTimeout, "always times out").AsRetryable()
			}
			return strings.ToUpper(text), nil
		},
	}

	cfg := chunktranslator.DefaultConfig()
	cfg.Retry.BaseDelay = time.Millisecond
	texts := []string{"ok1", "bad", "ok2", "ok3", "ok4"}
	res, err := chunktranslator.Translate(context.Background(), cfg, b, chunksFor(texts), "en", "es", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FailedCount != 1 {
		t.Errorf("expected 1 failed chunk, got %d", res.FailedCount)
	}
	if !strings.Contains(res.Translations[1], "translation-error") {
		t.Errorf("expected inline error marker at index 1, got %q", res.Translations[1])
	}
	for _, i := range []int{0, 2, 3, 4} {
		if strings.Contains(res.Translations[i], "translation-error") {
			t.Errorf("did not expect a marker at index %d", i)
		}
	}
}

func TestTranslate_EmptyChunks(t *testing.T) {
	b := &scriptedBackend{attempts: map[string]int{}, outcome: func(text string, attempt int) (string, error) { return text, nil }}
	res, err := chunktranslator.Translate(context.Background(), chunktranslator.DefaultConfig(), b, nil, "en", "es", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Translations) != 0 {
		t.Errorf("expected no translations, got %d", len(res.Translations))
	}
}

func TestTranslate_PreviousContextPropagated(t *testing.T) {
	var gotContext string
	b := &scriptedBackend{
		attempts: map[string]int{},
		outcome:  func(text string, attempt int) (string, error) { return text, nil },
	}
	// Wrap via a capturing backend to observe PreviousContext.
	capturing := &capturingBackend{inner: b, onTranslate: func(in backend.TranslateInput) { gotContext = in.PreviousContext }}

	_, err := chunktranslator.Translate(context.Background(), chunktranslator.DefaultConfig(), capturing, chunksFor([]string{"only"}), "en", "es",
		func(index int) string { return "prior context" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotContext != "prior context" {
		t.Errorf("expected previous context to propagate, got %q", gotContext)
	}
}

type capturingBackend struct {
	inner       backend.ModelBackend
	onTranslate func(in backend.TranslateInput)
}

func (c *capturingBackend) Info() core.BackendInfo { return c.inner.Info() }
func (c *capturingBackend) Translate(ctx context.Context, in backend.TranslateInput) (*backend.TranslateOutput, error) {
	c.onTranslate(in)
	return c.inner.Translate(ctx, in)
}
func (c *capturingBackend) DetectLanguage(ctx context.Context, text string) (string, error) {
	return c.inner.DetectLanguage(ctx, text)
}
func (c *capturingBackend) SupportedLanguages(ctx context.Context) []string {
	return c.inner.SupportedLanguages(ctx)
}
func (c *capturingBackend) Health(ctx context.Context) error { return c.inner.Health(ctx) }
func (c *capturingBackend) Load(ctx context.Context) error   { return c.inner.Load(ctx) }
func (c *capturingBackend) Unload(ctx context.Context) error { return c.inner.Unload(ctx) }
