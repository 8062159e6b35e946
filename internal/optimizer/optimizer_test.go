package optimizer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/cache"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/optimizer"
)

// echoBackend is a fake backend whose translation quality
// (approximated by echoing the input unchanged, which scores perfectly
// against itself) is uniform; it is used to drive the search's
// termination behavior rather than its scoring behavior.
type echoBackend struct {
	calls int
}

func (e *echoBackend) Info() core.BackendInfo { return core.BackendInfo{ID: "echo"} }
func (e *echoBackend) Translate(ctx context.Context, in backend.TranslateInput) (*backend.TranslateOutput, error) {
	e.calls++
	return &backend.TranslateOutput{TranslatedText: in.Text}, nil
}
func (e *echoBackend) DetectLanguage(ctx context.Context, text string) (string, error) {
	return core.AutoLang, nil
}
func (e *echoBackend) SupportedLanguages(ctx context.Context) []string { return nil }
func (e *echoBackend) Health(ctx context.Context) error                { return nil }
func (e *echoBackend) Load(ctx context.Context) error                  { return nil }
func (e *echoBackend) Unload(ctx context.Context) error                { return nil }

func TestSearch_TerminatesWithinMaxIterations(t *testing.T) {
	text := strings.Repeat("This is a sentence. ", 40)
	b := &echoBackend{}
	cfg := optimizer.DefaultConfig(len(text))

	res, err := optimizer.Search(context.Background(), cfg, nil, b, text, "en", "es", core.ContentProse, 0.99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Iterations > cfg.MaxIterations {
		t.Errorf("expected at most %d iterations, got %d", cfg.MaxIterations, res.Iterations)
	}
	if res.ChunkSize < cfg.MinSize || res.ChunkSize > cfg.MaxSize {
		t.Errorf("expected chunk size within [%d,%d], got %d", cfg.MinSize, cfg.MaxSize, res.ChunkSize)
	}
}

func TestSearch_EchoBackendHitsThreshold(t *testing.T) {
	text := strings.Repeat("Hello there friend. ", 30)
	b := &echoBackend{}
	cfg := optimizer.DefaultConfig(len(text))

	res, err := optimizer.Search(context.Background(), cfg, nil, b, text, "en", "es", core.ContentProse, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ThresholdMet {
		t.Error("expected an echo backend (near-perfect quality) to meet a low threshold")
	}
}

func TestSearch_CacheHitSkipsProbing(t *testing.T) {
	text := "a short probe text for caching"
	sc := cache.NewSizeCache(cache.NewLRU(10), time.Hour)
	key := cache.SizeCacheKey(core.ContentProse, "en", "es", text)
	sc.Put(key, 321, 0.92)

	b := &echoBackend{}
	cfg := optimizer.DefaultConfig(len(text))
	res, err := optimizer.Search(context.Background(), cfg, sc, b, text, "en", "es", core.ContentProse, 0.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FromCache {
		t.Fatal("expected cache hit")
	}
	if res.ChunkSize != 321 {
		t.Errorf("expected cached chunk size 321, got %d", res.ChunkSize)
	}
	if b.calls != 0 {
		t.Errorf("expected no backend calls on cache hit, got %d", b.calls)
	}
}

func TestSearch_WritesBackToCacheOnCompletion(t *testing.T) {
	text := strings.Repeat("Another sentence here. ", 20)
	sc := cache.NewSizeCache(cache.NewLRU(10), time.Hour)
	b := &echoBackend{}
	cfg := optimizer.DefaultConfig(len(text))

	_, err := optimizer.Search(context.Background(), cfg, sc, b, text, "en", "es", core.ContentProse, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := cache.SizeCacheKey(core.ContentProse, "en", "es", text)
	if _, ok := sc.Get(key); !ok {
		t.Error("expected best size to be written back to cache")
	}
}

func TestSearch_RespectsContextCancellation(t *testing.T) {
	text := strings.Repeat("Sentence. ", 50)
	b := &echoBackend{}
	cfg := optimizer.DefaultConfig(len(text))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := optimizer.Search(ctx, cfg, nil, b, text, "en", "es", core.ContentProse, 0.99)
	if err == nil {
		t.Error("expected cancellation to surface as an error")
	}
}
