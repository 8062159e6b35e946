// Package optimizer implements the Binary-Search Optimizer (C9): a
// bounded probe loop that searches for the chunk size maximizing
// composite translation quality on a piece of text, consulting and
// updating the size cache along the way.
package optimizer

import (
	"context"
	"time"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/cache"
	"github.com/meriley/lingua-nexus/internal/chunker"
	"github.com/meriley/lingua-nexus/internal/chunktranslator"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/quality"
)

// Config bounds the search.
type Config struct {
	MinSize          int
	MaxSize          int
	MaxIterations    int
	QualityThreshold float64
	TimeBudget       time.Duration
}

// DefaultConfig matches spec §4.9: bounds [50, min(2000, len(text))],
// max_iterations 8, acceptable-quality floor 0.7, time budget 5s.
func DefaultConfig(textLen int) Config {
	max := 2000
	if textLen < max {
		max = textLen
	}
	if max < 50 {
		max = 50
	}
	return Config{MinSize: 50, MaxSize: max, MaxIterations: 8, QualityThreshold: 0.7, TimeBudget: 5 * time.Second}
}

// acceptableQuality is the floor above which a larger chunk size (fewer
// backend calls) is preferred over a smaller one during the search.
const acceptableQuality = 0.7

// Result is the outcome of a search.
type Result struct {
	ChunkSize    int
	Quality      float64
	Iterations   int
	FromCache    bool
	ThresholdMet bool
}

// Search runs the binary-search probe loop over chunk size, calling b to
// translate probe chunks and scoring each attempt with the quality
// package. sizeCache is consulted first with the key built from
// contentClass/sourceLang/targetLang/text (Open Question (a)); on hit the
// cached size is returned without probing. The caller-supplied
// qualityThreshold (request-level) takes priority over cfg's default when
// positive.
func Search(ctx context.Context, cfg Config, sizeCache *cache.SizeCache, b backend.ModelBackend, text, sourceLang, targetLang string, contentClass core.ContentClass, qualityThreshold float64) (Result, error) {
	key := cache.SizeCacheKey(contentClass, sourceLang, targetLang, text)
	if sizeCache != nil {
		if e, ok := sizeCache.Get(key); ok {
			return Result{ChunkSize: e.OptimalChunkSize, Quality: e.QualityAtSize, FromCache: true, ThresholdMet: true}, nil
		}
	}

	if qualityThreshold <= 0 {
		qualityThreshold = cfg.QualityThreshold
	}

	lo, hi := cfg.MinSize, cfg.MaxSize
	if hi < lo {
		hi = lo
	}

	bestSize := hi
	bestQuality := -1.0
	thresholdMet := false

	start := time.Now()
	iterations := 0

	for lo <= hi && iterations < cfg.MaxIterations {
		if cfg.TimeBudget > 0 && time.Since(start) > cfg.TimeBudget {
			break
		}
		select {
		case <-ctx.Done():
			return Result{ChunkSize: bestSize, Quality: bestQuality, Iterations: iterations}, ctx.Err()
		default:
		}

		mid := (lo + hi) / 2
		iterations++

		q, err := probe(ctx, b, text, sourceLang, targetLang, mid)
		if err != nil {
			// A failed probe is treated as a low-quality result rather
			// than aborting the search; we still want to try the
			// remaining bracket.
			q = 0
		}

		if q > bestQuality || (q == bestQuality && mid > bestSize) {
			bestQuality = q
			bestSize = mid
		}

		if q >= qualityThreshold {
			thresholdMet = true
			break
		}
		if q >= acceptableQuality {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	if sizeCache != nil {
		sizeCache.Put(key, bestSize, bestQuality)
	}

	return Result{ChunkSize: bestSize, Quality: bestQuality, Iterations: iterations, ThresholdMet: thresholdMet}, nil
}

// probe chunks text at size, translates every chunk, and scores the
// reassembled result against the source.
func probe(ctx context.Context, b backend.ModelBackend, text, sourceLang, targetLang string, size int) (float64, error) {
	chunks := chunker.ChunkText(text, size)
	if len(chunks) == 0 {
		return 0, nil
	}

	res, err := chunktranslator.Translate(ctx, chunktranslator.DefaultConfig(), b, chunks, sourceLang, targetLang, nil)
	if err != nil {
		return 0, err
	}

	m := quality.Score(text, joinTranslations(res.Translations), chunks, res.Translations, nil)
	return m.Composite, nil
}

func joinTranslations(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
