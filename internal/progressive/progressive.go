// Package progressive implements the Progressive Emitter (C11): an
// ordered event stream over a chunk-translation fan-out, applying
// cooperative backpressure into the admission semaphore when the
// consumer falls behind.
package progressive

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/chunktranslator"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/quality"
)

// EventType discriminates the members of the event stream.
type EventType string

const (
	EventPlanReady  EventType = "plan_ready"
	EventChunkReady EventType = "chunk_ready"
	EventCompleted  EventType = "completed"
	EventFailed     EventType = "failed"
)

// Event is one entry of the ordered stream. Only the fields relevant to
// Type are populated.
type Event struct {
	Type       EventType
	ChunkCount int
	Index      int
	Text       string
	Quality    *float64
	Result     *core.TranslationResult
	Err        error
}

// DefaultBufferSize is the default bounded event queue depth (spec §4.11).
const DefaultBufferSize = 64

// Params describes the fixed fields of the TranslationResult the final
// Completed event carries; the mode decision (direct/semantic/
// optimized) is made by the caller before starting the stream.
type Params struct {
	BackendID  string
	Method     core.Method
	ChunkSize  int
	SourceLang string
}

// Stream fans chunks out to b exactly as chunktranslator.Translate does,
// but emits a PlanReady event immediately, one ChunkReady event per
// completed chunk (in completion order, each tagged with its index),
// and a terminal Completed or Failed event. bufferSize bounds the event
// channel; once full, a send blocks until the consumer drains it, which
// in turn delays releasing the admission semaphore — cooperative
// backpressure into C7's fan-out.
func Stream(ctx context.Context, cfg chunktranslator.Config, b backend.ModelBackend, chunks []core.Chunk, sourceLang, targetLang string, previousContext func(index int) string, params Params, bufferSize int) <-chan Event {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	events := make(chan Event, bufferSize)

	go func() {
		defer close(events)

		events <- Event{Type: EventPlanReady, ChunkCount: len(chunks)}

		if len(chunks) == 0 {
			res := &core.TranslationResult{Method: params.Method, BackendUsed: params.BackendID, ChunkCount: 0}
			events <- Event{Type: EventCompleted, Result: res}
			return
		}

		if cfg.MaxConcurrency <= 0 {
			cfg.MaxConcurrency = 1
		}

		out := make([]string, len(chunks))
		failed := make([]bool, len(chunks))
		sem := semaphore.NewWeighted(int64(cfg.MaxConcurrency))

		var wg sync.WaitGroup
		for i, chunk := range chunks {
			if err := sem.Acquire(ctx, 1); err != nil {
				for j := i; j < len(chunks); j++ {
					failed[j] = true
				}
				break
			}

			wg.Add(1)
			go func(idx int, c core.Chunk) {
				defer wg.Done()
				defer sem.Release(1)

				var ctxWord string
				if previousContext != nil {
					ctxWord = previousContext(idx)
				}

				text, ok := chunktranslator.TranslateOneWithRetryConfig(ctx, cfg, b, c.Text, sourceLang, targetLang, ctxWord)
				out[idx] = text
				failed[idx] = !ok

				var q *float64
				if ok {
					m := quality.Score(c.Text, text, nil, nil, nil)
					score := m.Composite
					q = &score
				}
				// Backpressure: this send blocks until the consumer drains
				// the buffer, holding the semaphore slot open meanwhile.
				events <- Event{Type: EventChunkReady, Index: idx, Text: text, Quality: q}
			}(i, chunk)
		}
		wg.Wait()

		failedCount := 0
		for _, f := range failed {
			if f {
				failedCount++
			}
		}
		if failedCount*2 > len(chunks) {
			err := core.NewError(core.KindChunkTranslationFailed, "too many chunks failed translation")
			if ctx.Err() != nil {
				// The fan-out was cut short by the request deadline, not by
				// the backend; already-emitted ChunkReady events stay valid.
				err = core.Wrap(core.KindDeadlineExceeded, "request deadline exceeded mid-stream", ctx.Err())
			}
			events <- Event{Type: EventFailed, Err: err}
			return
		}

		translated := strings.TrimSpace(strings.Join(out, " "))
		m := quality.Score(joinChunkSources(chunks), translated, chunks, out, nil)
		score := m.Composite

		events <- Event{Type: EventCompleted, Result: &core.TranslationResult{
			TranslatedText:     translated,
			DetectedSourceLang: params.SourceLang,
			BackendUsed:        params.BackendID,
			Method:             params.Method,
			ChunkCount:         len(chunks),
			ChunkSize:          params.ChunkSize,
			QualityScore:       &score,
			QualityGrade:       core.GradeFor(score),
		}}
	}()

	return events
}

func joinChunkSources(chunks []core.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}
