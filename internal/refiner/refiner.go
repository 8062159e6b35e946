// Package refiner implements Stage 2 of the two-pass translation pipeline.
// It takes a draft translation and refines it for literary quality using an LLM.
package refiner

import (
	"context"

	"github.com/meriley/lingua-nexus/internal/core"
)

// Refiner reviews and improves a draft translation for literary quality.
type Refiner interface {
	Refine(ctx context.Context, sourceLang, targetLang, sourceText, draftText string) (string, error)
}

// RefineResult runs r over draft.TranslatedText and returns a copy of draft
// with TranslatedText replaced by the refined text. On failure it returns
// draft unchanged alongside the error, so callers can fall back to the
// draft translation without losing the rest of the result fields.
func RefineResult(ctx context.Context, r Refiner, sourceLang, targetLang string, req core.TranslationRequest, draft core.TranslationResult) (core.TranslationResult, error) {
	refined, err := r.Refine(ctx, sourceLang, targetLang, req.Text, draft.TranslatedText)
	if err != nil {
		return draft, err
	}
	draft.TranslatedText = refined
	return draft, nil
}
