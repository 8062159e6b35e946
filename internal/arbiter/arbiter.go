package arbiter

import (
	"context"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/translator"
)

type EvaluationResult struct {
	SelectedService string
	CompositeText   string
	IsComposite     bool
	Reasoning       string
}

type Arbiter interface {
	Evaluate(ctx context.Context, source string, sourceLang, targetLang string, results []translator.ServiceResult) (*EvaluationResult, error)
}

// SelectResult runs an Arbiter over the candidate service results for req and
// returns the chosen translation as a core.TranslationResult alongside the
// raw EvaluationResult. Callers that only care about the winning text can
// ignore the second return value.
func SelectResult(ctx context.Context, a Arbiter, req core.TranslationRequest, results []translator.ServiceResult) (core.TranslationResult, EvaluationResult, error) {
	eval, err := a.Evaluate(ctx, req.Text, req.SourceLang, req.TargetLang, results)
	if err != nil {
		return core.TranslationResult{}, EvaluationResult{}, err
	}
	res := core.TranslationResult{
		TranslatedText:     eval.CompositeText,
		DetectedSourceLang: req.SourceLang,
		BackendUsed:        eval.SelectedService,
	}
	return res, *eval, nil
}
