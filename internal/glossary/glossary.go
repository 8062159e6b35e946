// Package glossary resolves user-defined terminology for a language pair
// and injects it into a TranslationRequest, so generative backends can be
// prompted with required term translations (SPEC_FULL.md §9
// "Glossary-guided translation"). CRUD itself stays in the teacher's
// internal/store (SQLite-backed, shared with translation memory); this
// package is the domain-facing adapter the controller and httpapi call
// instead of reaching into store.Store directly.
package glossary

import (
	"context"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/store"
)

// Resolver looks up glossary terms by language pair. Backed by
// *store.Store in production; an interface here so the controller can be
// tested without a database (see SPEC_FULL.md §9; the SQLite layer is
// store.Store's existing glossary table).
type Resolver interface {
	GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error)
}

// Apply populates req.GlossaryTerms from the resolver when the caller did
// not already supply explicit terms, leaving an explicit
// TranslationRequest.GlossaryTerms untouched (callers opting into inline
// terms take precedence over the stored glossary).
func Apply(ctx context.Context, r Resolver, req *core.TranslationRequest) error {
	if r == nil || len(req.GlossaryTerms) > 0 {
		return nil
	}
	terms, err := r.GetGlossaryTerms(ctx, req.SourceLang, req.TargetLang)
	if err != nil {
		return err
	}
	if len(terms) > 0 {
		req.GlossaryTerms = terms
	}
	return nil
}

// Add inserts or replaces a glossary entry. Thin pass-through kept so
// httpapi and cmd/glossary.go share one call surface instead of reaching
// into store.Store's SQL layer directly.
func Add(ctx context.Context, s *store.Store, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	return s.AddGlossaryTerm(ctx, sourceLang, targetLang, sourceTerm, targetTerm)
}

// List returns glossary entries, optionally filtered by language pair.
func List(ctx context.Context, s *store.Store, sourceLang, targetLang string) ([]store.GlossaryEntry, error) {
	return s.ListGlossaryTerms(ctx, sourceLang, targetLang)
}

// Delete removes a glossary entry by ID.
func Delete(ctx context.Context, s *store.Store, id string) error {
	return s.DeleteGlossaryTerm(ctx, id)
}
