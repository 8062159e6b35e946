package glossary_test

import (
	"context"
	"testing"

	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/glossary"
	"github.com/meriley/lingua-nexus/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApply_NilResolverIsNoop(t *testing.T) {
	req := core.TranslationRequest{Text: "hello", SourceLang: "en", TargetLang: "es"}
	if err := glossary.Apply(context.Background(), nil, &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.GlossaryTerms != nil {
		t.Fatalf("expected no glossary terms, got %v", req.GlossaryTerms)
	}
}

func TestApply_ExplicitTermsNotOverwritten(t *testing.T) {
	s := newTestStore(t)
	if err := glossary.Add(context.Background(), s, "en", "es", "hello", "bonjour"); err != nil {
		t.Fatal(err)
	}

	explicit := map[string]string{"world": "monde"}
	req := core.TranslationRequest{Text: "hello world", SourceLang: "en", TargetLang: "es", GlossaryTerms: explicit}
	if err := glossary.Apply(context.Background(), s, &req); err != nil {
		t.Fatal(err)
	}
	if len(req.GlossaryTerms) != 1 || req.GlossaryTerms["world"] != "monde" {
		t.Fatalf("expected explicit terms preserved, got %v", req.GlossaryTerms)
	}
}

func TestApply_InjectsStoredTerms(t *testing.T) {
	s := newTestStore(t)
	if err := glossary.Add(context.Background(), s, "en", "es", "hello", "bonjour"); err != nil {
		t.Fatal(err)
	}

	req := core.TranslationRequest{Text: "hello world", SourceLang: "en", TargetLang: "es"}
	if err := glossary.Apply(context.Background(), s, &req); err != nil {
		t.Fatal(err)
	}
	if req.GlossaryTerms["hello"] != "bonjour" {
		t.Fatalf("expected stored glossary term injected, got %v", req.GlossaryTerms)
	}
}

func TestListAndDelete(t *testing.T) {
	s := newTestStore(t)
	if err := glossary.Add(context.Background(), s, "en", "fr", "cat", "chat"); err != nil {
		t.Fatal(err)
	}

	entries, err := glossary.List(context.Background(), s, "en", "fr")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if err := glossary.Delete(context.Background(), s, entries[0].ID); err != nil {
		t.Fatal(err)
	}
	entries, err = glossary.List(context.Background(), s, "en", "fr")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected entry deleted, got %d remaining", len(entries))
	}
}
