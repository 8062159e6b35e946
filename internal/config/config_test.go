package config_test

import (
	"testing"

	"github.com/meriley/lingua-nexus/internal/config"
	"github.com/meriley/lingua-nexus/internal/detector"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("/nonexistent/path/that/does/not/exist.yaml")
	if err != nil {
		t.Fatalf("unexpected error loading defaults: %v", err)
	}
	if cfg.Request.HardTextCap != 10_000 {
		t.Errorf("expected hard_text_cap default 10000, got %d", cfg.Request.HardTextCap)
	}
	if cfg.Chunker.DefaultMaxChunkSize != 500 {
		t.Errorf("expected default_max_chunk_size 500, got %d", cfg.Chunker.DefaultMaxChunkSize)
	}
	if cfg.Optimizer.QualityThreshold != 0.85 {
		t.Errorf("expected quality_threshold 0.85, got %v", cfg.Optimizer.QualityThreshold)
	}
	if cfg.Registry.MemoryBudgetMB != 24576 {
		t.Errorf("expected memory_budget_mb 24576, got %d", cfg.Registry.MemoryBudgetMB)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected server addr :8080, got %q", cfg.Server.Addr)
	}
}

func TestBuildRegistrations_UnknownProvider(t *testing.T) {
	_, err := config.BuildRegistrations([]config.BackendConfig{
		{ID: "x", Family: "generative", Provider: "not-a-real-provider"},
	}, detector.New())
	if err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestBuildRegistrations_UnknownFamily(t *testing.T) {
	_, err := config.BuildRegistrations([]config.BackendConfig{
		{ID: "x", Family: "quantum", Provider: "google"},
	}, detector.New())
	if err == nil {
		t.Fatal("expected an error for an unknown family")
	}
}

func TestBuildRegistrations_SpecializedGoogle(t *testing.T) {
	regs, err := config.BuildRegistrations([]config.BackendConfig{
		{ID: "google-1", Family: "specialized", Provider: "google", SupportedLanguages: []string{"en", "es"}, MemoryClass: "small"},
	}, detector.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regs) != 1 || regs[0].ID != "google-1" {
		t.Fatalf("expected one registration for google-1, got %+v", regs)
	}
	info := regs[0].Backend.Info()
	if info.Family != "specialized" {
		t.Errorf("expected specialized family, got %q", info.Family)
	}
}
