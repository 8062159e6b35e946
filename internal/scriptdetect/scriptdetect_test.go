package scriptdetect_test

import (
	"testing"

	"github.com/meriley/lingua-nexus/internal/scriptdetect"
)

func TestDetect_Latin(t *testing.T) {
	if got := scriptdetect.Detect("Hello, this is clearly an English sentence.", 0); got != "en" {
		t.Errorf("expected en, got %s", got)
	}
}

func TestDetect_Cyrillic(t *testing.T) {
	if got := scriptdetect.Detect("Привет, как дела сегодня?", 0); got != "ru" {
		t.Errorf("expected ru, got %s", got)
	}
}

func TestDetect_Han(t *testing.T) {
	if got := scriptdetect.Detect("你好，今天天气怎么样？", 0); got != "zh" {
		t.Errorf("expected zh, got %s", got)
	}
}

func TestDetect_Empty(t *testing.T) {
	if got := scriptdetect.Detect("", 0); got != scriptdetect.Unknown {
		t.Errorf("expected unknown, got %s", got)
	}
}

func TestDetect_NoLetters(t *testing.T) {
	if got := scriptdetect.Detect("12345 !@#$%", 0); got != scriptdetect.Unknown {
		t.Errorf("expected unknown, got %s", got)
	}
}

func TestDetect_MixedBelowThreshold(t *testing.T) {
	// Roughly half Latin, half Cyrillic — neither should clear a 0.9 threshold.
	if got := scriptdetect.Detect("Hello Привет Hello Привет", 0.9); got != scriptdetect.Unknown {
		t.Errorf("expected unknown under a high threshold, got %s", got)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	text := "This sentence is repeated to check determinism."
	a := scriptdetect.Detect(text, 0)
	b := scriptdetect.Detect(text, 0)
	if a != b {
		t.Errorf("expected deterministic result, got %s then %s", a, b)
	}
}
