// Package scriptdetect implements a fast, deterministic, model-free
// fallback language detector based on Unicode script block counting. It
// backs C2 of the adaptive translation core: authoritative detection may
// be provided by a backend's DetectLanguage capability, but this package
// gives the controller a zero-dependency fallback with no suspension
// points.
package scriptdetect

import "unicode"

// DefaultThreshold is the minimum share of alphabetic characters a script
// must hold to be declared dominant.
const DefaultThreshold = 0.5

// scriptDefaultLang maps a dominant Unicode script to its most common
// associated public language code. This is necessarily a simplification —
// Cyrillic could be Russian, Ukrainian, Bulgarian, etc. — but it gives a
// stable, documented default for the auto-source fallback path.
var scriptDefaultLang = map[string]string{
	"Latin":      "en",
	"Cyrillic":   "ru",
	"Arabic":     "ar",
	"Devanagari": "hi",
	"Han":        "zh",
	"Hiragana":   "ja",
	"Katakana":   "ja",
	"Hangul":     "ko",
}

// scripts lists the Unicode range tables checked, in the order counted.
var scripts = []struct {
	name  string
	table *unicode.RangeTable
}{
	{"Latin", unicode.Latin},
	{"Cyrillic", unicode.Cyrillic},
	{"Arabic", unicode.Arabic},
	{"Devanagari", unicode.Devanagari},
	{"Han", unicode.Han},
	{"Hiragana", unicode.Hiragana},
	{"Katakana", unicode.Katakana},
	{"Hangul", unicode.Hangul},
}

// Unknown is returned when no script reaches the dominance threshold.
const Unknown = "unknown"

// Detect returns the default public language code for the dominant script
// in text, or Unknown if no script's share of alphabetic characters meets
// threshold (pass <= 0 for DefaultThreshold). Detect is O(n), allocates no
// more than a small per-script counter map, and never suspends.
func Detect(text string, threshold float64) string {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if text == "" {
		return Unknown
	}

	counts := make(map[string]int, len(scripts))
	total := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		for _, sc := range scripts {
			if unicode.Is(sc.table, r) {
				counts[sc.name]++
				break
			}
		}
	}

	if total == 0 {
		return Unknown
	}

	bestName := ""
	bestCount := 0
	for _, sc := range scripts {
		if c := counts[sc.name]; c > bestCount {
			bestCount = c
			bestName = sc.name
		}
	}

	if bestName == "" || float64(bestCount)/float64(total) < threshold {
		return Unknown
	}

	lang, ok := scriptDefaultLang[bestName]
	if !ok {
		return Unknown
	}
	return lang
}
