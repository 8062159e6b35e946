// Package quality implements the adaptive core's composite translation
// quality scorer (C4): a deterministic, cheap set of sub-metrics — length
// consistency, structure integrity, entity preservation, boundary
// coherence, and an optional backend confidence pass-through — combined
// into a single composite score. The scorer intentionally avoids an
// embedding-based model so that optimizer convergence (T2, T8) stays
// reproducible; see DESIGN.md.
package quality

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/meriley/lingua-nexus/internal/core"
)

// Fixed composite weights (sum to 1), per spec.md §4.4.
const (
	weightConfidence = 0.30
	weightLength     = 0.20
	weightStructure  = 0.20
	weightEntity     = 0.20
	weightBoundary   = 0.10
)

var (
	dateRe          = regexp.MustCompile(`\d{1,2}[./]\d{1,2}[./]\d{2,4}`)
	numberRe        = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	artifactTokens  = []string{"[UNK]", "<unk>", "???"}
)

// Score computes the QualityMetrics for a (source, translation) pair. When
// chunks is non-empty, boundary coherence is scored across the given
// per-chunk translations (chunkTranslations, same order/length as chunks);
// otherwise boundary coherence defaults to 1. confidence is the backend's
// own log-prob-derived score if it provided one, squashed to [0,1]; pass a
// nil pointer for "no backend confidence" (treated as neutral 0.5).
func Score(source, translation string, chunks []core.Chunk, chunkTranslations []string, confidence *float64) core.QualityMetrics {
	m := core.QualityMetrics{
		Confidence:         squashConfidence(confidence),
		LengthConsistency:  lengthConsistency(source, translation),
		StructureIntegrity: structureIntegrity(source, translation),
		EntityPreservation: entityPreservation(source, translation),
		BoundaryCoherence:  boundaryCoherence(chunks, chunkTranslations),
	}
	m.Composite = weightConfidence*m.Confidence +
		weightLength*m.LengthConsistency +
		weightStructure*m.StructureIntegrity +
		weightEntity*m.EntityPreservation +
		weightBoundary*m.BoundaryCoherence
	return m
}

// squashConfidence maps a raw backend confidence through a monotonic
// squash to [0,1]. A nil confidence (backend provided none) is neutral.
func squashConfidence(confidence *float64) float64 {
	if confidence == nil {
		return 0.5
	}
	c := *confidence
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c
}

// lengthConsistency scores the translation/source length ratio: 1.0 within
// [0.8, 1.5], 0.0 outside [0.3, 3.0], linear in between (T3).
func lengthConsistency(source, translation string) float64 {
	sl := len([]rune(strings.TrimSpace(source)))
	tl := len([]rune(strings.TrimSpace(translation)))
	if sl == 0 {
		if tl == 0 {
			return 1.0
		}
		return 0.0
	}
	r := float64(tl) / float64(sl)

	switch {
	case r >= 0.8 && r <= 1.5:
		return 1.0
	case r < 0.3 || r > 3.0:
		return 0.0
	case r < 0.8:
		// Linear from 0.0 at r=0.3 to 1.0 at r=0.8.
		return (r - 0.3) / (0.8 - 0.3)
	default:
		// Linear from 1.0 at r=1.5 to 0.0 at r=3.0.
		return 1.0 - (r-1.5)/(3.0-1.5)
	}
}

// structureIntegrity starts at 1.0 and subtracts penalties for truncated
// sentences, repeated 3-grams not present in the source, and known
// artifact tokens, floored at 0.
func structureIntegrity(source, translation string) float64 {
	score := 1.0

	sentences := splitRoughSentences(translation)
	for i, s := range sentences {
		if i == len(sentences)-1 {
			continue // the last sentence may legitimately lack a terminator
		}
		if !endsWithTerminator(s) {
			score -= 0.1
		}
	}

	for _, gram := range repeatedTrigrams(translation, 3) {
		if countOccurrences(source, gram) <= 1 {
			score -= 0.05
		}
	}

	for _, tok := range artifactTokens {
		if strings.Contains(translation, tok) {
			score -= 0.1
		}
	}

	if score < 0 {
		score = 0
	}
	return score
}

func endsWithTerminator(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	last := []rune(s)[len([]rune(s))-1]
	return last == '.' || last == '!' || last == '?' || last == '"' || last == '”'
}

func splitRoughSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, cur.String())
	}
	return out
}

// repeatedTrigrams returns word 3-grams occurring more than threshold
// times in text.
func repeatedTrigrams(text string, threshold int) []string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 3 {
		return nil
	}
	counts := make(map[string]int)
	for i := 0; i+3 <= len(words); i++ {
		gram := strings.Join(words[i:i+3], " ")
		counts[gram]++
	}
	var out []string
	for gram, c := range counts {
		if c > threshold {
			out = append(out, gram)
		}
	}
	return out
}

func countOccurrences(text, substr string) int {
	if substr == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(substr))
}

// entityPreservation extracts numbers, dates, and capitalized
// non-sentence-initial tokens from source and scores the fraction whose
// surface form appears in translation. A source with no entities scores 1.
func entityPreservation(source, translation string) float64 {
	entities := extractEntities(source)
	if len(entities) == 0 {
		return 1.0
	}
	found := 0
	for _, e := range entities {
		if strings.Contains(translation, e) {
			found++
		}
	}
	return float64(found) / float64(len(entities))
}

func extractEntities(source string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, m := range dateRe.FindAllString(source, -1) {
		add(m)
	}
	for _, m := range numberRe.FindAllString(source, -1) {
		add(m)
	}

	words := strings.Fields(source)
	sentenceStart := true
	for _, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if trimmed == "" {
			continue
		}
		isCapitalized := unicode.IsUpper([]rune(trimmed)[0])
		if isCapitalized && !sentenceStart {
			add(trimmed)
		}
		sentenceStart = endsWithTerminator(w)
	}

	return out
}

// boundaryCoherence scores 1 minus 0.1 per chunk join where the following
// chunk's translation starts lower-case and the preceding chunk's
// translation ends without a terminator, floored at 0. Returns 1 when no
// chunks were used.
func boundaryCoherence(chunks []core.Chunk, chunkTranslations []string) float64 {
	if len(chunks) == 0 || len(chunkTranslations) != len(chunks) || len(chunks) < 2 {
		return 1.0
	}

	badJoins := 0
	for i := 1; i < len(chunkTranslations); i++ {
		prev := strings.TrimSpace(chunkTranslations[i-1])
		cur := strings.TrimSpace(chunkTranslations[i])
		if cur == "" || prev == "" {
			continue
		}
		firstRune := []rune(cur)[0]
		if unicode.IsLower(firstRune) && !endsWithTerminator(prev) {
			badJoins++
		}
	}

	score := 1.0 - 0.1*float64(badJoins)
	return math.Max(score, 0)
}
