// Package chunker splits large texts into translatable chunks while
// preserving sentence and paragraph integrity. It also extracts a
// sliding-window context snippet (last N words) for use with LLM
// translators to maintain continuity across chunk boundaries.
//
// Chunk (paragraph -> sentence -> whitespace -> hard cut) is the simple
// splitter used by the CLI's one-shot translate path. ChunkText implements
// the adaptive core's sentence -> clause -> word hierarchy (C3), tagging
// each piece with its position for reassembly and scoring.
package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/meriley/lingua-nexus/internal/core"
)

const (
	// DefaultContextWords is the default number of words extracted by
	// ExtractContext for use as a sliding-window context.
	DefaultContextWords = 25
)

// Chunk splits text into pieces each no longer than maxChars unicode
// code points. Splits are attempted (in order of preference) at:
//  1. Paragraph boundaries (\n\n or \r\n\r\n)
//  2. Sentence-ending punctuation (. ! ?)
//  3. Whitespace (word boundary)
//  4. Hard cut at maxChars if no suitable boundary is found
//
// If text fits entirely within maxChars, a single-element slice is returned.
// If maxChars ≤ 0 it is treated as unlimited (returns the whole text).
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for len([]rune(remaining)) > maxChars {
		split := findSplit(remaining, maxChars)
		chunk := strings.TrimSpace(remaining[:split])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = strings.TrimSpace(remaining[split:])
	}

	if strings.TrimSpace(remaining) != "" {
		chunks = append(chunks, strings.TrimSpace(remaining))
	}

	return chunks
}

// findSplit returns the byte index within text at which to split, aiming for
// at most maxChars runes. It searches backwards from maxChars for the best
// split boundary.
func findSplit(text string, maxChars int) int {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return len(text)
	}

	// Work with the candidate prefix (runes[:maxChars]).
	// Convert back to byte offset for the split boundary.
	candidate := string(runes[:maxChars])

	// 1. Paragraph boundary — search backwards in candidate.
	if idx := lastIndex(candidate, "\n\n"); idx > 0 {
		return idx + 2 // include the blank line in the consumed part
	}
	if idx := lastIndex(candidate, "\r\n\r\n"); idx > 0 {
		return idx + 4
	}

	// 2. Sentence-ending punctuation followed by a space.
	for i := len([]rune(candidate)) - 1; i > 0; i-- {
		r := []rune(candidate)[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len([]rune(candidate)) {
			next := []rune(candidate)[i+1]
			if unicode.IsSpace(next) {
				byteOffset := len(string([]rune(candidate)[:i+1]))
				return byteOffset
			}
		}
	}

	// 3. Whitespace word boundary.
	for i := len([]rune(candidate)) - 1; i > 0; i-- {
		if unicode.IsSpace([]rune(candidate)[i]) {
			byteOffset := len(string([]rune(candidate)[:i]))
			return byteOffset
		}
	}

	// 4. Hard cut.
	return len(candidate)
}

// lastIndex returns the last byte index of substr within s, or -1 if not found.
func lastIndex(s, substr string) int {
	idx := -1
	start := 0
	for {
		i := strings.Index(s[start:], substr)
		if i == -1 {
			break
		}
		idx = start + i
		start = idx + 1
	}
	return idx
}

// ExtractContext returns the last wordCount words of text, joined by a single
// space. It is intended for use as a sliding-window context snippet passed to
// LLM translators so they can maintain narrative continuity across chunks.
// If text has fewer words than wordCount, the entire text is returned.
// If wordCount ≤ 0, DefaultContextWords is used.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}

// --- C3: sentence -> clause -> word hierarchy for the adaptive core ---

// sentenceEndRe matches a sentence terminator (. ! ?) optionally followed
// by a single closing quote, then whitespace or end of string. The
// terminator (and any closing quote) stays attached to the preceding
// sentence.
var sentenceEndRe = regexp.MustCompile(`[.!?]['"\x{2019}\x{201D}]?(\s+|$)`)

// clauseSepRe matches clause-level separators: semicolon, colon, comma,
// em dash, en dash, hyphen.
var clauseSepRe = regexp.MustCompile(`[;:,—–-]\s*`)

// ChunkText splits text into core.Chunk pieces, each no longer than
// maxChunkSize runes unless a single word exceeds it (chunker invariant,
// T1). Splitting is attempted, in order, at sentence boundaries, then
// clause boundaries for any sentence still too long, then whitespace word
// boundaries for any clause still too long. If text already fits within
// maxChunkSize (or maxChunkSize <= 0), a single chunk is returned.
func ChunkText(text string, maxChunkSize int) []core.Chunk {
	if maxChunkSize <= 0 || len([]rune(text)) <= maxChunkSize {
		t := strings.TrimSpace(text)
		if t == "" {
			return nil
		}
		return []core.Chunk{{Index: 0, Text: t, CharRangeFrom: 0, CharRangeTo: len([]rune(t))}}
	}

	var pieces []string
	for _, sentence := range splitSentences(text) {
		if len([]rune(sentence)) <= maxChunkSize {
			pieces = append(pieces, sentence)
			continue
		}
		for _, clause := range splitClauses(sentence) {
			if len([]rune(clause)) <= maxChunkSize {
				pieces = append(pieces, clause)
				continue
			}
			pieces = append(pieces, splitWords(clause, maxChunkSize)...)
		}
	}

	packed := pack(pieces, maxChunkSize)

	out := make([]core.Chunk, 0, len(packed))
	pos := 0
	for _, c := range packed {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		from := pos
		to := from + len([]rune(c))
		out = append(out, core.Chunk{Index: len(out), Text: c, CharRangeFrom: from, CharRangeTo: to})
		pos = to + 1 // account for the single joining space, per I2
	}
	return out
}

// pack greedily accumulates sentence/clause/word pieces into chunks whose
// cumulative rune length stays at or below maxChunkSize, joining pieces
// with a single space. A piece longer than maxChunkSize (a lone oversized
// word) becomes its own chunk.
func pack(pieces []string, maxChunkSize int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pLen := len([]rune(p))
		if pLen > maxChunkSize {
			flush()
			chunks = append(chunks, p)
			continue
		}
		sep := 0
		if curLen > 0 {
			sep = 1
		}
		if curLen+sep+pLen > maxChunkSize {
			flush()
			cur.WriteString(p)
			curLen = pLen
			continue
		}
		if curLen > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(p)
		curLen += sep + pLen
	}
	flush()
	return chunks
}

// splitSentences splits text on sentence terminators, keeping the
// terminator attached to the preceding sentence.
func splitSentences(text string) []string {
	locs := sentenceEndRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var out []string
	start := 0
	for _, loc := range locs {
		out = append(out, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// splitClauses splits a sentence on clause separators, keeping the
// separator attached to the preceding clause.
func splitClauses(sentence string) []string {
	locs := clauseSepRe.FindAllStringIndex(sentence, -1)
	if len(locs) == 0 {
		return []string{sentence}
	}
	var out []string
	start := 0
	for _, loc := range locs {
		out = append(out, sentence[start:loc[1]])
		start = loc[1]
	}
	if start < len(sentence) {
		out = append(out, sentence[start:])
	}
	return out
}

// splitWords splits a clause on whitespace, greedily packing words into
// chunks of at most maxChunkSize runes; a single word longer than
// maxChunkSize becomes its own chunk rather than being split mid-word.
func splitWords(clause string, maxChunkSize int) []string {
	return pack(strings.Fields(clause), maxChunkSize)
}

// upperRatio returns the fraction of letter runes in text that are
// uppercase, used by ClassifyContent's heuristic.
func upperRatio(text string) float64 {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// ClassifyContent derives a coarse, reproducible content class from
// punctuation and uppercase ratios, for the optimizer's cache key (spec
// §4.9). The taxonomy is fixed: short/prose/dialog/technical.
func ClassifyContent(text string) core.ContentClass {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 80 {
		return core.ContentShort
	}

	quoteCount := strings.Count(text, `"`) + strings.Count(text, "“") + strings.Count(text, "”")
	dashCount := strings.Count(text, "—") + strings.Count(text, "--")
	if quoteCount >= 2 || dashCount >= 2 {
		return core.ContentDialog
	}

	technicalMarkers := strings.Count(text, "(") + strings.Count(text, ")") +
		strings.Count(text, "=") + strings.Count(text, "/") + strings.Count(text, "_")
	if technicalMarkers > len([]rune(trimmed))/40 || upperRatio(text) > 0.15 {
		return core.ContentTechnical
	}

	return core.ContentProse
}
