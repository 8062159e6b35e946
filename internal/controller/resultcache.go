package controller

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/meriley/lingua-nexus/internal/core"
)

// cachedResult mirrors core.TranslationResult minus its timing fields,
// matching spec §3's "TranslationResult minus timings" cache value.
type cachedResult struct {
	TranslatedText      string      `json:"translated_text"`
	DetectedSourceLang  string      `json:"detected_source_lang"`
	BackendUsed         string      `json:"backend_used"`
	Method              core.Method `json:"method"`
	ChunkCount          int         `json:"chunk_count"`
	ChunkSize           int         `json:"chunk_size,omitempty"`
	QualityScore        *float64    `json:"quality_score,omitempty"`
	QualityGrade        core.Grade  `json:"quality_grade,omitempty"`
	OptimizationApplied bool        `json:"optimization_applied"`
}

func encodeResult(res core.TranslationResult) ([]byte, bool) {
	c := cachedResult{
		TranslatedText:      res.TranslatedText,
		DetectedSourceLang:  res.DetectedSourceLang,
		BackendUsed:         res.BackendUsed,
		Method:              res.Method,
		ChunkCount:          res.ChunkCount,
		ChunkSize:           res.ChunkSize,
		QualityScore:        res.QualityScore,
		QualityGrade:        res.QualityGrade,
		OptimizationApplied: res.OptimizationApplied,
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, false
	}
	return raw, true
}

func decodeResult(raw []byte) (core.TranslationResult, bool) {
	var c cachedResult
	if err := json.Unmarshal(raw, &c); err != nil {
		return core.TranslationResult{}, false
	}
	return core.TranslationResult{
		TranslatedText:      c.TranslatedText,
		DetectedSourceLang:  c.DetectedSourceLang,
		BackendUsed:         c.BackendUsed,
		Method:              c.Method,
		ChunkCount:          c.ChunkCount,
		ChunkSize:           c.ChunkSize,
		QualityScore:        c.QualityScore,
		QualityGrade:        c.QualityGrade,
		OptimizationApplied: c.OptimizationApplied,
	}, true
}

func hashText(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return sum[:]
}
