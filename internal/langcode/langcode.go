// Package langcode normalizes between the public, user-facing language
// codes used on the wire and the native codes each backend family expects.
// It maintains two bidirectional tables — public<->specialized and
// public<->generative — following the teacher repo's preference for plain
// Go maps over reflection-driven lookups (see DESIGN.md).
package langcode

import (
	"strings"

	"github.com/meriley/lingua-nexus/internal/core"
)

// specializedCodes maps a public ISO-639-1 code to the NLLB-style
// "lang_Script" code a specialized seq2seq backend expects.
var specializedCodes = map[string]string{
	"en": "eng_Latn",
	"ru": "rus_Cyrl",
	"uk": "ukr_Cyrl",
	"de": "deu_Latn",
	"fr": "fra_Latn",
	"es": "spa_Latn",
	"it": "ita_Latn",
	"pt": "por_Latn",
	"zh": "zho_Hans",
	"ja": "jpn_Jpan",
	"ko": "kor_Hang",
	"ar": "arb_Arab",
	"hi": "hin_Deva",
	"pl": "pol_Latn",
	"nl": "nld_Latn",
	"tr": "tur_Latn",
	"cs": "ces_Latn",
	"sv": "swe_Latn",
	"el": "ell_Grek",
	"he": "heb_Hebr",
}

var specializedReverse = reverse(specializedCodes)

// generativeCodes maps a public code to the plain-English language name a
// prompted LLM backend expects in its instructions.
var generativeCodes = map[string]string{
	"en": "English",
	"ru": "Russian",
	"uk": "Ukrainian",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"hi": "Hindi",
	"pl": "Polish",
	"nl": "Dutch",
	"tr": "Turkish",
	"cs": "Czech",
	"sv": "Swedish",
	"el": "Greek",
	"he": "Hebrew",
	"yo": "Yoruba",
}

var generativeReverse = reverse(generativeCodes)

func reverse(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(v)] = k
	}
	return out
}

// ToBackend maps a public language code to the native code the given
// backend family expects. The input is matched case-insensitively; the
// output is the table's canonical form.
func ToBackend(publicCode string, family core.BackendFamily) (string, error) {
	key := strings.ToLower(strings.TrimSpace(publicCode))
	switch family {
	case core.FamilySpecialized:
		if v, ok := specializedCodes[key]; ok {
			return v, nil
		}
	case core.FamilyGenerative:
		if v, ok := generativeCodes[key]; ok {
			return v, nil
		}
	}
	return "", core.NewError(core.KindUnsupportedLanguage, "unsupported language code: "+publicCode)
}

// FromBackend maps a backend-native code back to its public form.
func FromBackend(backendCode string, family core.BackendFamily) (string, error) {
	key := strings.ToLower(strings.TrimSpace(backendCode))
	switch family {
	case core.FamilySpecialized:
		if v, ok := specializedReverse[key]; ok {
			return v, nil
		}
	case core.FamilyGenerative:
		if v, ok := generativeReverse[key]; ok {
			return v, nil
		}
	}
	return "", core.NewError(core.KindUnsupportedLanguage, "unrecognized backend code: "+backendCode)
}

// Supported reports whether a public code is known to the given family.
func Supported(publicCode string, family core.BackendFamily) bool {
	_, err := ToBackend(publicCode, family)
	return err == nil
}

// Canonicalize lower-cases and trims a public code without validating it
// against either table; used for cache-key normalization.
func Canonicalize(publicCode string) string {
	return strings.ToLower(strings.TrimSpace(publicCode))
}
