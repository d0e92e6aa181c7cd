// Package care turns free-form model output into a complete AnalysisResult.
// The model is not trusted to follow the requested format, so parsing never
// fails: missing or mistyped parts are filled from a per-locale default.
package care

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/washp/pkg/model"
)

// Outcome tells how a result was obtained from the model output.
type Outcome int

const (
	// OutcomeValid means the model returned a complete, well-typed object.
	OutcomeValid Outcome = iota
	// OutcomeRepaired means an object was found but some fields came from
	// the default.
	OutcomeRepaired
	// OutcomeFallback means no usable object was found and the default was
	// returned as is.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeRepaired:
		return "repaired"
	case OutcomeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Parse extracts the analysis object from text. It always returns a fully
// populated result.
func Parse(text string, locale model.Locale) (*model.AnalysisResult, Outcome) {
	obj, ok := decodeObject(text)
	if !ok {
		return Default(locale), OutcomeFallback
	}

	result := merge(Default(locale), obj)
	if err := validate(obj); err != nil {
		return result, OutcomeRepaired
	}
	return result, OutcomeValid
}

// decodeObject finds the first JSON object in text and decodes it.
func decodeObject(text string) (map[string]any, bool) {
	for _, candidate := range extractCandidates(text) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

// extractCandidates returns substrings that may hold the top-level object:
// the balanced object starting at the first '{', then the span from the
// first '{' to the last '}'.
func extractCandidates(text string) []string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil
	}

	var candidates []string
	if end := findObjectEnd(text[start:]); end >= 0 {
		candidates = append(candidates, text[start:start+end+1])
	}
	if last := strings.LastIndexByte(text, '}'); last > start {
		greedy := text[start : last+1]
		if len(candidates) == 0 || candidates[0] != greedy {
			candidates = append(candidates, greedy)
		}
	}
	return candidates
}

// findObjectEnd returns the index of the brace closing the object that opens
// at s[0], or -1. Braces inside JSON strings are ignored.
func findObjectEnd(s string) int {
	depth := 0
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
