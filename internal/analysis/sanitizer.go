package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OutcomeKind tags which terminal state the sanitizer reached.
type OutcomeKind int

const (
	// OutcomeClean means the model output parsed and normalized cleanly.
	OutcomeClean OutcomeKind = iota

	// OutcomeFallbackMalformed means the output was not a parseable JSON
	// object and a deterministic fallback record was produced.
	OutcomeFallbackMalformed

	// OutcomeFallbackInternal means normalization itself failed and a
	// second, distinct fallback record was produced.
	OutcomeFallbackInternal
)

// String returns the outcome kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeClean:
		return "clean"
	case OutcomeFallbackMalformed:
		return "fallback_malformed"
	case OutcomeFallbackInternal:
		return "fallback_internal"
	}
	return "unknown"
}

// Outcome is the terminal result of one Sanitize call. Result is always a
// fully valid record regardless of Kind.
type Outcome struct {
	Kind   OutcomeKind
	Result Result
}

// maxRawResponseLen bounds the RawResponse diagnostic field.
const maxRawResponseLen = 500

// Fixed default and fallback texts. These are deterministic so callers and
// tests can rely on them.
const (
	defaultExplanation    = "No explanation provided by the model."
	defaultCause          = "No likely cause identified."
	defaultRecommendation = "No recommendations available."

	malformedExplanation = "The model returned a response in an invalid JSON format."
)

var (
	malformedCauses          = []string{"Model output formatting error", "Malformed response"}
	malformedRecommendations = []string{"Retry the analysis", "Check connectivity with the model API"}

	internalCauses          = []string{"Internal system error"}
	internalRecommendations = []string{"Contact the system administrator"}
)

// normalizeFunc normalizes a decoded key/value record into a Result.
type normalizeFunc func(data map[string]interface{}) (Result, error)

// Sanitize validates and normalizes raw model output into a Result. It never
// panics and never returns an invalid record: parse failure yields the
// malformed-input fallback, a normalization failure yields the internal-error
// fallback, and a clean parse yields the direct field mapping with per-field
// defaults.
func Sanitize(raw string) Outcome {
	return sanitize(raw, normalizeFields)
}

// sanitize is the seam used by tests to exercise the internal-error path.
func sanitize(raw string, normalize normalizeFunc) (outcome Outcome) {
	// Normalization must never escape as a panic; it terminates in the
	// internal fallback instead.
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{
				Kind:   OutcomeFallbackInternal,
				Result: internalFallback(fmt.Sprintf("panic: %v", r)),
			}
		}
	}()

	stripped := stripCodeFences(raw)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(stripped), &data); err != nil || data == nil {
		// data is nil when the input is the JSON literal "null", which is
		// not a key/value record either.
		return Outcome{
			Kind:   OutcomeFallbackMalformed,
			Result: malformedFallback(stripped),
		}
	}

	result, err := normalize(data)
	if err != nil {
		return Outcome{
			Kind:   OutcomeFallbackInternal,
			Result: internalFallback(err.Error()),
		}
	}

	return Outcome{Kind: OutcomeClean, Result: result}
}

// stripCodeFences removes a surrounding markdown code fence, if present,
// before structural parsing.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// normalizeFields coerces each field independently and defensively; no
// field's malformedness blocks the others.
func normalizeFields(data map[string]interface{}) (Result, error) {
	result := Result{
		Explanation:     normalizeString(data["explanation"], defaultExplanation),
		PossibleCauses:  normalizeStringList(data, "possible_causes", defaultCause),
		Recommendations: normalizeStringList(data, "recommendations", defaultRecommendation),
		Severity:        normalizeSeverity(data["severity"]),
		ConfidenceScore: normalizeConfidence(data["confidence_score"]),
	}
	return result, nil
}

// normalizeString coerces a value to string, falling back to def when the
// value is absent.
func normalizeString(v interface{}, def string) string {
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// normalizeStringList coerces a value to a non-empty string list. A scalar
// is wrapped into a single-element list; an absent or empty value yields a
// one-element list with the fixed default message.
func normalizeStringList(data map[string]interface{}, key, def string) []string {
	v, present := data[key]
	if !present || v == nil {
		return []string{def}
	}

	if items, ok := v.([]interface{}); ok {
		list := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				list = append(list, s)
			} else {
				list = append(list, fmt.Sprintf("%v", item))
			}
		}
		if len(list) == 0 {
			return []string{def}
		}
		return list
	}

	// Scalar of any type wraps into a single-element list.
	return []string{normalizeString(v, def)}
}

// normalizeSeverity upper-cases the value and forces MEDIUM when it is not
// one of the four valid levels.
func normalizeSeverity(v interface{}) Severity {
	severity := Severity(strings.ToUpper(normalizeString(v, string(SeverityMedium))))
	if !severity.IsValid() {
		return SeverityMedium
	}
	return severity
}

// normalizeConfidence coerces the value to a float. Coercion failure
// defaults to 0.5; a successful coercion is clamped to [0, 1].
func normalizeConfidence(v interface{}) float64 {
	var confidence float64

	switch val := v.(type) {
	case nil:
		confidence = 0.5
	case float64:
		confidence = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0.5
		}
		confidence = parsed
	case bool:
		return 0.5
	default:
		return 0.5
	}

	if confidence < 0 {
		return 0.0
	}
	if confidence > 1 {
		return 1.0
	}
	return confidence
}

// malformedFallback is the deterministic record for unparseable output.
// The offending text is preserved (truncated) for diagnosis.
func malformedFallback(raw string) Result {
	return Result{
		Explanation:     malformedExplanation,
		PossibleCauses:  append([]string(nil), malformedCauses...),
		Severity:        SeverityMedium,
		Recommendations: append([]string(nil), malformedRecommendations...),
		ConfidenceScore: 0.1,
		RawResponse:     truncate(raw, maxRawResponseLen),
	}
}

// internalFallback is the deterministic record for a sanitization failure.
func internalFallback(detail string) Result {
	return Result{
		Explanation:     fmt.Sprintf("Internal error during sanitization: %s", detail),
		PossibleCauses:  append([]string(nil), internalCauses...),
		Severity:        SeverityMedium,
		Recommendations: append([]string(nil), internalRecommendations...),
		ConfidenceScore: 0.0,
	}
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
