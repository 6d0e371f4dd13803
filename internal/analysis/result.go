// Package analysis defines the structured analysis result produced for each
// error entry and the sanitizer that coerces untrusted model output into it.
package analysis

// Severity classifies an error's operational impact.
type Severity string

// Valid severity levels, ordered by impact.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ValidSeverities returns the closed set of valid severity levels.
func ValidSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// IsValid reports whether s is one of the four valid levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Result is the output of analyzing one error entry. After sanitization the
// invariants hold: PossibleCauses and Recommendations are non-empty, Severity
// is a valid level and ConfidenceScore is within [0, 1].
type Result struct {
	// ErrorMessage is the analyzed log message.
	ErrorMessage string `json:"error_message,omitempty"`

	// Explanation is the model's explanation of the error.
	Explanation string `json:"explanation"`

	// PossibleCauses lists likely causes, most likely first.
	PossibleCauses []string `json:"possible_causes"`

	// Severity is one of LOW, MEDIUM, HIGH, CRITICAL.
	Severity Severity `json:"severity"`

	// Recommendations lists actionable remediation steps.
	Recommendations []string `json:"recommendations"`

	// ConfidenceScore is the model's self-reported confidence in [0, 1].
	ConfidenceScore float64 `json:"confidence_score"`

	// Timestamp is the creation time of the analysis in RFC3339 format,
	// not the time of the log entry.
	Timestamp string `json:"timestamp,omitempty"`

	// RawResponse holds a truncated copy of unparseable model output.
	// Present only on the malformed-input fallback path.
	RawResponse string `json:"raw_response,omitempty"`

	// ErrorDetails describes the failure when the analysis itself failed.
	// Present only on the analysis-error path.
	ErrorDetails string `json:"error_details,omitempty"`
}
