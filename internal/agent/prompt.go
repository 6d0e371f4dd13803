package agent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/logsage/logsage-ai-go/internal/vectorstore"
)

// noContextPlaceholder is used when the vector store has no similar chunks.
const noContextPlaceholder = "Nenhum log similar encontrado no histórico."

// maxContextSnippetLen caps each retrieved snippet embedded in the prompt.
const maxContextSnippetLen = 200

// GetSystemPrompt returns the system prompt used for error analysis.
func GetSystemPrompt() string {
	return `You are a senior site reliability engineer specialized in root cause analysis of application logs. Your role is to analyze individual error log entries, using similar historical log context when available, and explain what went wrong.

**Analysis Framework:**

1. **Explanation** - Describe in plain language what the error means and what most likely happened.

2. **Possible Causes** - List the most likely root causes, ordered from most to least probable. Be concrete: name the subsystem, dependency, or configuration involved.

3. **Severity Assessment** - Classify the operational impact:
   - "LOW" - Cosmetic or transient, no user impact
   - "MEDIUM" - Degraded behavior, workaround exists
   - "HIGH" - User-visible failure, requires prompt attention
   - "CRITICAL" - Outage or data loss risk, requires immediate action

4. **Recommendations** - Provide specific, actionable remediation steps. Include commands, configuration keys, or metrics to check when relevant.

5. **Confidence** - Estimate how confident you are in this analysis as a number between 0.0 and 1.0.

**Output Requirements:**

You MUST respond with a valid JSON object (and ONLY JSON) in this exact format:

{
  "explanation": "Plain-language description of what went wrong",
  "possible_causes": [
    "Most likely cause",
    "Second most likely cause"
  ],
  "severity": "LOW|MEDIUM|HIGH|CRITICAL",
  "recommendations": [
    "Specific actionable remediation step"
  ],
  "confidence_score": 0.8
}

**Analysis Principles:**
- Be accurate and fact-based - only report what the log entry and context support
- Use the historical context to spot recurring patterns, but do not invent correlations
- Be specific in recommendations (include commands, file paths, config keys)
- If uncertain, lower the confidence score instead of guessing`
}

// GetUserPrompt constructs the user prompt with the error entry and
// retrieved historical context.
func GetUserPrompt(errorMessage, context string) string {
	var prompt strings.Builder

	prompt.WriteString("ERROR LOG ENTRY:\n")
	prompt.WriteString(SanitizeLogContent(errorMessage))
	prompt.WriteString("\n\n")

	prompt.WriteString("SIMILAR HISTORICAL LOGS:\n")
	prompt.WriteString(SanitizeLogContent(context))
	prompt.WriteString("\n\n")

	prompt.WriteString("Please analyze the error log entry above and provide your assessment in JSON format as specified.")

	return prompt.String()
}

// FormatContext renders retrieved chunks into the context section of the
// prompt. Each snippet is capped so a single large chunk cannot dominate
// the prompt.
func FormatContext(results []vectorstore.Result) string {
	if len(results) == 0 {
		return noContextPlaceholder
	}

	var sb strings.Builder
	for i, result := range results {
		snippet := result.Content
		if len(snippet) > maxContextSnippetLen {
			snippet = snippet[:maxContextSnippetLen] + "..."
		}
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, snippet))
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// promptInjectionPatterns contains regex patterns for common prompt injection attempts
var promptInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+a`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)system\s*prompt\s*:`),
	regexp.MustCompile(`(?i)\bASSISTANT\s*:`),
	regexp.MustCompile(`(?i)\bHUMAN\s*:`),
	regexp.MustCompile(`(?i)\bUSER\s*:`),
	regexp.MustCompile(`(?i)\bSYSTEM\s*:`),
}

// SanitizeLogContent sanitizes log content to prevent prompt injection.
// This removes:
// - Non-printable characters (except newlines, tabs, carriage returns)
// - Common prompt injection patterns
// - Excessive whitespace
func SanitizeLogContent(content string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(content))

	for _, r := range content {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	for _, pattern := range promptInjectionPatterns {
		result = pattern.ReplaceAllString(result, "[FILTERED]")
	}

	// Normalize excessive newlines (more than 3 consecutive)
	excessiveNewlines := regexp.MustCompile(`\n{4,}`)
	result = excessiveNewlines.ReplaceAllString(result, "\n\n\n")

	return result
}
