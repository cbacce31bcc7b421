// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanCandidate removes presentation wrappers models add around a single
// answer: markdown code fences, bold/italic markers and surrounding quotes.
// It does not touch the sentence itself.
func CleanCandidate(text string) string {
	text = strings.TrimSpace(text)

	// Handle ``` ... ``` blocks, skipping a language identifier on the first line
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	for {
		trimmed := unwrap(text)
		if trimmed == text {
			return text
		}
		text = trimmed
	}
}

var wrappers = [][2]string{
	{"**", "**"},
	{"__", "__"},
	{"*", "*"},
	{"\"", "\""},
	{"“", "”"},
	{"'", "'"},
}

// unwrap strips one matching pair of wrapper characters.
func unwrap(text string) string {
	for _, w := range wrappers {
		if len(text) > len(w[0])+len(w[1]) && strings.HasPrefix(text, w[0]) && strings.HasSuffix(text, w[1]) {
			return strings.TrimSpace(text[len(w[0]) : len(text)-len(w[1])])
		}
	}
	return text
}
