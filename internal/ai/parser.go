package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled patterns. Models wrap JSON in code fences, leave trailing
// commas, and pad with prose often enough that every strategy below earns
// its keep.
var (
	codeFenceRegex     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	lineCommentRegex   = regexp.MustCompile(`(?m)//.*$`)
	objectRegex        = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// Parse attempts to decode a model response as JSON, working around the
// usual LLM output quirks.
//
// Strategy sequence:
//  1. Direct JSON parse
//  2. Strip code fences and retry
//  3. Fix trailing commas / line comments and retry
//  4. Extract the outermost JSON object from mixed content and retry
//
// context labels error messages and debug logs.
func Parse[T any](text, context string) (T, error) {
	var zero T

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, fmt.Errorf("%s: empty input", context)
	}

	if v, err := tryParse[T](trimmed); err == nil {
		return v, nil
	} else {
		slog.Debug("direct JSON parse failed, trying cleanup strategies",
			"context", context,
			"error", err.Error(),
			"preview", truncate(text, 100))
	}

	withoutFences := trimmed
	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		withoutFences = strings.TrimSpace(m[1])
		if v, err := tryParse[T](withoutFences); err == nil {
			return v, nil
		}
	}

	cleaned := lineCommentRegex.ReplaceAllString(withoutFences, "")
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	if v, err := tryParse[T](cleaned); err == nil {
		return v, nil
	}

	if extracted := objectRegex.FindString(cleaned); extracted != "" {
		if v, err := tryParse[T](extracted); err == nil {
			return v, nil
		}
	}

	return zero, fmt.Errorf("%s: all JSON parsing strategies failed (response: %s)", context, truncate(text, 200))
}

func tryParse[T any](text string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(text), &v)
	return v, err
}

// truncate bounds s for log and error messages.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
