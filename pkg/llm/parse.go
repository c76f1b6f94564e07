package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseError marks a response that failed structural validation after
// fence stripping. Callers distinguish it from transport failures via
// errors.As and apply their own fallback policy.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is a response-validation failure
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag. Content without fences passes through unchanged.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// ParseJSON strips fences and interprets the remaining content as JSON into
// v. If the content has leading or trailing prose it falls back to the
// outermost JSON value. A still-unparseable payload is a ParseError, never
// a silent default.
func ParseJSON(content string, v any) error {
	text := StripFences(content)
	if text == "" {
		return &ParseError{Reason: "empty response"}
	}

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	// tolerate prose around the JSON value
	if extracted, ok := extractJSON(text); ok {
		if err := json.Unmarshal([]byte(extracted), v); err != nil {
			return &ParseError{Reason: "invalid json payload", Err: err}
		}
		return nil
	}

	return &ParseError{Reason: "no json value found in response"}
}

// extractJSON locates the outermost array or object in the text
func extractJSON(text string) (string, bool) {
	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start != -1 && end > start {
			return text[start : end+1], true
		}
	}
	return "", false
}
