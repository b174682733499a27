package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyInput is returned when there is nothing to parse
var ErrEmptyInput = errors.New("empty input")

var (
	fencedJSON      = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.+?)\\s*```")
	trailingComma   = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey     = regexp.MustCompile(`([{,]\s*)([A-Za-z_]\w*)(\s*:)`)
	controlChars    = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	singleQuoteLead = map[byte]bool{':': true, ',': true, '[': true, '{': true, ' ': true}
)

// ParseAIJSON decodes JSON produced by a language model into target.
// It accepts bare JSON, JSON inside a markdown fence, JSON embedded in prose,
// and the usual model slips: trailing commas, unquoted keys, single-quoted strings.
func ParseAIJSON(input string, target interface{}) error {
	input = strings.TrimSpace(strings.TrimPrefix(input, "\ufeff"))
	if input == "" {
		return ErrEmptyInput
	}

	for _, candidate := range jsonCandidates(input) {
		if candidate == "" {
			continue
		}
		if json.Unmarshal([]byte(candidate), target) == nil {
			return nil
		}
		if json.Unmarshal([]byte(repairJSON(candidate)), target) == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// jsonCandidates lists substrings of input worth decoding, most specific first
func jsonCandidates(input string) []string {
	candidates := []string{input}
	if m := fencedJSON.FindStringSubmatch(input); len(m) > 1 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start := strings.IndexByte(input, '{'); start >= 0 {
		candidates = append(candidates, balanced(input[start:], '{', '}'))
	}
	if start := strings.IndexByte(input, '['); start >= 0 {
		candidates = append(candidates, balanced(input[start:], '[', ']'))
	}
	return candidates
}

// balanced returns the prefix of s up to the bracket closing s[0], ignoring brackets inside strings
func balanced(s string, open, close byte) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

func repairJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = unquotedKey.ReplaceAllString(s, `$1"$2"$3`)
	s = fixSingleQuotes(s)
	return controlChars.ReplaceAllString(s, "")
}

// fixSingleQuotes turns 'value' into "value" outside double-quoted strings.
// Apostrophes inside words are left alone.
func fixSingleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	inSingle := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			b.WriteByte(ch)
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			escaped = true
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '\'' && !inDouble:
			if inSingle && (i+1 == len(s) || strings.IndexByte(",}]: \n", s[i+1]) >= 0) {
				inSingle = false
				b.WriteByte('"')
				continue
			}
			if !inSingle && (i == 0 || singleQuoteLead[s[i-1]]) {
				inSingle = true
				b.WriteByte('"')
				continue
			}
		case ch == '"' && inSingle:
			b.WriteString(`\"`)
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
