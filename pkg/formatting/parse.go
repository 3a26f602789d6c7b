package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when no JSON value can be recovered from
// a model reply.
var ErrParseFailed = errors.New("failed to parse response")

var fence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Parse decodes a model reply into T. Replies are tried as-is, then
// inside a markdown code fence, then as the outermost {...} or [...]
// span embedded in prose.
func Parse[T any](content string) (T, error) {
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		var result T
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("%w: %s", ErrParseFailed, content)
}

func candidates(content string) []string {
	out := []string{content}
	if m := fence.FindStringSubmatch(content); m != nil {
		out = append(out, m[1])
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start >= 0 && end > start {
			out = append(out, content[start:end+1])
		}
	}
	return out
}
