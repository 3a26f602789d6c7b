// Package knowledge stores botanical reference text as embedded chunks
// in Postgres (pgvector) and retrieves them by cosine similarity.
package knowledge

import (
	"fmt"
	"strings"
)

// UnknownSource is the provenance reported for chunks stored without one.
const UnknownSource = "unknown"

// Chunk is a retrievable passage of reference text.
type Chunk struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score,omitempty"`
}

// Citation renders the chunk as "<content> (Source: <source>)".
func (c Chunk) Citation() string {
	src := c.Source
	if src == "" {
		src = UnknownSource
	}
	return fmt.Sprintf("%s (Source: %s)", c.Content, src)
}

// Split breaks text into paragraph chunks on blank lines.
// Chunks are trimmed and empty paragraphs dropped.
func Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	for p := range strings.SplitSeq(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks
}

func sourceOf(metadata map[string]any) string {
	if s, ok := metadata["source"].(string); ok && s != "" {
		return s
	}
	return UnknownSource
}

// SourceSummary reports how many chunks a source contributed.
type SourceSummary struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}
