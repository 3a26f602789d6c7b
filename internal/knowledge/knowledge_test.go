package knowledge_test

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/floracare/internal/knowledge"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"paragraphs",
			"Early blight causes concentric rings.\n\nRemove infected leaves.",
			[]string{"Early blight causes concentric rings.", "Remove infected leaves."},
		},
		{
			"crlf and extra blank lines",
			"First.\r\n\r\n\r\n\r\nSecond.\r\n",
			[]string{"First.", "Second."},
		},
		{
			"single line breaks stay together",
			"Line one\nline two",
			[]string{"Line one\nline two"},
		},
		{"blank", "  \n\n  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, knowledge.Split(tt.text)); diff != "" {
				t.Errorf("Split() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChunkCitation(t *testing.T) {
	tests := []struct {
		name  string
		chunk knowledge.Chunk
		want  string
	}{
		{
			"with source",
			knowledge.Chunk{Content: "Copper fungicide slows spread.", Source: "tomato.pdf"},
			"Copper fungicide slows spread. (Source: tomato.pdf)",
		},
		{
			"missing source",
			knowledge.Chunk{Content: "Water at the base."},
			"Water at the base. (Source: unknown)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chunk.Citation(); got != tt.want {
				t.Errorf("Citation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		want    string
		wantErr error
	}{
		{"text", "blight.txt", "Early blight.", "Early blight.", nil},
		{"markdown upper ext", "NOTES.MD", "# Rust", "# Rust", nil},
		{"unsupported", "leaf.docx", "x", "", knowledge.ErrUnsupportedFormat},
		{"empty text", "empty.txt", "  \n", "", knowledge.ErrEmptyDocument},
		{"invalid pdf", "broken.pdf", "not a pdf", "", knowledge.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := knowledge.Extract(tt.file, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"tomato.txt":         "Early blight.\n\nLate blight.",
		"guides/roses.md":    "Black spot.",
		"guides/ignored.csv": "a,b",
		"empty.txt":          "",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := knowledge.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}

	want := []knowledge.Document{
		{Source: "guides/roses.md", Text: "Black spot."},
		{Source: "tomato.txt", Text: "Early blight.\n\nLate blight."},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Errorf("LoadDir() mismatch (-want +got):\n%s", diff)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{knowledge.ErrNotFound, http.StatusNotFound},
		{knowledge.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{knowledge.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{knowledge.ErrEmptyQuery, http.StatusBadRequest},
		{knowledge.ErrLengthMismatch, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := knowledge.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
