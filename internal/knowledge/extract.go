package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Document is a named body of text ready for chunking.
type Document struct {
	Source string
	Text   string
}

var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Supported reports whether a file name has an ingestible extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return textExtensions[ext] || ext == ".pdf"
}

// Extract returns the plain text of a .txt, .md, or .pdf file.
func Extract(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var text string
	switch {
	case textExtensions[ext]:
		text = string(data)
	case ext == ".pdf":
		t, err := extractPDF(data)
		if err != nil {
			return "", err
		}
		text = t
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}
	return text, nil
}

// extractPDF validates the PDF structure with pdfcpu, then pulls page text with MuPDF.
func extractPDF(data []byte) (string, error) {
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("%w: invalid pdf: %w", ErrUnsupportedFormat, err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	parts := make([]string, 0, pages)
	for i := range min(pages, doc.NumPage()) {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// LoadDir walks dir and extracts every supported file. The source of each
// document is its path relative to dir.
func LoadDir(dir string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		text, err := Extract(d.Name(), data)
		if errors.Is(err, ErrEmptyDocument) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}

		docs = append(docs, Document{Source: filepath.ToSlash(rel), Text: text})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}
