package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Embedder produces dense vectors for retrieval queries and stored documents.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder returns the embedder selected by cfg.EmbeddingProvider.
// The genai provider reuses client; client may be nil for the ollama provider.
func NewEmbedder(cfg *Config, client *Client) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case ProviderOllama:
		return NewOllama(cfg), nil
	case ProviderGenAI:
		if client == nil {
			return nil, ErrNotConfigured
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// Ollama computes embeddings against a local Ollama server.
type Ollama struct {
	endpoint string
	model    string
	dims     int
	http     *http.Client
}

// NewOllama creates an Ollama embedder from a finalized Config.
func NewOllama(cfg *Config) *Ollama {
	return &Ollama{
		endpoint: strings.TrimSuffix(cfg.OllamaURL, "/"),
		model:    cfg.EmbeddingModel,
		dims:     cfg.Dimensions,
		http:     &http.Client{Timeout: cfg.TimeoutDuration()},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *Ollama) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(result.Embedding) == 0 {
		return nil, ErrEmptyResponse
	}
	if len(result.Embedding) != o.dims {
		return nil, fmt.Errorf("ollama model %s returned %d dimensions, want %d", o.model, len(result.Embedding), o.dims)
	}

	return result.Embedding, nil
}

// EmbedDocuments issues one request per text since the embeddings endpoint is single-input.
func (o *Ollama) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, text := range texts {
		g.Go(func() error {
			v, err := o.EmbedQuery(gctx, text)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			vectors[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
