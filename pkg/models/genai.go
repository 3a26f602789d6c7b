// Package models adapts hosted and local model providers to the narrow
// vision, reasoning, and embedding contracts the diagnosis pipeline consumes.
package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

const embedBatchSize = 100

var (
	// ErrNotConfigured indicates no API key is available for the hosted provider.
	ErrNotConfigured = errors.New("model api key not configured")
	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// Client wraps a Gemini client with the configured model names and per-call timeout.
type Client struct {
	genai     *genai.Client
	vision    string
	reasoning string
	embedding string
	dims      int32
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Client from a finalized Config.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		genai:     client,
		vision:    cfg.VisionModel,
		reasoning: cfg.ReasoningModel,
		embedding: cfg.EmbeddingModel,
		dims:      int32(cfg.Dimensions),
		timeout:   cfg.TimeoutDuration(),
		logger:    logger.With("system", "models"),
	}, nil
}

// Vision sends prompt and a single image to the vision model and returns its JSON text.
func (c *Client) Vision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	return c.generate(ctx, c.vision, contents, "application/json")
}

// Chat sends prompt to the reasoning model in JSON response mode.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	return c.generate(ctx, c.reasoning, contents, "application/json")
}

// Reply sends prompt to the reasoning model and returns free-form text.
func (c *Client) Reply(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	return c.generate(ctx, c.reasoning, contents, "")
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", model, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.DebugContext(ctx, "generation complete", "model", model, "duration", time.Since(start))
	return text, nil
}

// EmbedQuery embeds a single search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds texts for storage, batching requests to the provider limit.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		g.Go(func() error {
			batch, err := c.embed(gctx, texts[start:end], "RETRIEVAL_DOCUMENT")
			if err != nil {
				return fmt.Errorf("batch %d-%d: %w", start, end, err)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *Client) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := c.genai.Models.EmbedContent(ctx, c.embedding, contents, &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: genai.Ptr(c.dims),
	})
	if err != nil {
		return nil, fmt.Errorf("embed content with %s: %w", c.embedding, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmptyResponse, len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}
