package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/JaimeStill/floracare/pkg/models"
	"github.com/JaimeStill/floracare/pkg/query"
	"github.com/JaimeStill/floracare/pkg/repository"
)

type repo struct {
	db       *sql.DB
	embedder models.Embedder
	logger   *slog.Logger
}

// New creates a pgvector-backed knowledge store implementing the System interface.
func New(db *sql.DB, embedder models.Embedder, logger *slog.Logger) System {
	return &repo{
		db:       db,
		embedder: embedder,
		logger:   logger.With("system", "knowledge"),
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, maxUploadSize)
}

func (r *repo) AddDocuments(
	ctx context.Context,
	texts []string,
	metadatas []map[string]any,
	ids []string,
) error {
	if len(texts) != len(metadatas) || len(texts) != len(ids) {
		return ErrLengthMismatch
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embed documents: got %d vectors for %d texts", len(vectors), len(texts))
	}

	q := `
		INSERT INTO knowledge_chunks(id, source, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET source = EXCLUDED.source,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return struct{}{}, err
		}
		defer stmt.Close()

		for i, text := range texts {
			meta := metadatas[i]
			if meta == nil {
				meta = map[string]any{}
			}

			raw, err := json.Marshal(meta)
			if err != nil {
				return struct{}{}, fmt.Errorf("encode metadata %s: %w", ids[i], err)
			}

			if _, err := stmt.ExecContext(
				ctx,
				ids[i], sourceOf(meta), text, raw, pgvector.NewVector(vectors[i]),
			); err != nil {
				return struct{}{}, fmt.Errorf("insert chunk %s: %w", ids[i], err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "chunks stored", "count", len(texts))
	return nil
}

func (r *repo) SimilaritySearch(ctx context.Context, text string, k int) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}

	vec, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q, args := query.
		NewBuilder(chunkProjection).
		OrderByNearest("Embedding", pgvector.NewVector(vec)).
		BuildLimit(max(k, 1))

	chunks, err := repository.QueryMany(ctx, r.db, q, args, scanChunk)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return chunks, nil
}

func (r *repo) Ingest(ctx context.Context, doc Document) (int, error) {
	source := strings.TrimSpace(doc.Source)
	if source == "" {
		source = UnknownSource
	}

	parts := Split(doc.Text)
	if len(parts) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyDocument, source)
	}

	metadatas := make([]map[string]any, len(parts))
	ids := make([]string, len(parts))
	for i := range parts {
		metadatas[i] = map[string]any{"source": source, "chunk_index": i}
		ids[i] = uuid.NewString()
	}

	if err := r.AddDocuments(ctx, parts, metadatas, ids); err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "document ingested", "source", source, "chunks", len(parts))
	return len(parts), nil
}

func (r *repo) Sources(ctx context.Context) ([]SourceSummary, error) {
	q := `
		SELECT source, COUNT(*)
		FROM knowledge_chunks
		GROUP BY source
		ORDER BY source`

	sources, err := repository.QueryMany(ctx, r.db, q, nil, func(s repository.Scanner) (SourceSummary, error) {
		var ss SourceSummary
		err := s.Scan(&ss.Source, &ss.Chunks)
		return ss, err
	})
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	return sources, nil
}

func (r *repo) DeleteSource(ctx context.Context, source string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM knowledge_chunks WHERE source = $1", source)
	if err != nil {
		return 0, fmt.Errorf("delete source: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}

	r.logger.InfoContext(ctx, "source deleted", "source", source, "chunks", n)
	return n, nil
}

func scanChunk(s repository.Scanner) (Chunk, error) {
	var (
		c    Chunk
		meta []byte
	)
	if err := s.Scan(&c.ID, &c.Source, &c.Content, &meta, &c.Score); err != nil {
		return c, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return c, fmt.Errorf("decode metadata %s: %w", c.ID, err)
		}
	}
	if c.Source == "" {
		c.Source = UnknownSource
	}
	return c, nil
}
