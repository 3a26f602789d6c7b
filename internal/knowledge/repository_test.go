package knowledge_test

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/floracare/internal/knowledge"
	"github.com/JaimeStill/floracare/internal/schema"
)

// hashEmbedder maps each text to a one-hot 768-dim vector so identical
// texts are nearest neighbours.
type hashEmbedder struct{}

func (hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	v := make([]float32, 768)
	v[h.Sum32()%768] = 1
	v[(h.Sum32()/768)%768] += 0.5
	return v, nil
}

func (e hashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.EmbedQuery(ctx, t)
	}
	return out, nil
}

func testStore(t *testing.T) knowledge.System {
	t.Helper()

	dsn := os.Getenv("FLORACARE_TEST_DSN")
	if dsn == "" {
		t.Skip("FLORACARE_TEST_DSN not set")
	}
	if err := schema.Up(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return knowledge.New(db, hashEmbedder{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRepositoryIngestAndSearch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	source := "test-" + uuid.NewString() + ".txt"
	t.Cleanup(func() { store.DeleteSource(context.Background(), source) })

	text := "Early blight shows concentric rings.\n\nLate blight spreads in cool wet weather."
	n, err := store.Ingest(ctx, knowledge.Document{Source: source, Text: text})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 2 {
		t.Fatalf("chunks = %d, want 2", n)
	}

	chunks, err := store.SimilaritySearch(ctx, "Late blight spreads in cool wet weather.", 1)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("results = %d, want 1", len(chunks))
	}
	if chunks[0].Source != source || chunks[0].Metadata["chunk_index"] != float64(1) {
		t.Errorf("top chunk = %+v", chunks[0])
	}
}

func TestRepositoryAddDocumentsLengthMismatch(t *testing.T) {
	store := testStore(t)
	err := store.AddDocuments(context.Background(), []string{"a"}, nil, []string{"1"})
	if !errors.Is(err, knowledge.ErrLengthMismatch) {
		t.Errorf("AddDocuments() error = %v, want ErrLengthMismatch", err)
	}
}
