package knowledge

import "context"

// System defines the public contract for the knowledge store.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// AddDocuments embeds and stores texts. metadatas and ids align with
	// texts by index; an existing id is overwritten.
	AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) error

	// SimilaritySearch returns up to k chunks nearest to text by cosine
	// distance, closest first.
	SimilaritySearch(ctx context.Context, text string, k int) ([]Chunk, error)

	// Ingest splits a document into paragraph chunks and stores them.
	// Returns the number of chunks written.
	Ingest(ctx context.Context, doc Document) (int, error)

	Sources(ctx context.Context) ([]SourceSummary, error)
	DeleteSource(ctx context.Context, source string) (int64, error)
}
