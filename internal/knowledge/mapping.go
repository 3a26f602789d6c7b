package knowledge

import "github.com/JaimeStill/floracare/pkg/query"

var chunkProjection = query.
	NewProjectionMap("public", "knowledge_chunks", "k").
	Project("id", "ID").
	Project("source", "Source").
	Project("content", "Content").
	Project("metadata", "Metadata").
	Map("embedding", "Embedding")
