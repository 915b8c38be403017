// Package knowledge stores document chunks with vector embeddings and
// serves similarity search over them.
package knowledge

import "context"

// VectorDimension is the embedding dimensionality stored in the chunks
// table. Must match the vector(N) column in the schema.
const VectorDimension int32 = 768

// MaxQueryLen bounds query text before embedding.
const MaxQueryLen = 2000

// Chunk is one embedded slice of a source document.
type Chunk struct {
	ID         string
	SourceName string
	Page       int
	Content    string
}

// ScoredChunk is a search hit with its cosine similarity in [0, 1].
type ScoredChunk struct {
	Chunk
	Score float64
}

// Index is the similarity-search surface the retrieval layer depends on.
// *Store implements it; tests substitute fakes.
type Index interface {
	Add(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, query string, topK int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}
