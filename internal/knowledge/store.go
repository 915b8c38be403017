package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"

	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

// EmbedTimeout bounds a single embedding call.
const EmbedTimeout = 15 * time.Second

// insertBatchSize limits how many chunks one INSERT carries.
const insertBatchSize = 50

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists chunks in PostgreSQL with pgvector embeddings.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool        *pgxpool.Pool
	embedder    ai.Embedder
	logger      log.Logger
	retryConfig RetryConfig
}

// NewStore creates a chunk Store.
func NewStore(pool *pgxpool.Pool, embedder ai.Embedder, logger log.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger, retryConfig: DefaultRetryConfig()}, nil
}

// embed generates a vector embedding for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	dim := VectorDimension
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding response")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// Add embeds and inserts the given chunks. Any chunks previously stored
// for the same source names are deleted in the same transaction, so
// re-indexing a source replaces its chunks even though chunk IDs carry a
// fresh UUID on every run. Chunks are embedded one at a time and inserted
// in batches inside a single transaction, so a partial ingest never
// becomes visible to Search.
func (s *Store) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for i, c := range chunks {
		if err := validateChunk(c); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	vecs := make([]pgvector.Vector, len(chunks))
	for i, c := range chunks {
		vec, err := s.embedWithRetry(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %s: %w", c.ID, err)
		}
		vecs[i] = vec
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, name := range sourceNames(chunks) {
		if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE source_name = $1`, name); err != nil {
			return fmt.Errorf("clearing previous chunks for %s: %w", name, err)
		}
	}

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := min(start+insertBatchSize, len(chunks))
		if err := insertBatch(ctx, tx, chunks[start:end], vecs[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunk insert: %w", err)
	}
	s.logger.Info("chunks indexed", "count", len(chunks))
	return nil
}

// sourceNames collects the distinct source names in first-seen order.
func sourceNames(chunks []Chunk) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range chunks {
		if !seen[c.SourceName] {
			seen[c.SourceName] = true
			names = append(names, c.SourceName)
		}
	}
	return names
}

func insertBatch(ctx context.Context, q querier, chunks []Chunk, vecs []pgvector.Vector) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO chunks (id, source_name, page, content, embedding) VALUES `)
	args := make([]any, 0, len(chunks)*5)
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, c.ID, c.SourceName, c.Page, c.Content, vecs[i])
	}
	sb.WriteString(` ON CONFLICT (id) DO UPDATE
		SET source_name = EXCLUDED.source_name,
		    page = EXCLUDED.page,
		    content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding`)

	if _, err := q.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("inserting %d chunks: %w", len(chunks), err)
	}
	return nil
}

// Search returns up to topK chunks ordered by cosine similarity descending.
// Empty query returns no results without touching the database.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" || topK <= 0 {
		return []ScoredChunk{}, nil
	}
	if len(query) > MaxQueryLen {
		query = query[:MaxQueryLen]
	}
	if strings.ContainsRune(query, 0) {
		return []ScoredChunk{}, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vec, err := s.embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, source_name, page, content, 1 - (embedding <=> $1) AS score
		 FROM chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Count reports how many chunks are indexed.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

func scanChunks(rows pgx.Rows) ([]ScoredChunk, error) {
	var results []ScoredChunk
	for rows.Next() {
		var sc ScoredChunk
		if err := rows.Scan(&sc.ID, &sc.SourceName, &sc.Page, &sc.Content, &sc.Score); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return results, nil
}

func validateChunk(c Chunk) error {
	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}
	if c.Content == "" {
		return fmt.Errorf("chunk content is required")
	}
	if c.SourceName == "" {
		return fmt.Errorf("chunk source name is required")
	}
	if c.Page < 1 {
		return fmt.Errorf("chunk page must be positive, got %d", c.Page)
	}
	return nil
}
