// Package retrieval turns free-text queries into prompt-ready context from
// the chunk index, with a keyword fallback when vector search is
// unavailable.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/DaBoB6868/dorm-ra-bot/internal/knowledge"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

const (
	// ScoreThreshold is the minimum cosine similarity a chunk needs to be
	// included. Hits below it are noise for short conversational queries.
	ScoreThreshold = 0.08

	// DefaultTopK is how many chunks Retrieve asks the index for.
	DefaultTopK = 5

	// minTokenLen drops short stopword-like tokens from keyword matching.
	minTokenLen = 3

	// maxKeywordChunks caps keyword fallback output.
	maxKeywordChunks = 6
)

// ChunkSource produces the full chunk set from the source documents. It
// backs lazy index population and the keyword fallback path.
type ChunkSource interface {
	Chunks(ctx context.Context) ([]knowledge.Chunk, error)
}

// Result is retrieved context plus the source names that contributed.
type Result struct {
	Text    string
	Sources []string
}

// Retriever serves semantic retrieval over a chunk index, populating the
// index from its source on first use when it is empty.
type Retriever struct {
	index  knowledge.Index
	source ChunkSource
	logger log.Logger

	// mu guards ready and cached. Population runs at most once at a time;
	// concurrent callers wait rather than racing duplicate ingests.
	mu     sync.Mutex
	ready  bool
	cached []knowledge.Chunk
}

// NewRetriever builds a retriever over the given index and chunk source.
func NewRetriever(index knowledge.Index, source ChunkSource, logger log.Logger) (*Retriever, error) {
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{index: index, source: source, logger: logger}, nil
}

// Retrieve returns the most relevant chunk context for the query. Vector
// search failures, and searches where every hit falls below the score
// threshold, degrade to keyword matching over the source chunks so a
// broken or unhelpful index never empties the prompt entirely.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	if err := r.ensurePopulated(ctx); err != nil {
		r.logger.Warn("index population failed, using keyword fallback", "error", err)
		return r.keywordFallback(ctx, query)
	}

	hits, err := r.index.Search(ctx, query, topK)
	if err != nil {
		r.logger.Warn("vector search failed, using keyword fallback", "error", err)
		return r.keywordFallback(ctx, query)
	}

	kept := hits[:0]
	for _, h := range hits {
		if h.Score >= ScoreThreshold {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return r.keywordFallback(ctx, query)
	}
	return formatChunks(chunksOf(kept)), nil
}

// ensurePopulated ingests the source chunks when the index is empty. The
// first caller does the work; concurrent callers block until it finishes.
// A failed population is retried on the next call.
func (r *Retriever) ensurePopulated(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}

	count, err := r.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}
	if count > 0 {
		r.ready = true
		return nil
	}

	chunks, err := r.loadChunksLocked(ctx)
	if err != nil {
		return err
	}
	if err := r.index.Add(ctx, chunks); err != nil {
		return fmt.Errorf("populating index: %w", err)
	}
	r.logger.Info("index populated", "chunks", len(chunks))
	r.ready = true
	return nil
}

// loadChunksLocked loads and caches the source chunks. Caller holds mu.
func (r *Retriever) loadChunksLocked(ctx context.Context) ([]knowledge.Chunk, error) {
	if r.cached != nil {
		return r.cached, nil
	}
	chunks, err := r.source.Chunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading source chunks: %w", err)
	}
	r.cached = chunks
	return chunks, nil
}

// keywordFallback ranks source chunks by distinct query-token overlap.
func (r *Retriever) keywordFallback(ctx context.Context, query string) (Result, error) {
	r.mu.Lock()
	chunks, err := r.loadChunksLocked(ctx)
	r.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return Result{}, nil
	}

	type scored struct {
		chunk   knowledge.Chunk
		overlap int
		order   int
	}
	var matches []scored
	for i, c := range chunks {
		lowered := strings.ToLower(c.Content)
		overlap := 0
		for _, tok := range tokens {
			if strings.Contains(lowered, tok) {
				overlap++
			}
		}
		if overlap > 0 {
			matches = append(matches, scored{chunk: c, overlap: overlap, order: i})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].overlap != matches[j].overlap {
			return matches[i].overlap > matches[j].overlap
		}
		return matches[i].order < matches[j].order
	})
	if len(matches) > maxKeywordChunks {
		matches = matches[:maxKeywordChunks]
	}

	out := make([]knowledge.Chunk, len(matches))
	for i, m := range matches {
		out[i] = m.chunk
	}
	return formatChunks(out), nil
}

// queryTokens extracts distinct lowercase alphanumeric tokens of useful
// length from the query.
func queryTokens(query string) []string {
	raw := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range raw {
		if len(tok) < minTokenLen || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

// formatChunks renders chunks with citation tags and collects the distinct
// source names in first-seen order.
func formatChunks(chunks []knowledge.Chunk) Result {
	var res Result
	seen := make(map[string]bool)
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[%s p. %d] %s", c.SourceName, c.Page, c.Content))
		if !seen[c.SourceName] {
			seen[c.SourceName] = true
			res.Sources = append(res.Sources, c.SourceName)
		}
	}
	res.Text = strings.Join(parts, "\n\n")
	return res
}

func chunksOf(hits []knowledge.ScoredChunk) []knowledge.Chunk {
	out := make([]knowledge.Chunk, len(hits))
	for i, h := range hits {
		out[i] = h.Chunk
	}
	return out
}
