// Package ingest turns extracted document text into chunks for the vector
// index.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/DaBoB6868/dorm-ra-bot/internal/knowledge"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

// maxChunkChars is the target upper bound for one chunk. Paragraphs are
// packed together until the next one would cross it.
const maxChunkChars = 1000

// chunksPerPage approximates the source PDF pagination: chunk i is
// attributed to page i/chunksPerPage+1.
const chunksPerPage = 3

// Populator loads extracted document text from a directory and chunks it.
// It implements the retrieval chunk source.
type Populator struct {
	dir    string
	logger log.Logger
}

// NewPopulator builds a Populator over dir.
func NewPopulator(dir string, logger log.Logger) *Populator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Populator{dir: dir, logger: logger}
}

// Chunks loads every *.txt file under the directory and chunks it. A
// missing directory yields no chunks; an unreadable file is logged and
// skipped.
func (p *Populator) Chunks(ctx context.Context) ([]knowledge.Chunk, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Warn("document directory missing, nothing to ingest", "dir", p.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("reading document directory %s: %w", p.dir, err)
	}

	var chunks []knowledge.Chunk
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		path := filepath.Join(p.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("skipping unreadable document", "path", path, "error", err)
			continue
		}
		fileChunks := ChunkText(entry.Name(), string(data))
		if len(fileChunks) == 0 {
			p.logger.Warn("document produced no chunks", "path", path)
			continue
		}
		chunks = append(chunks, fileChunks...)
	}

	p.logger.Info("documents chunked", "dir", p.dir, "chunks", len(chunks))
	return chunks, nil
}

// ChunkText splits document text into chunks on paragraph boundaries.
// Paragraphs are packed up to the size target; a single oversized
// paragraph is hard-split rather than dropped. Page numbers follow the
// chunk index.
func ChunkText(sourceName, text string) []knowledge.Chunk {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))

	var pieces []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			pieces = append(pieces, s)
		}
		current.Reset()
	}

	for _, para := range splitParagraphs(text) {
		for len(para) > maxChunkChars {
			flush()
			cut := splitPoint(para)
			pieces = append(pieces, strings.TrimSpace(para[:cut]))
			para = strings.TrimSpace(para[cut:])
		}
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > maxChunkChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	chunks := make([]knowledge.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = knowledge.Chunk{
			ID:         fmt.Sprintf("%s_chunk_%d_%s", base, i, uuid.New().String()),
			SourceName: sourceName,
			Page:       i/chunksPerPage + 1,
			Content:    content,
		}
	}
	return chunks
}

// splitParagraphs splits on blank lines, trimming each paragraph.
func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(normalized, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paras = append(paras, trimmed)
		}
	}
	return paras
}

// splitPoint finds where to cut an oversized paragraph: the last sentence
// end or space before the limit, or the hard limit when there is none.
func splitPoint(para string) int {
	limit := maxChunkChars
	if i := strings.LastIndexAny(para[:limit], ".!?"); i > limit/2 {
		return i + 1
	}
	if i := strings.LastIndex(para[:limit], " "); i > limit/2 {
		return i
	}
	return limit
}
