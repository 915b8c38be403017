// Package assemble gathers structured knowledge, semantic retrieval,
// community information, and directions into one context block per query.
package assemble

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DaBoB6868/dorm-ra-bot/internal/directions"
	"github.com/DaBoB6868/dorm-ra-bot/internal/geo"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/policy"
	"github.com/DaBoB6868/dorm-ra-bot/internal/retrieval"
)

// GuideSource is the citation name for the community guide and seeds every
// source list.
const GuideSource = "UGA Community Guide 2025-2026"

// Placeholder stands in when no component produced context, so the prompt
// context section is never empty.
const Placeholder = "No additional context found for this question."

// retrieveTimeout bounds the semantic retrieval leg. Structured routing is
// in-memory and needs no deadline.
const retrieveTimeout = 10 * time.Second

// SemanticRetriever is the retrieval surface the assembler depends on.
type SemanticRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) (retrieval.Result, error)
}

// Input is one query plus the resident's resolved community, nil when
// their location is unknown.
type Input struct {
	Query     string
	Community *geo.Community
}

// Context is the assembled prompt context and its citation sources.
type Context struct {
	Text    string
	Sources []string
}

// Assembler merges the knowledge components into prompt context.
// Safe for concurrent use.
type Assembler struct {
	router     *policy.Router
	retriever  SemanticRetriever
	directions *directions.Resolver
	logger     log.Logger
}

// New builds an Assembler.
func New(router *policy.Router, retriever SemanticRetriever, dir *directions.Resolver, logger log.Logger) (*Assembler, error) {
	if router == nil {
		return nil, fmt.Errorf("router is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if dir == nil {
		return nil, fmt.Errorf("directions resolver is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Assembler{router: router, retriever: retriever, directions: dir, logger: logger}, nil
}

// Assemble gathers context for the query. The structured route and the
// semantic retrieval run in parallel; a failed or slow retrieval degrades
// to structured context only. Section order is fixed: structured knowledge,
// semantic chunks, community information, directions.
func (a *Assembler) Assemble(ctx context.Context, in Input) Context {
	routedCh := make(chan policy.Result, 1)
	semanticCh := make(chan retrieval.Result, 1)

	go func() {
		routedCh <- a.router.Route(in.Query)
	}()
	go func() {
		retrieveCtx, cancel := context.WithTimeout(ctx, retrieveTimeout)
		defer cancel()
		res, err := a.retriever.Retrieve(retrieveCtx, in.Query, retrieval.DefaultTopK)
		if err != nil {
			a.logger.Warn("semantic retrieval degraded", "error", err)
		}
		semanticCh <- res
	}()

	routed := <-routedCh
	semantic := <-semanticCh

	var parts []string
	out := Context{Sources: []string{GuideSource}}
	seen := map[string]bool{GuideSource: true}
	addSources := func(names []string) {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				out.Sources = append(out.Sources, name)
			}
		}
	}

	if routed.Text != "" {
		parts = append(parts, routed.Text)
		addSources(routed.Sources)
	}
	if semantic.Text != "" {
		parts = append(parts, semantic.Text)
		addSources(semantic.Sources)
	}
	if in.Community != nil {
		parts = append(parts, in.Community.Describe(), in.Community.FrontDeskInfo())
	}
	if a.directions.IsDirectionsQuery(in.Query) {
		if text := a.directions.Resolve(in.Query, in.Community); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		out.Text = Placeholder
		return out
	}
	out.Text = strings.Join(parts, "\n\n")
	return out
}
