// Package app wires the application together: database pool, Genkit,
// knowledge stores, and the chat orchestrator.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaBoB6868/dorm-ra-bot/internal/assemble"
	"github.com/DaBoB6868/dorm-ra-bot/internal/chat"
	"github.com/DaBoB6868/dorm-ra-bot/internal/config"
	"github.com/DaBoB6868/dorm-ra-bot/internal/directions"
	"github.com/DaBoB6868/dorm-ra-bot/internal/geo"
	"github.com/DaBoB6868/dorm-ra-bot/internal/ingest"
	"github.com/DaBoB6868/dorm-ra-bot/internal/knowledge"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/policy"
	"github.com/DaBoB6868/dorm-ra-bot/internal/retrieval"
)

// App holds the assembled application components.
// Create with Setup; call Close to release resources.
type App struct {
	Config *config.Config
	Logger log.Logger

	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Knowledge    *knowledge.Store
	Populator    *ingest.Populator
	Retriever    *retrieval.Retriever
	Policies     *policy.Store
	Router       *policy.Router
	Campus       *geo.Resolver
	Directions   *directions.Resolver
	Assembler    *assemble.Assembler
	Orchestrator *chat.Orchestrator

	dbCleanup func()
}

// Close releases all resources held by the application.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
