// Package chat orchestrates one conversation turn: resolve the resident's
// community, assemble context, and generate the assistant's reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/DaBoB6868/dorm-ra-bot/internal/assemble"
	"github.com/DaBoB6868/dorm-ra-bot/internal/geo"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

const (
	// MaxMessageLen caps one user message.
	MaxMessageLen = 2000

	// MaxHistoryMessages caps how many prior turns are sent to the model.
	MaxHistoryMessages = 30

	// fallbackResponseMessage is returned when the model produces an empty
	// response.
	fallbackResponseMessage = "I'm sorry, I couldn't come up with an answer to that. Could you try rephrasing your question?"
)

// ErrMessageTooLong indicates the user message exceeds MaxMessageLen.
var ErrMessageTooLong = errors.New("message too long")

// StreamCallback is called for each chunk of a streaming response. Return
// an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Message is one prior conversation turn as sent by the client.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request is one conversation turn.
type Request struct {
	Message  string
	History  []Message
	Location string // dorm or community name as typed by the resident, "" when unknown
}

// Response is the assistant's reply plus the knowledge sources that backed
// it.
type Response struct {
	Text    string
	Sources []string
}

// Config contains all required parameters for the Orchestrator.
type Config struct {
	Genkit    *genkit.Genkit
	Assembler *assemble.Assembler
	Campus    *geo.Resolver
	Logger    log.Logger

	// ModelName is the provider-qualified model name, e.g.
	// "googleai/gemini-2.5-flash".
	ModelName string

	// RateLimiter proactively paces model calls (nil = use default).
	RateLimiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Assembler == nil {
		return errors.New("assembler is required")
	}
	if cfg.Campus == nil {
		return errors.New("campus resolver is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// generateFunc makes one model call. Swappable in tests.
type generateFunc func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)

// Orchestrator answers resident questions. It is stateless per request and
// safe for concurrent use; all configuration is captured immutably at
// construction.
type Orchestrator struct {
	g           *genkit.Genkit
	assembler   *assemble.Assembler
	campus      *geo.Resolver
	logger      log.Logger
	modelName   string
	rateLimiter *rate.Limiter
	generate    generateFunc
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}
	o := &Orchestrator{
		g:           cfg.Genkit,
		assembler:   cfg.Assembler,
		campus:      cfg.Campus,
		logger:      logger,
		modelName:   cfg.ModelName,
		rateLimiter: rl,
	}
	o.generate = func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
		return genkit.Generate(ctx, o.g, opts...)
	}
	return o, nil
}

// Respond handles one turn without streaming.
func (o *Orchestrator) Respond(ctx context.Context, req Request) (*Response, error) {
	return o.RespondStream(ctx, req, nil)
}

// RespondStream handles one turn, calling callback for each response chunk
// when it is non-nil. The complete response is always returned after
// generation finishes.
func (o *Orchestrator) RespondStream(ctx context.Context, req Request, callback StreamCallback) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message is required")
	}
	if len(req.Message) > MaxMessageLen {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLong, len(req.Message), MaxMessageLen)
	}

	var community *geo.Community
	if req.Location != "" {
		community = o.campus.ResolveByName(req.Location)
		if community == nil {
			o.logger.Debug("location did not resolve to a community", "location", req.Location)
		}
	}

	assembled := o.assembler.Assemble(ctx, assemble.Input{
		Query:     req.Message,
		Community: community,
	})

	messages := buildMessages(req, community, assembled.Text)

	opts := []ai.GenerateOption{
		ai.WithModelName(o.modelName),
		ai.WithMessages(messages...),
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(callback))
	}

	// One model call per turn. A transient failure surfaces to the caller
	// instead of retrying: once the streaming callback has emitted chunks,
	// a second attempt would replay them to the client.
	if err := o.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	resp, err := o.generate(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		o.logger.Warn("model returned empty response")
		text = fallbackResponseMessage
	}

	return &Response{Text: text, Sources: assembled.Sources}, nil
}

// buildMessages assembles the model conversation: system prompt, prior
// turns, then the current question with its context block.
func buildMessages(req Request, community *geo.Community, contextText string) []*ai.Message {
	history := req.History
	if len(history) > MaxHistoryMessages {
		history = history[len(history)-MaxHistoryMessages:]
	}

	messages := make([]*ai.Message, 0, len(history)+2)
	messages = append(messages, ai.NewSystemTextMessage(buildSystemPrompt(community)))
	for _, m := range history {
		switch m.Role {
		case "assistant", "model":
			messages = append(messages, ai.NewModelTextMessage(m.Content))
		default:
			messages = append(messages, ai.NewUserTextMessage(m.Content))
		}
	}
	messages = append(messages, ai.NewUserTextMessage(buildUserTurn(req.Message, contextText)))
	return messages
}

func buildUserTurn(message, contextText string) string {
	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\nContext from campus housing knowledge:\n")
	b.WriteString(contextText)
	return b.String()
}

// buildSystemPrompt renders the assistant persona. When the resident's
// community is unknown, the prompt directs the model to ask for their dorm
// before giving location-specific answers.
func buildSystemPrompt(community *geo.Community) string {
	var b strings.Builder
	b.WriteString(`You are AURA, a friendly Resident Assistant chatbot for University of Georgia campus housing.
Answer questions about housing policies, residence hall life, campus services, and getting around campus.
Ground every answer in the provided context. When the context does not cover a question, say so and point the resident to their community front desk.
Keep answers warm, concise, and practical. Use the citation tags from the context when you reference a source.`)
	b.WriteString("\n\n")
	if community != nil {
		fmt.Fprintf(&b, "The resident lives in %s (%s).\nUse their community's specific information when it is relevant.",
			community.Name, strings.Join(community.Buildings, ", "))
	} else {
		b.WriteString(`You do not yet know where this resident lives.
If their question depends on their residence hall, ask them: "Which dorm do you live in?" before answering location-specific details.`)
	}
	return b.String()
}
