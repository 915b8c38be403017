package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"

	"github.com/DaBoB6868/dorm-ra-bot/internal/assemble"
	"github.com/DaBoB6868/dorm-ra-bot/internal/directions"
	"github.com/DaBoB6868/dorm-ra-bot/internal/geo"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/policy"
	"github.com/DaBoB6868/dorm-ra-bot/internal/retrieval"
)

func TestBuildSystemPrompt_UnknownLocationAsksForDorm(t *testing.T) {
	got := buildSystemPrompt(nil)
	if !strings.Contains(strings.ToLower(got), "which dorm do you live in?") {
		t.Errorf("prompt for unknown location must ask for the dorm:\n%s", got)
	}
}

func TestBuildSystemPrompt_KnownLocation(t *testing.T) {
	community := geo.Default().ResolveByName("Creswell Hall")
	if community == nil {
		t.Fatal("Creswell Hall not in campus data")
	}
	got := buildSystemPrompt(community)
	if !strings.Contains(got, "Creswell Community") {
		t.Errorf("prompt missing community name:\n%s", got)
	}
	if !strings.Contains(got, "Creswell Hall") {
		t.Errorf("prompt missing building name:\n%s", got)
	}
	if strings.Contains(strings.ToLower(got), "which dorm do you live in?") {
		t.Errorf("prompt should not ask for dorm when it is known:\n%s", got)
	}
}

func TestBuildMessages_Order(t *testing.T) {
	req := Request{
		Message: "Can I have guests over?",
		History: []Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "Hello! How can I help?"},
		},
	}
	msgs := buildMessages(req, nil, "guest policy context")

	if len(msgs) != 4 {
		t.Fatalf("len(messages) = %d, want 4", len(msgs))
	}
	if msgs[0].Role != ai.RoleSystem {
		t.Errorf("messages[0].Role = %v, want system", msgs[0].Role)
	}
	if msgs[1].Role != ai.RoleUser || msgs[1].Content[0].Text != "hi" {
		t.Errorf("messages[1] = %v %q", msgs[1].Role, msgs[1].Content[0].Text)
	}
	if msgs[2].Role != ai.RoleModel {
		t.Errorf("messages[2].Role = %v, want model", msgs[2].Role)
	}
	final := msgs[3]
	if final.Role != ai.RoleUser {
		t.Errorf("final role = %v, want user", final.Role)
	}
	if !strings.Contains(final.Content[0].Text, "Can I have guests over?") {
		t.Errorf("final turn missing question: %q", final.Content[0].Text)
	}
	if !strings.Contains(final.Content[0].Text, "guest policy context") {
		t.Errorf("final turn missing context: %q", final.Content[0].Text)
	}
}

func TestBuildMessages_CapsHistory(t *testing.T) {
	var history []Message
	for range MaxHistoryMessages + 10 {
		history = append(history, Message{Role: "user", Content: "older"})
	}
	history = append(history, Message{Role: "user", Content: "newest"})

	msgs := buildMessages(Request{Message: "q", History: history}, nil, "ctx")

	// system + capped history + final turn
	if len(msgs) != MaxHistoryMessages+2 {
		t.Fatalf("len(messages) = %d, want %d", len(msgs), MaxHistoryMessages+2)
	}
	lastHistory := msgs[len(msgs)-2]
	if lastHistory.Content[0].Text != "newest" {
		t.Errorf("history cap dropped the newest turn, kept %q", lastHistory.Content[0].Text)
	}
}

type fakeRetriever struct{}

func (fakeRetriever) Retrieve(_ context.Context, _ string, _ int) (retrieval.Result, error) {
	return retrieval.Result{}, nil
}

func testOrchestrator(t *testing.T, generate generateFunc) *Orchestrator {
	t.Helper()
	campus := geo.Default()
	assembler, err := assemble.New(
		policy.NewRouter(policy.NewStoreFromDocuments(nil)),
		fakeRetriever{},
		directions.NewResolver(campus),
		log.NewNop(),
	)
	if err != nil {
		t.Fatal(err)
	}
	return &Orchestrator{
		assembler:   assembler,
		campus:      campus,
		logger:      log.NewNop(),
		modelName:   "googleai/gemini-2.5-flash",
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		generate:    generate,
	}
}

func TestRespondStream_SingleCallOnTransientError(t *testing.T) {
	// A failed model call surfaces immediately. Retrying a streamed
	// response would replay already-delivered chunks to the client.
	calls := 0
	o := testOrchestrator(t, func(_ context.Context, _ ...ai.GenerateOption) (*ai.ModelResponse, error) {
		calls++
		return nil, errors.New("503 Service Unavailable")
	})

	_, err := o.RespondStream(context.Background(), Request{Message: "quiet hours?"}, nil)
	if err == nil {
		t.Fatal("RespondStream() expected error from failed model call")
	}
	if calls != 1 {
		t.Errorf("model called %d times, want exactly 1", calls)
	}
}

func TestRespondStream_EmptyResponseFallback(t *testing.T) {
	o := testOrchestrator(t, func(_ context.Context, _ ...ai.GenerateOption) (*ai.ModelResponse, error) {
		return &ai.ModelResponse{Message: ai.NewModelTextMessage("   ")}, nil
	})

	resp, err := o.RespondStream(context.Background(), Request{Message: "quiet hours?"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != fallbackResponseMessage {
		t.Errorf("Text = %q, want fallback message", resp.Text)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("New(zero config) expected error")
	}
	if !strings.Contains(err.Error(), "genkit instance is required") {
		t.Errorf("error = %q, want genkit requirement first", err)
	}
}
