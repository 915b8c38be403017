package assemble

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DaBoB6868/dorm-ra-bot/internal/directions"
	"github.com/DaBoB6868/dorm-ra-bot/internal/geo"
	"github.com/DaBoB6868/dorm-ra-bot/internal/policy"
	"github.com/DaBoB6868/dorm-ra-bot/internal/retrieval"
)

type fakeRetriever struct {
	result retrieval.Result
	err    error
}

func (f *fakeRetriever) Retrieve(context.Context, string, int) (retrieval.Result, error) {
	return f.result, f.err
}

func testRouter() *policy.Router {
	store := policy.NewStoreFromDocuments([]policy.Document{
		{ID: policy.GuideDocID, Data: policy.Map(
			"title", policy.Scalar("UGA Community Guide 2025-2026"),
			"policies", policy.Map(
				"noise_courtesy_and_quiet_hours", policy.Map(
					"quiet_hours", policy.Scalar("Sunday-Thursday 10:00 PM - 8:00 AM"),
				),
			),
			"general_information", policy.Map(
				"mission", policy.Scalar("Safe and inclusive residential communities"),
			),
		)},
		{ID: "code_of_conduct", Data: policy.Map(
			"title", policy.Scalar("Code of Conduct"),
			"standards", policy.Map("alcohol", policy.Scalar("Alcohol is prohibited in first-year halls")),
		)},
	})
	return policy.NewRouter(store)
}

func testAssembler(t *testing.T, r SemanticRetriever) *Assembler {
	t.Helper()
	a, err := New(testRouter(), r, directions.NewResolver(geo.Default()), nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func creswell(t *testing.T) *geo.Community {
	t.Helper()
	c := geo.Default().ResolveByName("Creswell Hall")
	if c == nil {
		t.Fatal("Creswell Hall not in campus data")
	}
	return c
}

func TestAssemble_SectionOrder(t *testing.T) {
	a := testAssembler(t, &fakeRetriever{result: retrieval.Result{
		Text:    "[housing-handbook.txt p. 4] Quiet hours are strictly enforced during finals.",
		Sources: []string{"housing-handbook.txt"},
	}})

	got := a.Assemble(context.Background(), Input{
		Query:     "what are the quiet hours and how do i get to the rec center",
		Community: creswell(t),
	})

	positions := []struct {
		name   string
		marker string
	}{
		{"structured knowledge", "Sunday-Thursday 10:00 PM"},
		{"semantic chunk", "[housing-handbook.txt p. 4]"},
		{"community info", "Creswell Community"},
		{"front desk", "Front Desk:"},
		{"directions", "Ramsey Student Center"},
	}
	last := -1
	for _, p := range positions {
		idx := strings.Index(got.Text, p.marker)
		if idx < 0 {
			t.Fatalf("missing %s section (%q):\n%s", p.name, p.marker, got.Text)
		}
		if idx < last {
			t.Errorf("%s section out of order:\n%s", p.name, got.Text)
		}
		last = idx
	}
}

func TestAssemble_SourcesSeededAndDeduped(t *testing.T) {
	a := testAssembler(t, &fakeRetriever{result: retrieval.Result{
		Text:    "[housing-handbook.txt p. 1] chunk text",
		Sources: []string{"housing-handbook.txt", "UGA Community Guide 2025-2026"},
	}})

	got := a.Assemble(context.Background(), Input{Query: "quiet hours"})
	if len(got.Sources) == 0 || got.Sources[0] != GuideSource {
		t.Fatalf("Sources = %v, want guide seeded first", got.Sources)
	}
	counts := make(map[string]int)
	for _, s := range got.Sources {
		counts[s]++
	}
	if counts[GuideSource] != 1 {
		t.Errorf("guide source duplicated: %v", got.Sources)
	}
	if counts["housing-handbook.txt"] != 1 {
		t.Errorf("retrieval source missing or duplicated: %v", got.Sources)
	}
}

func TestAssemble_NoCommunityExcludesLocalSections(t *testing.T) {
	a := testAssembler(t, &fakeRetriever{})

	got := a.Assemble(context.Background(), Input{Query: "how do i get to the rec center"})
	if strings.Contains(got.Text, "Front Desk:") {
		t.Errorf("front desk info without a community:\n%s", got.Text)
	}
	if strings.Contains(got.Text, "Directions from") {
		t.Errorf("directions without a community:\n%s", got.Text)
	}
}

func TestAssemble_FrontDeskPhoneVerbatim(t *testing.T) {
	a := testAssembler(t, &fakeRetriever{})

	got := a.Assemble(context.Background(), Input{Query: "who do I call", Community: creswell(t)})
	if !strings.Contains(got.Text, "(706) 542-5003") {
		t.Errorf("front desk phone not carried verbatim:\n%s", got.Text)
	}
}

func TestAssemble_RetrievalFailureDegrades(t *testing.T) {
	a := testAssembler(t, &fakeRetriever{err: errors.New("embedder down")})

	got := a.Assemble(context.Background(), Input{Query: "quiet hours"})
	if !strings.Contains(got.Text, "Sunday-Thursday 10:00 PM") {
		t.Errorf("structured context lost on retrieval failure:\n%s", got.Text)
	}
}

func TestAssemble_PlaceholderNeverEmpty(t *testing.T) {
	// Empty store: no structured fallback, no retrieval, no community.
	a, err := New(policy.NewRouter(policy.NewStoreFromDocuments(nil)), &fakeRetriever{}, directions.NewResolver(geo.Default()), nil)
	if err != nil {
		t.Fatal(err)
	}

	got := a.Assemble(context.Background(), Input{Query: "hello"})
	if got.Text != Placeholder {
		t.Errorf("Text = %q, want placeholder", got.Text)
	}
	if len(got.Sources) == 0 {
		t.Error("Sources should still carry the guide seed")
	}
}
