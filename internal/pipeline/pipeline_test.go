package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/moku180/legalaichatbot/internal/agents"
	"github.com/moku180/legalaichatbot/internal/chunker"
	"github.com/moku180/legalaichatbot/internal/db"
	"github.com/moku180/legalaichatbot/internal/embeddings"
	"github.com/moku180/legalaichatbot/internal/history"
	"github.com/moku180/legalaichatbot/internal/llm"
	"github.com/moku180/legalaichatbot/internal/retriever"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

const testDisclaimer = "This is general legal information, not legal advice."

// routedProvider answers each pipeline stage with a scripted response,
// routing on the stage's system prompt. Call counts let tests assert which
// stages ran.
type routedProvider struct {
	safetyText     string
	classifyText   string
	classifyErr    error
	specialistText string
	specialistErr  error
	verifyText     string

	safetyCalls     int
	classifyCalls   int
	specialistCalls int
	verifyCalls     int
}

func (p *routedProvider) Name() string { return "routed" }

func (p *routedProvider) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	switch {
	case strings.Contains(req.SystemPrompt, "safety screener"):
		p.safetyCalls++
		return &llm.GenerateResponse{Text: p.safetyText, InputTokens: 10, OutputTokens: 5, Model: req.Model}, nil
	case strings.Contains(req.SystemPrompt, "intent classifier"):
		p.classifyCalls++
		if p.classifyErr != nil {
			return nil, p.classifyErr
		}
		return &llm.GenerateResponse{Text: p.classifyText, InputTokens: 10, OutputTokens: 5, Model: req.Model}, nil
	case strings.Contains(req.SystemPrompt, "citation verifier"):
		p.verifyCalls++
		return &llm.GenerateResponse{Text: p.verifyText, InputTokens: 10, OutputTokens: 5, Model: req.Model}, nil
	default:
		p.specialistCalls++
		if p.specialistErr != nil {
			return nil, p.specialistErr
		}
		return &llm.GenerateResponse{Text: p.specialistText, InputTokens: 20, OutputTokens: 15, Model: req.Model}, nil
	}
}

// constantEmbedder maps every text to the same vector, so any indexed chunk
// is retrievable by any query.
type constantEmbedder struct{}

func (constantEmbedder) Dimensions() int { return 3 }

func (constantEmbedder) EmbedOne(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (constantEmbedder) EmbedBatch(_ context.Context, texts []string) ([]embeddings.BatchResult, error) {
	out := make([]embeddings.BatchResult, len(texts))
	for i := range texts {
		out[i] = embeddings.BatchResult{Index: i, Vector: []float32{1, 0, 0}}
	}
	return out, nil
}

func testPipeline(t *testing.T, provider llm.Provider) (*Pipeline, *vectorindex.Store, *history.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	index := vectorindex.NewStore(t.TempDir(), constantEmbedder{}, nil)
	ret := retriever.New(index, 5, 0.3)
	hist := history.NewStore(database)

	p := New(
		agents.NewSafetyAgent(provider, "gpt-4o"),
		agents.NewClassifier(provider, "gpt-4o"),
		agents.NewSpecialistSet(provider, "gpt-4o", 50000),
		agents.NewVerifier(provider, "gpt-4o"),
		ret,
		hist,
		testDisclaimer,
		5*time.Second,
	)
	return p, index, hist
}

func ingestText(t *testing.T, index *vectorindex.Store, orgID, docID, title, text string) {
	t.Helper()
	ch := chunker.New(600, 100)
	chunks := ch.Chunk(text, chunker.Metadata{DocumentID: docID, OrganizationID: orgID, Title: title})
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	if err := index.Add(context.Background(), orgID, chunks); err != nil {
		t.Fatalf("indexing: %v", err)
	}
}

func TestRefusalShortCircuits(t *testing.T) {
	provider := &routedProvider{
		safetyText: `{"verdict":"REFUSE","reason":"This asks for help evading the law.","suggested_action":"Consult a licensed attorney."}`,
	}
	p, _, hist := testPipeline(t, provider)

	resp, err := p.Run(context.Background(), "org-1", "user-1", "how do I destroy evidence?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !resp.Refused {
		t.Fatal("expected a refusal")
	}
	if provider.classifyCalls != 0 || provider.specialistCalls != 0 || provider.verifyCalls != 0 {
		t.Errorf("refusal must not reach later stages: classify=%d specialist=%d verify=%d",
			provider.classifyCalls, provider.specialistCalls, provider.verifyCalls)
	}
	if resp.InputTokens != 0 || resp.OutputTokens != 0 || resp.Cost != 0 {
		t.Errorf("refusal must record zero counters: %+v", resp)
	}
	if !strings.Contains(resp.Answer, testDisclaimer) {
		t.Error("refusal should still carry the disclaimer")
	}
	if resp.SuggestedAction == "" {
		t.Error("refusal should carry a suggested action")
	}

	records, err := hist.List(context.Background(), "org-1", history.ListFilter{})
	if err != nil || len(records) != 1 {
		t.Fatalf("expected 1 query record, got %d (err %v)", len(records), err)
	}
	if records[0].SafetyFlag != agents.VerdictRefuse {
		t.Errorf("record should carry the refusal flag, got %q", records[0].SafetyFlag)
	}
	if records[0].InputTokens != 0 {
		t.Errorf("recorded counters should be zero, got %d", records[0].InputTokens)
	}
}

func TestStatutoryQueryScenario(t *testing.T) {
	const source = "Section 45 of the Robotics Act 2025 states that robots must not harm humans."
	provider := &routedProvider{
		safetyText:     `{"verdict":"PASS","reason":""}`,
		classifyText:   `{"intent":"statutory_interpretation","agents":["retriever"],"confidence":0.9}`,
		specialistText: `Section 45 of the Robotics Act 2025 states that "robots must not harm humans." This is the operative rule.`,
		verifyText:     `{"citations_valid":true,"unsupported_claims":[],"confidence":0.85,"notes":"directly quoted"}`,
	}
	p, index, _ := testPipeline(t, provider)
	ingestText(t, index, "org-1", "doc-1", "Robotics Act 2025", source)

	resp, err := p.Run(context.Background(), "org-1", "user-1", "What is Section 45 of the Robotics Act?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if resp.Intent != agents.IntentStatutory {
		t.Errorf("expected statutory_interpretation, got %q", resp.Intent)
	}
	if len(resp.Citations) == 0 {
		t.Fatal("expected at least one citation")
	}
	if !strings.Contains(resp.Citations[0].Excerpt, "Section 45") {
		t.Errorf("citation excerpt should contain the section, got %q", resp.Citations[0].Excerpt)
	}
	if !strings.Contains(resp.Answer, "robots must not harm humans") {
		t.Errorf("answer should quote the source, got %q", resp.Answer)
	}
	if resp.Confidence <= 0.5 {
		t.Errorf("expected confidence above 0.5, got %v", resp.Confidence)
	}
	if !strings.HasSuffix(resp.Answer, testDisclaimer) {
		t.Error("answer should end with the disclaimer")
	}
	if resp.InputTokens == 0 || resp.OutputTokens == 0 {
		t.Error("completed run should record token counters")
	}
}

func TestClassifierFailureStillCompletes(t *testing.T) {
	provider := &routedProvider{
		safetyText:     `{"verdict":"PASS","reason":""}`,
		classifyErr:    errors.New("model timeout"),
		specialistText: "General legal guidance follows.",
		verifyText:     `{"citations_valid":false,"confidence":0.6,"notes":""}`,
	}
	p, _, _ := testPipeline(t, provider)

	resp, err := p.Run(context.Background(), "org-1", "user-1", "what is a tort?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if resp.Intent != agents.IntentGeneral {
		t.Errorf("expected general_legal fallback, got %q", resp.Intent)
	}
	want := []string{"retriever", "verification", "safety"}
	if len(resp.AgentsUsed) != len(want) {
		t.Fatalf("expected agents %v, got %v", want, resp.AgentsUsed)
	}
	for i := range want {
		if resp.AgentsUsed[i] != want[i] {
			t.Errorf("agent %d: got %q, want %q", i, resp.AgentsUsed[i], want[i])
		}
	}
	if provider.specialistCalls != 1 {
		t.Errorf("specialist should still run once, ran %d times", provider.specialistCalls)
	}
}

func TestSpecialistErrorEmbeddedInline(t *testing.T) {
	provider := &routedProvider{
		safetyText:    `{"verdict":"PASS","reason":""}`,
		classifyText:  `{"intent":"case_law_research","agents":["retriever"],"confidence":0.9}`,
		specialistErr: llm.ErrUnavailable,
		verifyText:    `{"citations_valid":false,"confidence":0.5,"notes":""}`,
	}
	p, _, _ := testPipeline(t, provider)

	resp, err := p.Run(context.Background(), "org-1", "user-1", "find precedents on drone trespass")
	if err != nil {
		t.Fatalf("specialist failure must not abort the pipeline: %v", err)
	}
	if !strings.Contains(resp.Answer, "could not be completed") {
		t.Errorf("expected inline error message in answer, got %q", resp.Answer)
	}
	if provider.verifyCalls != 1 {
		t.Error("verification should still run after a specialist failure")
	}
}

func TestWarnVerdictFlagsButContinues(t *testing.T) {
	provider := &routedProvider{
		safetyText:     `{"verdict":"WARN","reason":"sensitive topic"}`,
		classifyText:   `{"intent":"general_legal","agents":["retriever"],"confidence":0.7}`,
		specialistText: "Careful general answer.",
		verifyText:     `{"citations_valid":false,"confidence":0.6,"notes":""}`,
	}
	p, _, _ := testPipeline(t, provider)

	resp, err := p.Run(context.Background(), "org-1", "user-1", "can I represent myself in a murder trial?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Refused {
		t.Fatal("WARN must not refuse")
	}
	if resp.SafetyFlag != agents.VerdictWarn {
		t.Errorf("expected WARN flag, got %q", resp.SafetyFlag)
	}
	if provider.specialistCalls != 1 {
		t.Error("pipeline should continue past a WARN")
	}
}

func TestCitationExcerptKeepsValidUTF8(t *testing.T) {
	// Three-byte runes put the excerpt ceiling mid-rune; the cut must step
	// back to a boundary instead of emitting a broken byte sequence.
	long := strings.Repeat("条", 100)
	citations := buildCitations([]vectorindex.SearchResult{
		{Text: long, Metadata: chunker.Metadata{Title: "Civil Code"}},
	})
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	excerpt := strings.TrimSuffix(citations[0].Excerpt, "...")
	if !utf8.ValidString(excerpt) {
		t.Errorf("excerpt is not valid UTF-8: %q", excerpt)
	}
	if len(excerpt) != 198 {
		t.Errorf("expected cut back to 198 bytes, got %d", len(excerpt))
	}
}
