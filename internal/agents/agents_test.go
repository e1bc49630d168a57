package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/moku180/legalaichatbot/internal/llm"
)

// stubProvider returns a canned response, or an error when failWith is set.
type stubProvider struct {
	text     string
	failWith error
	lastReq  llm.GenerateRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.lastReq = req
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &llm.GenerateResponse{Text: s.text, InputTokens: 10, OutputTokens: 5, Model: req.Model}, nil
}

func TestClassifierFallsBackOnInvalidJSON(t *testing.T) {
	c := NewClassifier(&stubProvider{text: "I think this is about contracts, maybe?"}, "gpt-4o")
	res, usage := c.Classify(context.Background(), "what is a lease?")

	if res.Intent != IntentGeneral {
		t.Errorf("expected general_legal fallback, got %q", res.Intent)
	}
	want := []string{"retriever", "verification", "safety"}
	if len(res.Agents) != len(want) {
		t.Fatalf("expected agents %v, got %v", want, res.Agents)
	}
	for i := range want {
		if res.Agents[i] != want[i] {
			t.Errorf("agent %d: got %q, want %q", i, res.Agents[i], want[i])
		}
	}
	// The call happened, so its tokens are still counted.
	if usage.InputTokens != 10 {
		t.Errorf("expected usage recorded, got %+v", usage)
	}
}

func TestClassifierFallsBackOnProviderError(t *testing.T) {
	c := NewClassifier(&stubProvider{failWith: llm.ErrUnavailable}, "gpt-4o")
	res, usage := c.Classify(context.Background(), "anything")
	if res.Intent != IntentGeneral {
		t.Errorf("expected general_legal fallback, got %q", res.Intent)
	}
	if usage.InputTokens != 0 {
		t.Errorf("failed call should record no usage, got %+v", usage)
	}
}

func TestClassifierAlwaysAppendsMandatoryAgents(t *testing.T) {
	c := NewClassifier(&stubProvider{text: `{"intent":"case_law_research","agents":["retriever"],"confidence":0.8}`}, "gpt-4o")
	res, _ := c.Classify(context.Background(), "find precedents")
	joined := strings.Join(res.Agents, ",")
	if !strings.Contains(joined, "verification") || !strings.Contains(joined, "safety") {
		t.Errorf("mandatory agents missing: %v", res.Agents)
	}
}

func TestSafetyWarnFallback(t *testing.T) {
	a := NewSafetyAgent(&stubProvider{failWith: errors.New("boom")}, "gpt-4o")
	res, _ := a.Check(context.Background(), "is this legal?")
	if res.Verdict != VerdictWarn {
		t.Errorf("safety failure should degrade to WARN, got %q", res.Verdict)
	}
}

func TestSafetyRefuse(t *testing.T) {
	a := NewSafetyAgent(&stubProvider{text: `{"verdict":"REFUSE","reason":"criminal intent","suggested_action":"consult an attorney"}`}, "gpt-4o")
	res, usage := a.Check(context.Background(), "how do I hide assets from the court?")
	if res.Verdict != VerdictRefuse {
		t.Fatalf("expected REFUSE, got %q", res.Verdict)
	}
	if res.SuggestedAction == "" {
		t.Error("refusal should carry a suggested action")
	}
	if usage.InputTokens == 0 {
		t.Error("safety call usage should be reported to the caller")
	}
}

func TestVerifierFallback(t *testing.T) {
	v := NewVerifier(&stubProvider{text: "the answer looks fine to me"}, "gpt-4o")
	res, _ := v.Verify(context.Background(), "q", "a", nil)
	if res.Confidence != 0.5 {
		t.Errorf("fallback confidence should be 0.5, got %v", res.Confidence)
	}
	if res.CitationsValid {
		t.Error("fallback should mark citations unverified")
	}
}

func TestSpecialistSetDispatch(t *testing.T) {
	set := NewSpecialistSet(&stubProvider{text: "answer"}, "gpt-4o", 1000)

	cases := map[string]string{
		IntentStatutory:  "statutory",
		IntentCaseLaw:    "case_law",
		IntentContract:   "contract",
		IntentCompliance: "compliance",
		IntentGeneral:    "hybrid",
		"unknown_intent": "hybrid",
	}
	for intent, wantName := range cases {
		if got := set.ForIntent(intent).Name(); got != wantName {
			t.Errorf("intent %q dispatched to %q, want %q", intent, got, wantName)
		}
	}
}

func TestContractSpecialistTruncatesInput(t *testing.T) {
	stub := &stubProvider{text: "reviewed"}
	set := NewSpecialistSet(stub, "gpt-4o", 50)

	longContract := strings.Repeat("WHEREAS the parties agree ", 20)
	analysis, err := set.ForIntent(IntentContract).Analyze(context.Background(), longContract, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(stub.lastReq.UserPrompt) != 50 {
		t.Errorf("contract input not truncated: %d chars", len(stub.lastReq.UserPrompt))
	}
	if analysis.Answer != "reviewed" {
		t.Errorf("unexpected answer %q", analysis.Answer)
	}
}

func TestContractTruncationKeepsValidUTF8(t *testing.T) {
	stub := &stubProvider{text: "reviewed"}
	// "§ 12 " is 6 bytes with the two-byte section sign first; a 13-byte
	// ceiling lands inside the third sign, so the cut must step back to the
	// rune boundary.
	set := NewSpecialistSet(stub, "gpt-4o", 13)

	if _, err := set.ForIntent(IntentContract).Analyze(context.Background(), strings.Repeat("§ 12 ", 10), nil); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	got := stub.lastReq.UserPrompt
	if !utf8.ValidString(got) {
		t.Errorf("truncated prompt is not valid UTF-8: %q", got)
	}
	if len(got) != 12 {
		t.Errorf("expected cut back to 12 bytes, got %d (%q)", len(got), got)
	}
}

func TestSpecialistNoContextFraming(t *testing.T) {
	stub := &stubProvider{text: "general knowledge answer"}
	set := NewSpecialistSet(stub, "gpt-4o", 1000)

	_, err := set.ForIntent(IntentStatutory).Analyze(context.Background(), "what is adverse possession?", nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(stub.lastReq.UserPrompt, "No relevant documents") {
		t.Error("empty retrieval should be framed explicitly in the prompt")
	}
}
