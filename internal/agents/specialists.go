package agents

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/moku180/legalaichatbot/internal/llm"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

// Specialist turns a query plus retrieved context into a grounded answer.
// Five implementations cover the intent labels; new legal domains are added
// as new implementations, not new branching at the call sites.
type Specialist interface {
	Analyze(ctx context.Context, query string, sources []vectorindex.SearchResult) (*Analysis, error)
	Name() string
}

// contextSpecialist is the shared shape of the specialists that reason over
// retrieved chunks. They differ only in name and system prompt.
type contextSpecialist struct {
	provider llm.Provider
	model    string
	name     string
	system   string
}

func (s *contextSpecialist) Name() string { return s.name }

func (s *contextSpecialist) Analyze(ctx context.Context, query string, sources []vectorindex.SearchResult) (*Analysis, error) {
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", formatContext(sources), query)
	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		Model:        s.model,
		SystemPrompt: s.system,
		UserPrompt:   prompt,
		MaxTokens:    2048,
		Temperature:  0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%s analysis: %w", s.name, err)
	}
	return &Analysis{
		Answer:       resp.Text,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		Cost:         llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens),
	}, nil
}

// contractSpecialist analyzes the query itself as candidate contract text.
// Retrieved sources are ignored; the input is truncated to a character
// ceiling so a pasted contract cannot blow the prompt budget.
type contractSpecialist struct {
	provider llm.Provider
	model    string
	maxChars int
}

func (s *contractSpecialist) Name() string { return "contract" }

func (s *contractSpecialist) Analyze(ctx context.Context, query string, _ []vectorindex.SearchResult) (*Analysis, error) {
	text := truncateAtRune(query, s.maxChars)
	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		Model:        s.model,
		SystemPrompt: contractSystemPrompt,
		UserPrompt:   text,
		MaxTokens:    2048,
		Temperature:  0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("contract analysis: %w", err)
	}
	return &Analysis{
		Answer:       resp.Text,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		Cost:         llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens),
	}, nil
}

// SpecialistSet maps intents to specialists. Unmatched intents fall through
// to the hybrid specialist.
type SpecialistSet struct {
	byIntent map[string]Specialist
	hybrid   Specialist
}

func NewSpecialistSet(provider llm.Provider, model string, maxContractChars int) *SpecialistSet {
	hybrid := &contextSpecialist{provider: provider, model: model, name: "hybrid", system: hybridSystemPrompt}
	return &SpecialistSet{
		hybrid: hybrid,
		byIntent: map[string]Specialist{
			IntentStatutory:  &contextSpecialist{provider: provider, model: model, name: "statutory", system: statutorySystemPrompt},
			IntentCaseLaw:    &contextSpecialist{provider: provider, model: model, name: "case_law", system: caseLawSystemPrompt},
			IntentCompliance: &contextSpecialist{provider: provider, model: model, name: "compliance", system: complianceSystemPrompt},
			IntentContract:   &contractSpecialist{provider: provider, model: model, maxChars: maxContractChars},
			IntentGeneral:    hybrid,
		},
	}
}

// ForIntent returns the specialist for the intent, or the hybrid specialist
// when the intent is unknown.
func (s *SpecialistSet) ForIntent(intent string) Specialist {
	if sp, ok := s.byIntent[intent]; ok {
		return sp
	}
	return s.hybrid
}

// truncateAtRune cuts s to at most max bytes without splitting a multi-byte
// rune, stepping back to the nearest rune boundary.
func truncateAtRune(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
