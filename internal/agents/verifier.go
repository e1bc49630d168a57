package agents

import (
	"context"
	"fmt"
	"log"

	"github.com/moku180/legalaichatbot/internal/llm"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

// Verifier scores a specialist's answer against the retrieved sources.
type Verifier struct {
	provider llm.Provider
	model    string
}

func NewVerifier(provider llm.Provider, model string) *Verifier {
	return &Verifier{provider: provider, model: model}
}

// Verify judges citation support for the answer. Any failure degrades to the
// conservative default: moderate confidence, citations unverified.
func (v *Verifier) Verify(ctx context.Context, query, answer string, sources []vectorindex.SearchResult) (*VerificationResult, Usage) {
	var usage Usage
	prompt := fmt.Sprintf("Query:\n%s\n\nAnswer:\n%s\n\nSources:\n%s", query, answer, formatContext(sources))
	resp, err := v.provider.Generate(ctx, llm.GenerateRequest{
		Model:        v.model,
		SystemPrompt: verifierSystemPrompt,
		UserPrompt:   prompt,
		MaxTokens:    512,
		Temperature:  0.0,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("agents: verification failed: %v", err)
		return DefaultVerification(), usage
	}
	usage.Add(resp.InputTokens, resp.OutputTokens, llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens))

	res, err := parseVerification(resp.Text)
	if err != nil {
		log.Printf("agents: unparseable verification: %v", err)
		return DefaultVerification(), usage
	}
	return res, usage
}
