package agents

import (
	"context"
	"log"

	"github.com/moku180/legalaichatbot/internal/llm"
)

// SafetyAgent screens queries before any retrieval or analysis happens.
type SafetyAgent struct {
	provider llm.Provider
	model    string
}

func NewSafetyAgent(provider llm.Provider, model string) *SafetyAgent {
	return &SafetyAgent{provider: provider, model: model}
}

// Check classifies the query as PASS, WARN or REFUSE. A provider failure or
// unparseable response degrades to a WARN so the screen itself never takes
// the service down. Usage is reported regardless of outcome; the caller
// decides what to record.
func (a *SafetyAgent) Check(ctx context.Context, query string) (*SafetyResult, Usage) {
	var usage Usage
	resp, err := a.provider.Generate(ctx, llm.GenerateRequest{
		Model:        a.model,
		SystemPrompt: safetySystemPrompt,
		UserPrompt:   query,
		MaxTokens:    256,
		Temperature:  0.0,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("agents: safety check failed: %v", err)
		return DefaultSafetyResult(), usage
	}
	usage.Add(resp.InputTokens, resp.OutputTokens, llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens))

	res, err := parseSafety(resp.Text)
	if err != nil {
		log.Printf("agents: unparseable safety verdict: %v", err)
		return DefaultSafetyResult(), usage
	}
	return res, usage
}
