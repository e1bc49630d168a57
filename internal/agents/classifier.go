package agents

import (
	"context"
	"log"

	"github.com/moku180/legalaichatbot/internal/llm"
)

// Classifier assigns an intent label and the agent list for a query.
type Classifier struct {
	provider llm.Provider
	model    string
}

func NewClassifier(provider llm.Provider, model string) *Classifier {
	return &Classifier{provider: provider, model: model}
}

// Classify routes the query. Malformed output or a provider error falls back
// to the default classification; classification never blocks the pipeline.
// The verification and safety agents are always present in the returned
// agent list, whatever the model suggested.
func (c *Classifier) Classify(ctx context.Context, query string) (*ClassificationResult, Usage) {
	var usage Usage
	resp, err := c.provider.Generate(ctx, llm.GenerateRequest{
		Model:        c.model,
		SystemPrompt: classifierSystemPrompt,
		UserPrompt:   query,
		MaxTokens:    256,
		Temperature:  0.0,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("agents: classification failed: %v", err)
		res := DefaultClassification()
		res.Agents = normalizeAgents(res.Agents)
		return res, usage
	}
	usage.Add(resp.InputTokens, resp.OutputTokens, llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens))

	res, err := parseClassification(resp.Text)
	if err != nil {
		log.Printf("agents: unparseable classification: %v", err)
		res = DefaultClassification()
	}
	res.Agents = normalizeAgents(res.Agents)
	return res, usage
}
