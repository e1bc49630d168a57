// Package pipeline sequences a query through the stage machine: safety
// screen, intent classification, retrieval, specialist analysis, citation
// verification, finalization. Stages run strictly in order; a stage failure
// degrades to that stage's fallback and the run continues. The only
// short-circuit is a safety refusal.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/moku180/legalaichatbot/internal/agents"
	"github.com/moku180/legalaichatbot/internal/history"
	"github.com/moku180/legalaichatbot/internal/retriever"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

const (
	maxCitations    = 3
	excerptMaxChars = 200
)

// Pipeline owns the stage agents and the stores they report into.
type Pipeline struct {
	safety       *agents.SafetyAgent
	classifier   *agents.Classifier
	specialists  *agents.SpecialistSet
	verifier     *agents.Verifier
	retriever    *retriever.Retriever
	history      *history.Store
	disclaimer   string
	stageTimeout time.Duration
}

// New assembles a pipeline. stageTimeout bounds each LLM-calling stage; a
// stage that exceeds it falls back the same way as any other stage failure.
func New(safety *agents.SafetyAgent, classifier *agents.Classifier, specialists *agents.SpecialistSet,
	verifier *agents.Verifier, ret *retriever.Retriever, hist *history.Store,
	disclaimer string, stageTimeout time.Duration) *Pipeline {
	return &Pipeline{
		safety:       safety,
		classifier:   classifier,
		specialists:  specialists,
		verifier:     verifier,
		retriever:    ret,
		history:      hist,
		disclaimer:   disclaimer,
		stageTimeout: stageTimeout,
	}
}

// Response is the user-visible result of one pipeline run.
type Response struct {
	Answer          string             `json:"answer"`
	Intent          string             `json:"intent,omitempty"`
	AgentsUsed      []string           `json:"agents_used"`
	Citations       []history.Citation `json:"citations"`
	Confidence      float64            `json:"confidence"`
	CitationsValid  bool               `json:"citations_valid"`
	Refused         bool               `json:"refused"`
	RefusalReason   string             `json:"refusal_reason,omitempty"`
	SuggestedAction string             `json:"suggested_action,omitempty"`
	SafetyFlag      string             `json:"safety_flag,omitempty"`
	InputTokens     int                `json:"input_tokens"`
	OutputTokens    int                `json:"output_tokens"`
	Cost            float64            `json:"cost"`
	LatencyMS       int64              `json:"latency_ms"`
	RecordID        string             `json:"record_id,omitempty"`
}

// Run executes the full stage machine for one query.
func (p *Pipeline) Run(ctx context.Context, orgID, userID, query string) (*Response, error) {
	start := time.Now()
	var usage agents.Usage

	// Stage 1: safety screen.
	safetyRes, safetyUsage := p.runSafety(ctx, query)
	if safetyRes.Verdict == agents.VerdictRefuse {
		return p.refuse(ctx, orgID, userID, query, safetyRes, start)
	}
	usage.Add(safetyUsage.InputTokens, safetyUsage.OutputTokens, safetyUsage.Cost)

	safetyFlag := ""
	if safetyRes.Verdict == agents.VerdictWarn {
		safetyFlag = agents.VerdictWarn
	}

	// Stage 2: intent classification. Never blocks; falls back internally.
	classification, classifyUsage := p.runClassify(ctx, query)
	usage.Add(classifyUsage.InputTokens, classifyUsage.OutputTokens, classifyUsage.Cost)

	// Stage 3: retrieval. Always runs; an empty result set is legitimate and
	// the specialists handle "no context" themselves.
	sources := p.runRetrieve(ctx, orgID, query)

	// Stage 4: exactly one specialist, chosen by intent. An invocation error
	// becomes an inline message in the answer, never a pipeline abort.
	specialist := p.specialists.ForIntent(classification.Intent)
	analysis := p.runSpecialist(ctx, specialist, query, sources)
	usage.Add(analysis.InputTokens, analysis.OutputTokens, analysis.Cost)

	// Stage 5: citation verification.
	verification, verifyUsage := p.runVerify(ctx, query, analysis.Answer, sources)
	usage.Add(verifyUsage.InputTokens, verifyUsage.OutputTokens, verifyUsage.Cost)

	// Stage 6: finalization.
	resp := &Response{
		Answer:         analysis.Answer + "\n\n" + p.disclaimer,
		Intent:         classification.Intent,
		AgentsUsed:     classification.Agents,
		Citations:      buildCitations(sources),
		Confidence:     verification.Confidence,
		CitationsValid: verification.CitationsValid,
		SafetyFlag:     safetyFlag,
		InputTokens:    usage.InputTokens,
		OutputTokens:   usage.OutputTokens,
		Cost:           usage.Cost,
		LatencyMS:      time.Since(start).Milliseconds(),
	}
	p.record(ctx, orgID, userID, query, resp)
	return resp, nil
}

// refuse terminates the run before retrieval or analysis. Counters are
// recorded as zero; the disclaimer is still attached.
func (p *Pipeline) refuse(ctx context.Context, orgID, userID, query string, safetyRes *agents.SafetyResult, start time.Time) (*Response, error) {
	answer := safetyRes.Reason
	if answer == "" {
		answer = "This query cannot be answered."
	}
	resp := &Response{
		Answer:          answer + "\n\n" + p.disclaimer,
		AgentsUsed:      []string{"safety"},
		Citations:       []history.Citation{},
		Refused:         true,
		RefusalReason:   safetyRes.Reason,
		SuggestedAction: safetyRes.SuggestedAction,
		SafetyFlag:      agents.VerdictRefuse,
		LatencyMS:       time.Since(start).Milliseconds(),
	}
	p.record(ctx, orgID, userID, query, resp)
	return resp, nil
}

func (p *Pipeline) runSafety(ctx context.Context, query string) (*agents.SafetyResult, agents.Usage) {
	stageCtx, cancel := p.stage(ctx)
	defer cancel()
	return p.safety.Check(stageCtx, query)
}

func (p *Pipeline) runClassify(ctx context.Context, query string) (*agents.ClassificationResult, agents.Usage) {
	stageCtx, cancel := p.stage(ctx)
	defer cancel()
	return p.classifier.Classify(stageCtx, query)
}

func (p *Pipeline) runRetrieve(ctx context.Context, orgID, query string) []vectorindex.SearchResult {
	stageCtx, cancel := p.stage(ctx)
	defer cancel()
	sources, err := p.retriever.RetrieveDiverse(stageCtx, orgID, query, vectorindex.Filters{})
	if err != nil {
		log.Printf("pipeline: retrieval failed for org %s: %v", orgID, err)
		return nil
	}
	return sources
}

func (p *Pipeline) runSpecialist(ctx context.Context, specialist agents.Specialist, query string, sources []vectorindex.SearchResult) *agents.Analysis {
	stageCtx, cancel := p.stage(ctx)
	defer cancel()
	analysis, err := specialist.Analyze(stageCtx, query, sources)
	if err != nil {
		log.Printf("pipeline: %s specialist failed: %v", specialist.Name(), err)
		return &agents.Analysis{
			Answer: fmt.Sprintf("The %s analysis could not be completed: %v. Please try again or rephrase the question.", specialist.Name(), err),
		}
	}
	return analysis
}

func (p *Pipeline) runVerify(ctx context.Context, query, answer string, sources []vectorindex.SearchResult) (*agents.VerificationResult, agents.Usage) {
	stageCtx, cancel := p.stage(ctx)
	defer cancel()
	return p.verifier.Verify(stageCtx, query, answer, sources)
}

func (p *Pipeline) stage(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.stageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.stageTimeout)
}

// record persists the query record. A storage failure is logged, not
// surfaced; the user already has their answer.
func (p *Pipeline) record(ctx context.Context, orgID, userID, query string, resp *Response) {
	if p.history == nil {
		return
	}
	saved, err := p.history.Save(ctx, history.QueryRecord{
		OrganizationID: orgID,
		UserID:         userID,
		QueryText:      query,
		ResponseText:   resp.Answer,
		Intent:         resp.Intent,
		AgentsUsed:     resp.AgentsUsed,
		Citations:      resp.Citations,
		Confidence:     resp.Confidence,
		InputTokens:    resp.InputTokens,
		OutputTokens:   resp.OutputTokens,
		Cost:           resp.Cost,
		LatencyMS:      resp.LatencyMS,
		SafetyFlag:     resp.SafetyFlag,
	})
	if err != nil {
		log.Printf("pipeline: saving query record failed: %v", err)
		return
	}
	resp.RecordID = saved.ID
}

// buildCitations trims the retrieved sources to the top few, each with the
// document title, a short excerpt and the identifying metadata.
func buildCitations(sources []vectorindex.SearchResult) []history.Citation {
	citations := make([]history.Citation, 0, maxCitations)
	for _, src := range sources {
		if len(citations) >= maxCitations {
			break
		}
		excerpt := src.Text
		if len(excerpt) > excerptMaxChars {
			// Cut on a rune boundary so the excerpt stays valid UTF-8.
			cut := excerptMaxChars
			for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
				cut--
			}
			excerpt = excerpt[:cut] + "..."
		}
		title := src.Metadata.Title
		if title == "" {
			title = "Untitled document"
		}
		citations = append(citations, history.Citation{
			Title:        title,
			Excerpt:      excerpt,
			Section:      src.Metadata.Section,
			Jurisdiction: src.Metadata.Jurisdiction,
			DocumentType: src.Metadata.DocumentType,
			Year:         src.Metadata.Year,
		})
	}
	return citations
}
