// Package agents contains the LLM-backed stages of the query pipeline: the
// safety gate, the intent classifier, the domain specialists and the citation
// verifier. Every agent makes exactly one generation call per invocation and
// degrades to a conservative default instead of failing the request.
package agents

import "strings"

// Safety verdicts.
const (
	VerdictPass   = "PASS"
	VerdictWarn   = "WARN"
	VerdictRefuse = "REFUSE"
)

// Intent labels the classifier may assign.
const (
	IntentStatutory  = "statutory_interpretation"
	IntentCaseLaw    = "case_law_research"
	IntentContract   = "contract_analysis"
	IntentCompliance = "compliance_check"
	IntentGeneral    = "general_legal"
)

var validIntents = map[string]bool{
	IntentStatutory:  true,
	IntentCaseLaw:    true,
	IntentContract:   true,
	IntentCompliance: true,
	IntentGeneral:    true,
}

// SafetyResult is the outcome of the safety screen.
type SafetyResult struct {
	Verdict         string `json:"verdict"`
	Reason          string `json:"reason"`
	SuggestedAction string `json:"suggested_action"`
}

// DefaultSafetyResult is used when the safety model's output cannot be
// trusted. It warns rather than refusing, so a flaky provider does not make
// the whole service turn users away.
func DefaultSafetyResult() *SafetyResult {
	return &SafetyResult{
		Verdict: VerdictWarn,
		Reason:  "safety screening unavailable; proceeding with caution",
	}
}

// ClassificationResult routes a query to a specialist.
type ClassificationResult struct {
	Intent     string   `json:"intent"`
	Agents     []string `json:"agents"`
	Confidence float64  `json:"confidence"`
}

// DefaultClassification is the fallback route when classification fails:
// a general-purpose answer over whatever retrieval finds.
func DefaultClassification() *ClassificationResult {
	return &ClassificationResult{
		Intent:     IntentGeneral,
		Agents:     []string{"retriever", "verification", "safety"},
		Confidence: 0.3,
	}
}

// normalizeAgents appends the mandatory verification and safety agents and
// removes case-insensitive duplicates, preserving first-seen order.
func normalizeAgents(agents []string) []string {
	all := append(append([]string{}, agents...), "verification", "safety")
	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, a := range all {
		key := strings.ToLower(strings.TrimSpace(a))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// VerificationResult is the verifier's judgment of an answer.
type VerificationResult struct {
	CitationsValid    bool     `json:"citations_valid"`
	UnsupportedClaims []string `json:"unsupported_claims"`
	Confidence        float64  `json:"confidence"`
	Notes             string   `json:"notes"`
}

// DefaultVerification marks the answer as unverified at moderate confidence.
func DefaultVerification() *VerificationResult {
	return &VerificationResult{
		CitationsValid: false,
		Confidence:     0.5,
		Notes:          "verification unavailable; citations not checked",
	}
}

// Analysis is a specialist's answer plus its resource accounting.
type Analysis struct {
	Answer       string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Usage accumulates token and cost counters across pipeline stages.
type Usage struct {
	InputTokens  int
	OutputTokens int
	Cost         float64
}

func (u *Usage) Add(in, out int, cost float64) {
	u.InputTokens += in
	u.OutputTokens += out
	u.Cost += cost
}
