// Package history records completed pipeline runs so organizations can
// audit what was asked, what was answered, and what it cost.
package history

import "time"

// Citation is one source the response drew on.
type Citation struct {
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt"`
	Section      string `json:"section,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	Year         int    `json:"year,omitempty"`
}

// QueryRecord is one completed or refused pipeline run. Created at the end
// of the run and never mutated afterwards.
type QueryRecord struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	UserID         string     `json:"user_id"`
	QueryText      string     `json:"query_text"`
	ResponseText   string     `json:"response_text"`
	Intent         string     `json:"intent"`
	AgentsUsed     []string   `json:"agents_used"`
	Citations      []Citation `json:"citations"`
	Confidence     float64    `json:"confidence"`
	InputTokens    int        `json:"input_tokens"`
	OutputTokens   int        `json:"output_tokens"`
	Cost           float64    `json:"cost"`
	LatencyMS      int64      `json:"latency_ms"`
	SafetyFlag     string     `json:"safety_flag,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListFilter narrows a history listing.
type ListFilter struct {
	UserID string
	Intent string
	Limit  int
	Offset int
}
