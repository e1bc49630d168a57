package llm

// GenerateRequest contains the parameters for a generation request.
// Every pipeline stage issues exactly one of these.
type GenerateRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// GenerateResponse contains the result of a generation request.
type GenerateResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// TotalTokens returns the combined input and output token count.
func (r *GenerateResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
