package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a surrounding markdown code fence, if present. Models
// asked for JSON still wrap it in ```json blocks often enough that every
// structured parse goes through this first.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return raw
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}

func parseSafety(raw string) (*SafetyResult, error) {
	var res SafetyResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}
	res.Verdict = strings.ToUpper(strings.TrimSpace(res.Verdict))
	switch res.Verdict {
	case VerdictPass, VerdictWarn, VerdictRefuse:
		return &res, nil
	}
	return nil, fmt.Errorf("unknown safety verdict %q", res.Verdict)
}

func parseClassification(raw string) (*ClassificationResult, error) {
	var res ClassificationResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}
	res.Intent = strings.ToLower(strings.TrimSpace(res.Intent))
	if !validIntents[res.Intent] {
		return nil, fmt.Errorf("unknown intent %q", res.Intent)
	}
	return &res, nil
}

func parseVerification(raw string) (*VerificationResult, error) {
	var res VerificationResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", res.Confidence)
	}
	return &res, nil
}
