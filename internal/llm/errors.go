package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for provider failures. Callers use errors.Is to decide
// whether a failure is transient (retryable at the call site) or terminal.
var (
	// ErrRateLimited indicates the provider rejected the call for exceeding
	// its request or token ceiling.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates the provider is overloaded or unreachable.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrMalformedOutput indicates a structured response could not be parsed.
	ErrMalformedOutput = errors.New("malformed model output")
)

// IsTransient reports whether the error is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// classifyError wraps raw provider errors with the matching sentinel so that
// callers can branch on errors.Is without knowing provider specifics.
func classifyError(provider string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case statusCode == 429,
		strings.Contains(msg, "rate_limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "quota"):
		return fmt.Errorf("%s: %w: %v", provider, ErrRateLimited, err)
	case statusCode == 503, statusCode == 529,
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "connection refused"):
		return fmt.Errorf("%s: %w: %v", provider, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", provider, err)
	}
}
