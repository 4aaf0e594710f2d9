package llm

import (
	"errors"
	"fmt"
)

// Kind tags a model-call failure so the retry policy and callers can switch
// on it without string matching.
type Kind int

const (
	// KindAPI is a generic upstream failure (non-2xx, transport error).
	KindAPI Kind = iota
	// KindRateLimit is an HTTP 429 from the model API.
	KindRateLimit
	// KindTimeout is a client-side timeout, a deadline, or a 408/504.
	KindTimeout
	// KindInvalidResponse is a 2xx whose body could not be used.
	KindInvalidResponse
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "api"
	}
}

var (
	ErrMissingAPIKey      = errors.New("llm: api key is required")
	ErrInvalidTemperature = errors.New("llm: temperature must be between 0 and 2")
	ErrInvalidMaxTokens   = errors.New("llm: max tokens must be positive")
	ErrNoMessages         = errors.New("llm: at least one message is required")
)

// Error is a tagged model-call failure.
type Error struct {
	Kind   Kind
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Retryable reports whether err is a tagged failure worth another attempt.
// Validation errors and unusable responses are final.
func Retryable(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	switch k {
	case KindRateLimit, KindTimeout, KindAPI:
		return true
	default:
		return false
	}
}
