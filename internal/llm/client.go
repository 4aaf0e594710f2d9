// Package llm is the language-model request layer: a chat-completions client
// for OpenAI-compatible APIs, tagged failure kinds, and a retry policy with
// exponential backoff.
//
// Completer is the seam the summarizer depends on. Client performs exactly one
// HTTP request per call; RetryingClient wraps any Completer with Retrier.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tbourn/paper-digest/internal/observability"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4-turbo-preview"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000

	defaultTimeout = 60 * time.Second
	maxRespBytes   = 4 << 20
)

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CallOptions override client defaults for one call. Zero values mean
// "use the client default".
type CallOptions struct {
	Temperature *float64
	MaxTokens   int
}

// Completer returns the assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, msgs []Message, opts CallOptions) (string, error)
}

// Client is a chat-completions client. It is safe for concurrent use.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTP        *http.Client
	// Limiter paces outgoing requests; nil means unpaced.
	Limiter *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.BaseURL = u
		}
	}
}

func WithModel(m string) Option {
	return func(c *Client) {
		if m = strings.TrimSpace(m); m != "" {
			c.Model = m
		}
	}
}

func WithTemperature(t float64) Option { return func(c *Client) { c.Temperature = t } }

func WithMaxTokens(n int) Option { return func(c *Client) { c.MaxTokens = n } }

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.HTTP = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit paces requests to rps with the given burst. rps <= 0 disables
// pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.Limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New builds a Client. It fails when the key is empty or the default
// temperature or max tokens are out of range.
func New(apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		BaseURL:     DefaultBaseURL,
		APIKey:      strings.TrimSpace(apiKey),
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		HTTP:        &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := ValidateTemperature(c.Temperature); err != nil {
		return nil, err
	}
	if c.MaxTokens <= 0 {
		return nil, ErrInvalidMaxTokens
	}
	return c, nil
}

// ValidateTemperature rejects values outside [0, 2].
func ValidateTemperature(t float64) error {
	if t < 0 || t > 2 {
		return fmt.Errorf("%w: got %v", ErrInvalidTemperature, t)
	}
	return nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat-completions request. Option validation happens
// before anything touches the network.
func (c *Client) Complete(ctx context.Context, msgs []Message, opts CallOptions) (string, error) {
	if len(msgs) == 0 {
		return "", ErrNoMessages
	}
	temp := c.Temperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	if err := ValidateTemperature(temp); err != nil {
		return "", err
	}
	maxTokens := c.MaxTokens
	if opts.MaxTokens != 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens < 0 {
		return "", ErrInvalidMaxTokens
	}

	payload, err := json.Marshal(chatRequest{Model: c.Model, Messages: msgs, Temperature: temp, MaxTokens: maxTokens})
	if err != nil {
		return "", err
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", record(classifyWait(ctx, err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", record(classifyTransport(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRespBytes))
	if err != nil {
		return "", record(classifyTransport(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", record(classifyStatus(resp.StatusCode, body))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", record(&Error{Kind: KindInvalidResponse, Status: resp.StatusCode, Err: err})
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", record(&Error{Kind: KindInvalidResponse, Status: resp.StatusCode, Err: errors.New("empty completion")})
	}
	observability.ObserveLLMRequest("ok")
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func record(e *Error) *Error {
	observability.ObserveLLMRequest(e.Kind.String())
	return e
}

func classifyStatus(status int, body []byte) *Error {
	msg := http.StatusText(status)
	var apiErr apiErrorBody
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	kind := KindAPI
	switch status {
	case http.StatusTooManyRequests:
		kind = KindRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &Error{Kind: kind, Status: status, Err: errors.New(msg)}
}

// classifyWait tags a limiter failure. Wait refuses up front, with its own
// error, when the next token lands after the context deadline.
func classifyWait(ctx context.Context, err error) *Error {
	if _, ok := ctx.Deadline(); ok {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return classifyTransport(err)
}

func classifyTransport(err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindAPI, Err: err}
}
