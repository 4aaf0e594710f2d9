package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func fakeAPI(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := New("sk-test", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, &calls
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`))
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func userMsg(s string) []Message { return []Message{{Role: RoleUser, Content: s}} }

func TestNew_Validation(t *testing.T) {
	if _, err := New(" "); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if _, err := New("k", WithTemperature(2.5)); !errors.Is(err, ErrInvalidTemperature) {
		t.Fatalf("expected ErrInvalidTemperature, got %v", err)
	}
	if _, err := New("k", WithMaxTokens(0)); !errors.Is(err, ErrInvalidMaxTokens) {
		t.Fatalf("expected ErrInvalidMaxTokens, got %v", err)
	}
	c, err := New("k")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Model != DefaultModel || c.Temperature != DefaultTemperature || c.MaxTokens != DefaultMaxTokens || c.Limiter != nil {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	c, _ = New("k", WithRateLimit(2, 0), WithModel("m"), WithTimeout(time.Second))
	if c.Limiter == nil || c.Limiter.Burst() != 1 || c.Model != "m" || c.HTTP.Timeout != time.Second {
		t.Fatalf("options not applied: %+v", c)
	}
}

func TestComplete_SendsRequestAndParsesReply(t *testing.T) {
	var got chatRequest
	var auth string
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		reply(w, "  a summary \n")
	})

	temp := 0.2
	out, err := c.Complete(context.Background(), userMsg("hi"), CallOptions{Temperature: &temp, MaxTokens: 50})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "a summary" {
		t.Fatalf("reply = %q", out)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", auth)
	}
	if got.Model != DefaultModel || got.Temperature != 0.2 || got.MaxTokens != 50 || len(got.Messages) != 1 {
		t.Fatalf("unexpected request: %+v", got)
	}

	if _, err := c.Complete(context.Background(), userMsg("hi"), CallOptions{}); err != nil {
		t.Fatalf("Complete defaults: %v", err)
	}
	if got.Temperature != DefaultTemperature || got.MaxTokens != DefaultMaxTokens {
		t.Fatalf("defaults not sent: %+v", got)
	}
}

func TestComplete_ValidationBeforeNetwork(t *testing.T) {
	c, calls := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) { reply(w, "x") })

	bad := 2.01
	if _, err := c.Complete(context.Background(), userMsg("x"), CallOptions{Temperature: &bad}); !errors.Is(err, ErrInvalidTemperature) {
		t.Fatalf("expected ErrInvalidTemperature, got %v", err)
	}
	if _, err := c.Complete(context.Background(), nil, CallOptions{}); !errors.Is(err, ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
	if _, err := c.Complete(context.Background(), userMsg("x"), CallOptions{MaxTokens: -1}); !errors.Is(err, ErrInvalidMaxTokens) {
		t.Fatalf("expected ErrInvalidMaxTokens, got %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestComplete_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, KindRateLimit},
		{"gateway timeout", http.StatusGatewayTimeout, ``, KindTimeout},
		{"request timeout", http.StatusRequestTimeout, ``, KindTimeout},
		{"server error", http.StatusInternalServerError, `oops`, KindAPI},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, KindAPI},
		{"malformed body", http.StatusOK, `not json`, KindInvalidResponse},
		{"no choices", http.StatusOK, `{"choices":[]}`, KindInvalidResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Complete(context.Background(), userMsg("x"), CallOptions{})
			k, ok := KindOf(err)
			if !ok || k != tc.want {
				t.Fatalf("kind = %v (%v); want %v, err=%v", k, ok, tc.want, err)
			}
			var e *Error
			if errors.As(err, &e) && tc.status != http.StatusOK && e.Status != tc.status {
				t.Fatalf("status = %d; want %d", e.Status, tc.status)
			}
		})
	}
}

func TestComplete_ClientTimeoutIsTimeoutKind(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		reply(w, "late")
	})
	c.HTTP = &http.Client{Timeout: 20 * time.Millisecond}
	_, err := c.Complete(context.Background(), userMsg("x"), CallOptions{})
	if k, ok := KindOf(err); !ok || k != KindTimeout {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}

func TestComplete_LimiterPastDeadlineIsTimeoutKind(t *testing.T) {
	c, calls := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) { reply(w, "never") })
	c.Limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	c.Limiter.Allow() // drain the only token; the next one is ~17m away

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, userMsg("x"), CallOptions{})
	if k, ok := KindOf(err); !ok || k != KindTimeout {
		t.Fatalf("expected timeout kind, got %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("limiter timeout should be retryable")
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("request sent despite limiter refusal: %d calls", n)
	}

	// Without a deadline a cancelled wait stays an API failure.
	cctx, ccancel := context.WithCancel(context.Background())
	ccancel()
	_, err = c.Complete(cctx, userMsg("x"), CallOptions{})
	if k, ok := KindOf(err); !ok || k != KindAPI {
		t.Fatalf("expected api kind for cancelled wait, got %v", err)
	}
}

func TestComplete_ErrorMessageFromBody(t *testing.T) {
	c, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	})
	_, err := c.Complete(context.Background(), userMsg("x"), CallOptions{})
	if err == nil || err.Error() != "llm rate_limit (status 429): quota exceeded" {
		t.Fatalf("unexpected error text: %v", err)
	}
}
