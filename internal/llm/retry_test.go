package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fastRetrier keeps the default shape but waits milliseconds.
func fastRetrier() Retrier {
	r := DefaultRetrier()
	r.Unit = time.Millisecond
	return r
}

type scriptedCompleter struct {
	errs  []error
	calls int
}

func (s *scriptedCompleter) Complete(ctx context.Context, msgs []Message, opts CallOptions) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return "ok", nil
}

func TestRetrier_Wait(t *testing.T) {
	r := DefaultRetrier()
	want := []time.Duration{4 * time.Second, 4 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 60 * time.Second, 60 * time.Second}
	for n, w := range want {
		if got := r.Wait(n); got != w {
			t.Fatalf("Wait(%d) = %v; want %v", n, got, w)
		}
	}
	if d := (Retrier{Multiplier: 1}).Wait(1); d != 2*time.Second {
		t.Fatalf("zero unit should default to seconds, got %v", d)
	}
}

func TestRetryingClient_SucceedsAfterTransientFailures(t *testing.T) {
	s := &scriptedCompleter{errs: []error{
		&Error{Kind: KindRateLimit, Status: 429, Err: errors.New("slow")},
		&Error{Kind: KindTimeout, Err: errors.New("late")},
	}}
	rc := &RetryingClient{Completer: s, Retrier: fastRetrier()}

	start := time.Now()
	out, err := rc.Complete(context.Background(), userMsg("x"), CallOptions{})
	if err != nil || out != "ok" {
		t.Fatalf("Complete = %q, %v", out, err)
	}
	if s.calls != 3 {
		t.Fatalf("calls = %d; want 3", s.calls)
	}
	if el := time.Since(start); el < 8*time.Millisecond {
		t.Fatalf("expected two waits of at least 4 units, took %v", el)
	}
}

func TestRetryingClient_ExhaustionKeepsKind(t *testing.T) {
	rl := &Error{Kind: KindRateLimit, Status: 429, Err: errors.New("slow")}
	s := &scriptedCompleter{errs: []error{rl, rl, rl, rl}}
	rc := &RetryingClient{Completer: s, Retrier: fastRetrier()}

	_, err := rc.Complete(context.Background(), userMsg("x"), CallOptions{})
	if k, ok := KindOf(err); !ok || k != KindRateLimit {
		t.Fatalf("expected rate limit kind after exhaustion, got %v", err)
	}
	if s.calls != 3 {
		t.Fatalf("calls = %d; want exactly 3 attempts", s.calls)
	}
}

func TestRetryingClient_NonRetryableStopsImmediately(t *testing.T) {
	cases := []error{
		&Error{Kind: KindInvalidResponse, Err: errors.New("bad body")},
		fmt.Errorf("wrapped: %w", ErrInvalidTemperature),
	}
	for _, e := range cases {
		s := &scriptedCompleter{errs: []error{e, nil}}
		rc := &RetryingClient{Completer: s, Retrier: fastRetrier()}
		_, err := rc.Complete(context.Background(), userMsg("x"), CallOptions{})
		if !errors.Is(err, e) && err.Error() != e.Error() {
			t.Fatalf("expected original error %v, got %v", e, err)
		}
		if s.calls != 1 {
			t.Fatalf("non-retryable error retried: calls = %d", s.calls)
		}
	}
}

func TestRetryingClient_ContextCanceledDuringWait(t *testing.T) {
	s := &scriptedCompleter{errs: []error{&Error{Kind: KindAPI, Err: errors.New("500")}, nil}}
	r := DefaultRetrier() // waits 4s
	rc := &RetryingClient{Completer: s, Retrier: r}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := rc.Complete(ctx, userMsg("x"), CallOptions{}); err == nil {
		t.Fatalf("expected error after cancellation")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("cancellation did not interrupt the backoff wait")
	}
}

func TestNewRetrying_DefaultPolicy(t *testing.T) {
	rc := NewRetrying(&scriptedCompleter{})
	if rc.Retrier != DefaultRetrier() {
		t.Fatalf("unexpected policy: %+v", rc.Retrier)
	}
}

func TestKindOfAndRetryable(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("plain error should have no kind")
	}
	wrapped := fmt.Errorf("ctx: %w", &Error{Kind: KindTimeout, Err: errors.New("x")})
	if k, ok := KindOf(wrapped); !ok || k != KindTimeout {
		t.Fatalf("KindOf through wrap = %v, %v", k, ok)
	}
	for k, want := range map[Kind]bool{KindAPI: true, KindRateLimit: true, KindTimeout: true, KindInvalidResponse: false} {
		if got := Retryable(&Error{Kind: k, Err: errors.New("x")}); got != want {
			t.Fatalf("Retryable(%v) = %v; want %v", k, got, want)
		}
	}
	if Retryable(errors.New("plain")) {
		t.Fatalf("untagged errors are not retryable")
	}
	if KindRateLimit.String() != "rate_limit" || KindAPI.String() != "api" {
		t.Fatalf("unexpected kind names")
	}
}
