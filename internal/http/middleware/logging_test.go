package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

// logLines decodes each JSON log line in buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/rid", func(c *gin.Context) { c.String(http.StatusOK, asString(c.Value(requestIDKey))) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	gen := w.Header().Get(requestIDHeader)
	if gen == "" || w.Body.String() != gen {
		t.Fatalf("generated id header=%q body=%q", gen, w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req.Header.Set("x-request-id", " abc-123 ")
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("propagated id = %q", got)
	}
}

func TestUserIdentity(t *testing.T) {
	r := newEngine(UserIdentity())
	r.GET("/who", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })

	cases := map[string]string{
		"":                       "",
		"  alice ":               "alice",
		strings.Repeat("x", 129): "",
	}
	for hdr, want := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if hdr != "" {
			req.Header.Set(UserIDHeader, hdr)
		}
		r.ServeHTTP(w, req)
		if w.Body.String() != want {
			t.Fatalf("UserID(%q) = %q; want %q", hdr, w.Body.String(), want)
		}
	}
}

func TestAccessLog_LevelsRedactionAndSkip(t *testing.T) {
	buf := captureLogger(t)
	r := newEngine(RequestID(), UserIdentity(), AccessLog(AccessLogOptions{
		MaskHeaders: []string{"X-Secret"},
		SkipPaths:   []string{"/health"},
	}))
	r.GET("/papers/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusBadRequest)
	})

	req := httptest.NewRequest(http.MethodGet, "/papers/2401.00001?lang=ru&api_key=sk-abcdefghijklmnopqrstuvwxyz&email=a@b.com", nil)
	req.Header.Set("Authorization", "Bearer x")
	req.Header.Set("X-Secret", "s")
	req.Header.Set(UserIDHeader, "u1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/err", nil))

	lines := logLines(t, buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 access lines (health skipped), got %d: %s", len(lines), buf.String())
	}

	ok := lines[0]
	if ok["level"] != "info" || ok["path"] != "/papers/:id" || ok["user_id"] != "u1" || ok["request_id"] == "" {
		t.Fatalf("unexpected ok line: %v", ok)
	}
	q := ok["query"].(string)
	if strings.Contains(q, "sk-abc") || strings.Contains(q, "a@b.com") || !strings.Contains(q, "lang=ru") {
		t.Fatalf("query not scrubbed: %q", q)
	}
	hdrs := ok["headers"].(map[string]any)
	if hdrs["Authorization"] != redacted || hdrs["X-Secret"] != redacted || hdrs[http.CanonicalHeaderKey(UserIDHeader)] != "u1" {
		t.Fatalf("headers not masked: %v", hdrs)
	}

	if lines[1]["level"] != "warn" || lines[1]["path"] != "/missing" {
		t.Fatalf("unexpected 404 line: %v", lines[1])
	}
	if lines[2]["level"] != "error" || lines[2]["errors"] == nil {
		t.Fatalf("unexpected gin-error line: %v", lines[2])
	}
}

func TestRecovery_PanicToJSON(t *testing.T) {
	buf := captureLogger(t)
	r := newEngine(RequestID(), AccessLog(AccessLogOptions{}), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != w.Header().Get(requestIDHeader) {
		t.Fatalf("unexpected body: %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged: %s", buf.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))
	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("JSON written after partial response: %q", w.Body.String())
	}
}

func TestLoggerFrom_FallbackAndScoped(t *testing.T) {
	buf := captureLogger(t)
	r := newEngine(RequestID())
	r.GET("/plain", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("plain")
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))
	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("fallback logger has request fields: %s", buf.String())
	}

	buf.Reset()
	r2 := newEngine(RequestID(), AccessLog(AccessLogOptions{}))
	r2.GET("/scoped", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("scoped")
		c.Status(http.StatusOK)
	})
	r2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scoped", nil))
	first := logLines(t, buf)[0]
	if first["message"] != "scoped" || first["request_id"] == "" {
		t.Fatalf("scoped logger missing fields: %v", first)
	}
}

func TestTruncate(t *testing.T) {
	if truncate("hello", 10) != "hello" || truncate("abc", 0) != "abc" {
		t.Fatalf("truncate should be a no-op")
	}
	if got := truncate("abcdefgh", 5); got != "abcde…" {
		t.Fatalf("truncate = %q", got)
	}
}
