package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const listingFixture = `[
  {
    "paper": {
      "id": "2401.00001",
      "title": "First Paper",
      "authors": [
        {"name": "Alice", "hidden": false},
        {"name": "Ghost", "hidden": true},
        {"name": "Bob"}
      ],
      "summary": "We study things.",
      "publishedAt": "2024-01-01T08:00:00.000Z",
      "upvotes": 12
    },
    "publishedAt": "2024-01-02T10:30:00.000Z",
    "numComments": 3,
    "thumbnail": "https://cdn/x.png",
    "mediaUrls": ["https://m/1.mp4", "https://m/2.mp4"],
    "submittedBy": {"fullname": "Carol"}
  },
  {
    "paper": {"title": "No id", "publishedAt": "2024-01-01T08:00:00.000Z"},
    "publishedAt": "2024-01-02T10:30:00.000Z"
  },
  {
    "paper": {"id": "2401.00003", "title": "Bad time", "publishedAt": "yesterday"},
    "publishedAt": "2024-01-02T10:30:00.000Z"
  },
  {
    "paper": {"id": "2401.00004", "title": "Wrong type", "upvotes": "many",
              "publishedAt": "2024-01-01T08:00:00.000Z"},
    "publishedAt": "2024-01-02T10:30:00.000Z"
  },
  {
    "paper": {
      "id": "2401.00005",
      "title": "Minimal",
      "publishedAt": "2024-01-01T09:00:00Z"
    },
    "publishedAt": "2024-01-02T11:00:00Z"
  }
]`

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithReaderURL(srv.URL+"/reader"), WithHTTPClient(srv.Client()))
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	if c.BaseURL != DefaultBaseURL || c.ReaderURL != DefaultReaderURL || c.HTTP == nil {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	c = New(WithBaseURL("  "), WithHTTPClient(nil), WithTimeout(0))
	if c.BaseURL != DefaultBaseURL || c.HTTP == nil {
		t.Fatalf("empty options must not clobber defaults: %+v", c)
	}
	c = New(WithBaseURL("http://x/api/"), WithTimeout(time.Second))
	if c.BaseURL != "http://x/api" || c.HTTP.Timeout != time.Second {
		t.Fatalf("options not applied: %+v", c)
	}
}

func TestFetchPapersForDate_NormalizesAndSkipsMalformed(t *testing.T) {
	var gotQuery string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/daily_papers" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("date")
		_, _ = w.Write([]byte(listingFixture))
	})

	day := time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC)
	papers := c.FetchPapersForDate(context.Background(), day)
	if gotQuery != "2024-01-02" {
		t.Fatalf("date param = %q", gotQuery)
	}
	if len(papers) != 2 {
		t.Fatalf("expected 2 valid papers, got %d: %+v", len(papers), papers)
	}

	p := papers[0]
	if p.ID != "2401.00001" || p.Title != "First Paper" {
		t.Fatalf("unexpected paper: %+v", p)
	}
	if p.URL != "https://arxiv.org/pdf/2401.00001" {
		t.Fatalf("url = %q", p.URL)
	}
	if p.Authors != "Alice, Bob" {
		t.Fatalf("hidden author not filtered: %q", p.Authors)
	}
	if p.MediaURLs != "https://m/1.mp4, https://m/2.mp4" {
		t.Fatalf("media urls = %q", p.MediaURLs)
	}
	if p.UpVotes != 12 || p.NumComments != 3 || p.Thumbnail != "https://cdn/x.png" || p.SubmittedBy != "Carol" {
		t.Fatalf("counters/thumbnail/submitter wrong: %+v", p)
	}
	if !p.PublishedAt.Equal(time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("published_at = %v", p.PublishedAt)
	}
	if !p.PaperPublishedAt.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("paper_published_at = %v", p.PaperPublishedAt)
	}

	m := papers[1]
	if m.ID != "2401.00005" || m.NumComments != 0 || m.Thumbnail != "" || m.SubmittedBy != "" || m.Authors != "" {
		t.Fatalf("defaults not applied to minimal item: %+v", m)
	}
}

func TestFetchPapersForDate_TransportFailureYieldsEmpty(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	got := c.FetchPapersForDate(context.Background(), time.Now())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}

	c = newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	})
	if got := c.FetchPapersForDate(context.Background(), time.Now()); len(got) != 0 {
		t.Fatalf("expected empty on undecodable body, got %d", len(got))
	}

	dead := New(WithBaseURL("http://127.0.0.1:1"), WithTimeout(200*time.Millisecond))
	if got := dead.FetchPapersForDate(context.Background(), time.Now()); len(got) != 0 {
		t.Fatalf("expected empty on connection error, got %d", len(got))
	}
}

func TestPaperAbstract(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/papers/ok":
			_, _ = w.Write([]byte(`{"id":"ok","summary":"An abstract."}`))
		case "/papers/empty":
			_, _ = w.Write([]byte(`{"id":"empty","summary":"  "}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	got, err := c.PaperAbstract(ctx, "ok")
	if err != nil || got != "An abstract." {
		t.Fatalf("PaperAbstract(ok) = %q, %v", got, err)
	}
	if _, err := c.PaperAbstract(ctx, "empty"); !errors.Is(err, ErrNoAbstract) {
		t.Fatalf("expected ErrNoAbstract, got %v", err)
	}
	if _, err := c.PaperAbstract(ctx, "missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestResolveAbstract_FallsBackToReader(t *testing.T) {
	var readerPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/papers/"):
			_, _ = w.Write([]byte(`{"summary":""}`))
		case strings.HasPrefix(r.URL.Path, "/reader/"):
			readerPath = r.URL.Path
			_, _ = w.Write([]byte("# Title\n\n## Abstract\n\nFrom the reader.\n\n## Introduction\nbody"))
		default:
			http.NotFound(w, r)
		}
	})

	got, err := c.ResolveAbstract(context.Background(), "2401.1", "")
	if err != nil || got != "From the reader." {
		t.Fatalf("ResolveAbstract = %q, %v", got, err)
	}
	if !strings.HasSuffix(readerPath, "/arxiv.org/pdf/2401.1") {
		t.Fatalf("reader called with %q", readerPath)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-02T10:30:00.000Z", time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), false},
		{"2024-01-02T10:30:00Z", time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), false},
		{"2024-01-02T13:30:00+03:00", time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"02/01/2024", time.Time{}, true},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseTimestamp(%q) err = %v; wantErr %v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && (!got.Equal(tc.want) || got.Location() != time.UTC) {
			t.Fatalf("ParseTimestamp(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}
