// Package catalog is the upstream fetcher for the daily papers catalog. It
// retrieves one day's listing, normalizes every item into a domain.Paper, and
// offers two alternate ways to obtain an abstract (the per-paper endpoint and
// a markdown reader service).
//
// Failure policy:
//   - Transport failures, non-2xx statuses and undecodable listings are
//     logged and yield an empty slice; the caller treats the day as having
//     no new papers.
//   - A malformed item (missing id or title, unparsable timestamp) is logged
//     and skipped; the rest of the listing is still returned.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/paper-digest/internal/domain"
)

const (
	// DefaultBaseURL is the catalog API root.
	DefaultBaseURL = "https://huggingface.co/api"
	// DefaultReaderURL is the markdown reader service prefix.
	DefaultReaderURL = "https://r.jina.ai"

	defaultTimeout = 60 * time.Second
	// maxBodyBytes caps any response body read from upstream.
	maxBodyBytes = 16 << 20
)

// ErrNoAbstract is returned when neither source yields abstract text.
var ErrNoAbstract = errors.New("abstract not found")

// Client talks to the catalog API and the markdown reader. The zero value is
// not usable; construct with New.
type Client struct {
	BaseURL   string
	ReaderURL string
	HTTP      *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the catalog API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.BaseURL = u
		}
	}
}

// WithReaderURL overrides the markdown reader prefix.
func WithReaderURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.ReaderURL = u
		}
	}
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.HTTP = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP = &http.Client{Timeout: d}
		}
	}
}

// New returns a Client with defaults applied, then opts.
func New(opts ...Option) *Client {
	c := &Client{
		BaseURL:   DefaultBaseURL,
		ReaderURL: DefaultReaderURL,
		HTTP:      &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchPapersForDate returns the normalized listing for the UTC calendar day
// of day. It never returns an error: failures are logged and produce an empty
// (non-nil) slice.
func (c *Client) FetchPapersForDate(ctx context.Context, day time.Time) []domain.Paper {
	date := day.UTC().Format(DateLayout)
	lg := log.With().Str("component", "catalog").Str("date", date).Logger()

	endpoint := c.BaseURL + "/daily_papers?" + url.Values{"date": {date}}.Encode()
	body, err := c.get(ctx, endpoint)
	if err != nil {
		lg.Error().Err(err).Msg("fetch daily papers failed")
		return []domain.Paper{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		lg.Error().Err(err).Msg("decode daily papers failed")
		return []domain.Paper{}
	}

	out := make([]domain.Paper, 0, len(items))
	for i, raw := range items {
		p, err := normalize(raw)
		if err != nil {
			lg.Error().Err(err).Int("item", i).Msg("skip malformed catalog item")
			continue
		}
		out = append(out, p)
	}
	lg.Info().Int("papers", len(out)).Int("items", len(items)).Msg("fetched daily papers")
	return out
}

// PaperAbstract fetches the abstract of one paper from the per-paper endpoint.
func (c *Client) PaperAbstract(ctx context.Context, id string) (string, error) {
	body, err := c.get(ctx, c.BaseURL+"/papers/"+url.PathEscape(id))
	if err != nil {
		return "", err
	}
	var resp struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode paper %s: %w", id, err)
	}
	if strings.TrimSpace(resp.Summary) == "" {
		return "", ErrNoAbstract
	}
	return resp.Summary, nil
}

// MarkdownAbstract renders paperURL through the reader service and extracts
// the abstract section. When no abstract heading exists the whole document is
// returned.
func (c *Client) MarkdownAbstract(ctx context.Context, paperURL string) (string, error) {
	body, err := c.get(ctx, c.ReaderURL+"/"+paperURL)
	if err != nil {
		return "", err
	}
	abstract := AbstractFromMarkdown(string(body))
	if abstract == "" {
		return "", ErrNoAbstract
	}
	return abstract, nil
}

// ResolveAbstract tries the per-paper endpoint first and falls back to the
// markdown reader.
func (c *Client) ResolveAbstract(ctx context.Context, id, paperURL string) (string, error) {
	abstract, err := c.PaperAbstract(ctx, id)
	if err == nil {
		return abstract, nil
	}
	log.Warn().Err(err).Str("paper_id", id).Msg("paper endpoint had no abstract, trying reader")
	if paperURL == "" {
		paperURL = PaperURL(id)
	}
	return c.MarkdownAbstract(ctx, paperURL)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("GET %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
