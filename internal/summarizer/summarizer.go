// Package summarizer turns a paper abstract into one summary per requested
// language using a language model.
//
// Contract:
//   - Inputs are validated before any model call: non-blank abstract, every
//     language supported, temperature in [0, 2].
//   - Languages are processed in order, one model call each.
//   - All-or-nothing: if any language fails the whole call fails and no
//     partial map is returned. The failure keeps its llm.Kind.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/llm"
)

var (
	ErrEmptyAbstract = errors.New("abstract is empty")
	ErrNoLanguages   = errors.New("no languages requested")
)

// Options tune one Summarize call. Zero values select defaults.
type Options struct {
	// Languages defaults to domain.SupportedLanguages().
	Languages []domain.Language
	// CustomPrompts replaces the user template for a language; the template
	// may reference {abstract}.
	CustomPrompts map[domain.Language]string
	Temperature   *float64
	MaxTokens     int
}

// Summarizer produces multilingual summaries through a Completer.
type Summarizer struct {
	LLM llm.Completer
}

// New returns a Summarizer backed by c.
func New(c llm.Completer) *Summarizer { return &Summarizer{LLM: c} }

// Summarize returns a summary per language or an error with no summaries.
func (s *Summarizer) Summarize(ctx context.Context, abstract string, opts Options) (map[domain.Language]string, error) {
	langs, err := validate(abstract, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("summarizer").Start(ctx, "Summarize",
		trace.WithAttributes(attribute.Int("abstract.len", len(abstract)), attribute.Int("languages", len(langs))))
	defer span.End()

	out := make(map[domain.Language]string, len(langs))
	for _, lang := range langs {
		text, err := s.summarizeOne(ctx, abstract, lang, opts)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("summarize %s: %w", lang, err)
		}
		out[lang] = text
	}
	return out, nil
}

func (s *Summarizer) summarizeOne(ctx context.Context, abstract string, lang domain.Language, opts Options) (string, error) {
	p, _ := PromptFor(lang)
	tmpl := p.User
	if custom, ok := opts.CustomPrompts[lang]; ok && strings.TrimSpace(custom) != "" {
		tmpl = custom
	}
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: p.System},
		{Role: llm.RoleUser, Content: Render(tmpl, abstract)},
	}
	return s.LLM.Complete(ctx, msgs, llm.CallOptions{Temperature: opts.Temperature, MaxTokens: opts.MaxTokens})
}

func validate(abstract string, opts Options) ([]domain.Language, error) {
	if strings.TrimSpace(abstract) == "" {
		return nil, ErrEmptyAbstract
	}
	if opts.Temperature != nil {
		if err := llm.ValidateTemperature(*opts.Temperature); err != nil {
			return nil, err
		}
	}
	if opts.MaxTokens < 0 {
		return nil, llm.ErrInvalidMaxTokens
	}
	langs := opts.Languages
	if langs == nil {
		langs = domain.SupportedLanguages()
	}
	if len(langs) == 0 {
		return nil, ErrNoLanguages
	}
	seen := make(map[domain.Language]bool, len(langs))
	uniq := make([]domain.Language, 0, len(langs))
	for _, l := range langs {
		if !l.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, string(l))
		}
		if !seen[l] {
			seen[l] = true
			uniq = append(uniq, l)
		}
	}
	for l := range opts.CustomPrompts {
		if !l.Valid() {
			return nil, fmt.Errorf("%w: custom prompt for %q", domain.ErrUnsupportedLanguage, string(l))
		}
	}
	return uniq, nil
}
