// Package services – BrowseService
//
// BrowseService walks a user through the latest papers one at a time. Each
// user's language and cursor live in a session.Store keyed by user id, so
// concurrent users never move each other's position.
//
// Navigation wraps: Next on the last paper returns the first, Prev on the
// first returns the last. A stored cursor beyond the current list (the list
// shrank) is clamped to the last paper.
package services

import (
	"context"
	"strings"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/session"
)

// LatestLister lists the newest papers with summaries in a language.
type LatestLister interface {
	Latest(ctx context.Context, limit int, lang domain.Language) ([]domain.PaperInfo, error)
}

// BrowseView is the paper under a user's cursor.
type BrowseView struct {
	Paper    domain.PaperInfo `json:"paper"`
	Index    int              `json:"index"`
	Total    int              `json:"total"`
	Language domain.Language  `json:"language"`
}

// BrowseService provides per-user paging over the latest papers.
type BrowseService struct {
	Papers   LatestLister
	Sessions session.Store
	// PageSize is how many latest papers are browsable.
	PageSize int
}

// NewBrowseService returns a BrowseService over the default latest window.
func NewBrowseService(p LatestLister, st session.Store) *BrowseService {
	return &BrowseService{Papers: p, Sessions: st, PageSize: DefaultLatestLimit}
}

// Language returns the user's selected language (English by default).
func (s *BrowseService) Language(ctx context.Context, userID string) (domain.Language, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return st.Language, nil
}

// StoredLanguage returns the language the user chose explicitly; ok is
// false when the user has no session yet.
func (s *BrowseService) StoredLanguage(ctx context.Context, userID string) (lang domain.Language, ok bool, err error) {
	st, found, err := s.Sessions.Get(ctx, userID)
	if err != nil || !found || !st.Language.Valid() {
		return "", false, err
	}
	return st.Language, true, nil
}

// SetLanguage stores the user's language; code may be "en" or "english".
// The cursor is kept.
func (s *BrowseService) SetLanguage(ctx context.Context, userID, code string) (domain.Language, error) {
	lang, err := domain.ParseLanguage(code)
	if err != nil {
		return "", err
	}
	st, err := s.Sessions.Update(ctx, userID, func(cur session.State) (session.State, error) {
		cur.Language = lang
		return cur, nil
	})
	if err != nil {
		return "", err
	}
	return st.Language, nil
}

// Current returns the paper under the user's cursor.
func (s *BrowseService) Current(ctx context.Context, userID string) (*BrowseView, error) {
	return s.move(ctx, userID, 0)
}

// Next advances the cursor, wrapping to the first paper.
func (s *BrowseService) Next(ctx context.Context, userID string) (*BrowseView, error) {
	return s.move(ctx, userID, 1)
}

// Prev moves the cursor back, wrapping to the last paper.
func (s *BrowseService) Prev(ctx context.Context, userID string) (*BrowseView, error) {
	return s.move(ctx, userID, -1)
}

// Reset forgets the user's state.
func (s *BrowseService) Reset(ctx context.Context, userID string) error {
	return s.Sessions.Delete(ctx, strings.TrimSpace(userID))
}

// move reads the list in the user's language, then steps the stored cursor
// with an atomic Update so concurrent moves of one user all count.
func (s *BrowseService) move(ctx context.Context, userID string, delta int) (*BrowseView, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	size := s.PageSize
	if size <= 0 {
		size = DefaultLatestLimit
	}
	papers, err := s.Papers.Latest(ctx, size, st.Language)
	if err != nil {
		return nil, err
	}
	n := len(papers)
	if n == 0 {
		return nil, ErrNoPapers
	}

	// Reading an in-range cursor creates no session.
	if delta == 0 && st.Index >= 0 && st.Index < n {
		return &BrowseView{Paper: papers[st.Index], Index: st.Index, Total: n, Language: st.Language}, nil
	}

	var idx int
	_, err = s.Sessions.Update(ctx, userID, func(cur session.State) (session.State, error) {
		if !cur.Language.Valid() {
			cur.Language = domain.EN
		}
		idx = step(cur.Index, n, delta)
		cur.Index = idx
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	return &BrowseView{Paper: papers[idx], Index: idx, Total: n, Language: st.Language}, nil
}

// step clamps idx into [0, n) and moves it by the sign of delta, wrapping.
func step(idx, n, delta int) int {
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	switch {
	case delta > 0:
		idx = (idx + 1) % n
	case delta < 0:
		idx--
		if idx < 0 {
			idx = n - 1
		}
	}
	return idx
}

func (s *BrowseService) load(ctx context.Context, userID string) (session.State, error) {
	st, ok, err := s.Sessions.Get(ctx, userID)
	if err != nil {
		return session.State{}, err
	}
	if !ok {
		return session.Default(), nil
	}
	if !st.Language.Valid() {
		st.Language = domain.EN
	}
	return st, nil
}
