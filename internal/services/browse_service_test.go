package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/session"
)

// fakeLister returns n papers whose summary text records the language asked for.
type fakeLister struct {
	n   int
	err error
}

func (f *fakeLister) Latest(_ context.Context, limit int, lang domain.Language) ([]domain.PaperInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := f.n
	if limit < n {
		n = limit
	}
	out := make([]domain.PaperInfo, n)
	for i := range out {
		s := fmt.Sprintf("%s-%d", lang, i)
		out[i] = domain.PaperInfo{ID: fmt.Sprintf("p%d", i), Summary: &s}
	}
	return out, nil
}

func newBrowse(n int) (*BrowseService, *fakeLister) {
	l := &fakeLister{n: n}
	return NewBrowseService(l, session.NewMemoryStore(time.Hour)), l
}

func TestBrowse_NextWrapsAround(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBrowse(3)

	v, err := svc.Current(ctx, "u1")
	if err != nil || v.Index != 0 || v.Total != 3 || v.Paper.ID != "p0" {
		t.Fatalf("Current = %+v, %v", v, err)
	}
	want := []int{1, 2, 0, 1}
	for i, w := range want {
		v, err = svc.Next(ctx, "u1")
		if err != nil || v.Index != w {
			t.Fatalf("Next #%d = %+v, %v; want index %d", i, v, err, w)
		}
	}
}

func TestBrowse_PrevWrapsToLast(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBrowse(4)

	v, err := svc.Prev(ctx, "u1")
	if err != nil || v.Index != 3 || v.Paper.ID != "p3" {
		t.Fatalf("Prev from 0 = %+v, %v", v, err)
	}
	v, _ = svc.Prev(ctx, "u1")
	if v.Index != 2 {
		t.Fatalf("Prev = %d; want 2", v.Index)
	}
}

func TestBrowse_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBrowse(5)

	_, _ = svc.Next(ctx, "alice")
	_, _ = svc.Next(ctx, "alice")
	if _, err := svc.SetLanguage(ctx, "alice", "russian"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}

	b, _ := svc.Current(ctx, "bob")
	if b.Index != 0 || b.Language != domain.EN {
		t.Fatalf("bob sees alice's state: %+v", b)
	}
	a, _ := svc.Current(ctx, "alice")
	if a.Index != 2 || a.Language != domain.RU || *a.Paper.Summary != "ru-2" {
		t.Fatalf("alice state lost: %+v", a)
	}
}

func TestBrowse_ConcurrentMovesOfOneUserAllCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBrowse(1000)
	svc.PageSize = 1000

	const moves = 64
	var wg sync.WaitGroup
	for i := 0; i < moves; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Next(ctx, "u"); err != nil {
				t.Errorf("Next: %v", err)
			}
		}()
	}
	wg.Wait()

	v, err := svc.Current(ctx, "u")
	if err != nil || v.Index != moves {
		t.Fatalf("Current = %+v, %v; want index %d", v, err, moves)
	}

	// Language changes racing with moves keep the cursor.
	for i := 0; i < moves; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = svc.Prev(ctx, "u") }()
		go func() { defer wg.Done(); _, _ = svc.SetLanguage(ctx, "u", "ru") }()
	}
	wg.Wait()
	v, _ = svc.Current(ctx, "u")
	if v.Index != 0 || v.Language != domain.RU {
		t.Fatalf("after racing prev/language: %+v", v)
	}
}

func TestBrowse_ClampsWhenListShrinks(t *testing.T) {
	ctx := context.Background()
	svc, l := newBrowse(5)
	for i := 0; i < 4; i++ {
		_, _ = svc.Next(ctx, "u")
	}
	l.n = 2
	v, err := svc.Current(ctx, "u")
	if err != nil || v.Index != 1 {
		t.Fatalf("Current after shrink = %+v, %v; want index 1", v, err)
	}
	v, _ = svc.Next(ctx, "u")
	if v.Index != 0 {
		t.Fatalf("Next after clamp = %d; want wrap to 0", v.Index)
	}
}

func TestBrowse_LanguageAndErrors(t *testing.T) {
	ctx := context.Background()
	svc, l := newBrowse(0)

	if lang, err := svc.Language(ctx, "u"); err != nil || lang != domain.EN {
		t.Fatalf("default language = %v, %v", lang, err)
	}
	if _, err := svc.SetLanguage(ctx, "u", "klingon"); !errors.Is(err, domain.ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
	if lang, _ := svc.SetLanguage(ctx, "u", "RU"); lang != domain.RU {
		t.Fatalf("SetLanguage(RU) = %v", lang)
	}
	if _, err := svc.Current(ctx, "u"); !errors.Is(err, ErrNoPapers) {
		t.Fatalf("expected ErrNoPapers, got %v", err)
	}
	if _, err := svc.Current(ctx, ""); !errors.Is(err, session.ErrEmptyUser) {
		t.Fatalf("expected ErrEmptyUser, got %v", err)
	}

	l.err = errors.New("db down")
	if _, err := svc.Next(ctx, "u"); err == nil || err.Error() != "db down" {
		t.Fatalf("lister error not propagated: %v", err)
	}

	if lang, ok, err := svc.StoredLanguage(ctx, "u"); err != nil || !ok || lang != domain.RU {
		t.Fatalf("StoredLanguage = %v, %v, %v", lang, ok, err)
	}
	if _, ok, _ := svc.StoredLanguage(ctx, "stranger"); ok {
		t.Fatalf("StoredLanguage reported a session for an unknown user")
	}

	_ = svc.Reset(ctx, "u")
	if lang, _ := svc.Language(ctx, "u"); lang != domain.EN {
		t.Fatalf("Reset did not clear language")
	}
}
