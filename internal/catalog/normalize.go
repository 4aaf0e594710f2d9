package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/paper-digest/internal/domain"
)

const (
	// DateLayout is the format of the date query parameter.
	DateLayout = "2006-01-02"
	// TimestampLayout is the catalog's timestamp format.
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	pdfURLPrefix = "https://arxiv.org/pdf/"
	listSep      = ", "
)

// dailyItem mirrors one entry of the daily listing. Optional fields decode to
// their zero values when absent.
type dailyItem struct {
	Paper struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Authors []struct {
			Name   string `json:"name"`
			Hidden bool   `json:"hidden"`
		} `json:"authors"`
		Summary     string `json:"summary"`
		PublishedAt string `json:"publishedAt"`
		UpVotes     int    `json:"upvotes"`
	} `json:"paper"`
	PublishedAt string   `json:"publishedAt"`
	NumComments int      `json:"numComments"`
	Thumbnail   string   `json:"thumbnail"`
	MediaURLs   []string `json:"mediaUrls"`
	SubmittedBy *struct {
		Fullname string `json:"fullname"`
	} `json:"submittedBy"`
}

// PaperURL returns the PDF link of a paper id.
func PaperURL(id string) string { return pdfURLPrefix + id }

// ParseTimestamp parses a catalog timestamp into UTC. It accepts the
// millisecond layout and, as a fallback, any RFC 3339 timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", s)
	}
	return t.UTC(), nil
}

// normalize converts one raw listing entry into a Paper.
func normalize(raw json.RawMessage) (domain.Paper, error) {
	var it dailyItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return domain.Paper{}, err
	}
	id := strings.TrimSpace(it.Paper.ID)
	if id == "" {
		return domain.Paper{}, errors.New("missing paper.id")
	}
	if strings.TrimSpace(it.Paper.Title) == "" {
		return domain.Paper{}, fmt.Errorf("paper %s: missing title", id)
	}
	paperPublished, err := ParseTimestamp(it.Paper.PublishedAt)
	if err != nil {
		return domain.Paper{}, fmt.Errorf("paper %s: paper.publishedAt: %w", id, err)
	}
	published, err := ParseTimestamp(it.PublishedAt)
	if err != nil {
		return domain.Paper{}, fmt.Errorf("paper %s: publishedAt: %w", id, err)
	}

	authors := make([]string, 0, len(it.Paper.Authors))
	for _, a := range it.Paper.Authors {
		if a.Hidden {
			continue
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	p := domain.Paper{
		ID:               id,
		URL:              PaperURL(id),
		Title:            it.Paper.Title,
		Authors:          strings.Join(authors, listSep),
		Abstract:         it.Paper.Summary,
		PaperPublishedAt: paperPublished,
		PublishedAt:      published,
		UpVotes:          it.Paper.UpVotes,
		NumComments:      it.NumComments,
		Thumbnail:        it.Thumbnail,
		MediaURLs:        strings.Join(it.MediaURLs, listSep),
	}
	if it.SubmittedBy != nil {
		p.SubmittedBy = it.SubmittedBy.Fullname
	}
	return p, nil
}
