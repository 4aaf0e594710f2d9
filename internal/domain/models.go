// Package domain defines the persistence models for papers and their
// generated summaries. These types are mapped with GORM and form the core
// data layer of the paper digest service.
package domain

import "time"

// Paper is one catalog listing of a research paper. Rows are written once by
// the sync pipeline and never updated afterwards; a repeated insert of the
// same ID is a no-op.
//
// Fields:
//   - ID: catalog identifier (arXiv id), primary key.
//   - URL: link to the PDF.
//   - Authors: visible authors joined with ", ".
//   - Abstract: abstract text as published by the catalog.
//   - PaperPublishedAt: original publication time of the paper (display only).
//   - PublishedAt: catalog listing time; the recency field used for range
//     computation, "latest" ordering and date filters.
//   - UpVotes / NumComments: counters captured at insert time.
//   - Thumbnail / MediaURLs / SubmittedBy: display metadata.
//   - CreatedAt: insertion time, assigned by the server.
type Paper struct {
	ID               string    `json:"id"                 gorm:"type:text;primaryKey"`
	URL              string    `json:"url"                gorm:"type:text"`
	Title            string    `json:"title"              gorm:"type:text"`
	Authors          string    `json:"authors"            gorm:"type:text"`
	Abstract         string    `json:"abstract"           gorm:"type:text"`
	PaperPublishedAt time.Time `json:"paper_published_at"`
	PublishedAt      time.Time `json:"published_at"       gorm:"index:idx_papers_published_at"`
	UpVotes          int       `json:"upvotes"            gorm:"column:upvotes;not null;default:0"`
	NumComments      int       `json:"num_comments"       gorm:"not null;default:0"`
	Thumbnail        string    `json:"thumbnail"          gorm:"type:text"`
	MediaURLs        string    `json:"media_urls"         gorm:"column:media_urls;type:text"`
	SubmittedBy      string    `json:"submitted_by"       gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"         gorm:"autoCreateTime"`
}

// TableName returns the database table name for Paper.
func (Paper) TableName() string { return "papers" }

// PaperSummary holds the generated summary of a paper, one column per
// supported language. A row is always written with every language column at
// once; regeneration replaces the whole row content.
type PaperSummary struct {
	PaperID   string    `json:"paper_id"             gorm:"type:text;primaryKey"`
	SummaryEN *string   `json:"summary_en,omitempty" gorm:"column:summary_en;type:text"`
	SummaryRU *string   `json:"summary_ru,omitempty" gorm:"column:summary_ru;type:text"`
	CreatedAt time.Time `json:"created_at"           gorm:"autoCreateTime"`

	// Paper is the summarized paper.
	Paper Paper `json:"-" gorm:"foreignKey:PaperID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PaperSummary.
func (PaperSummary) TableName() string { return "paper_summaries" }

// NewPaperSummary builds a summary row from a language mapping. Languages
// missing from the mapping are stored as NULL.
func NewPaperSummary(paperID string, summaries map[Language]string) PaperSummary {
	ps := PaperSummary{PaperID: paperID}
	for lang, text := range summaries {
		t := text
		switch lang {
		case EN:
			ps.SummaryEN = &t
		case RU:
			ps.SummaryRU = &t
		}
	}
	return ps
}

// Text returns the summary for lang, or nil when none is stored.
func (s PaperSummary) Text(lang Language) *string {
	switch lang {
	case EN:
		return s.SummaryEN
	case RU:
		return s.SummaryRU
	}
	return nil
}

// Map returns the stored summaries keyed by language, skipping NULL columns.
func (s PaperSummary) Map() map[Language]string {
	out := make(map[Language]string, len(SupportedLanguages()))
	for _, lang := range SupportedLanguages() {
		if t := s.Text(lang); t != nil {
			out[lang] = *t
		}
	}
	return out
}

// PaperInfo is the read view served to the presentation layer. Summary is nil
// when no summary exists for the requested language.
type PaperInfo struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Authors string  `json:"authors"`
	URL     string  `json:"url"`
	Summary *string `json:"summary"`
}
