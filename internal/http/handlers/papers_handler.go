package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/services"
	"github.com/tbourn/paper-digest/internal/utils"
)

// PaperListResponse wraps papers with their summaries in one language.
type PaperListResponse struct {
	Language domain.Language    `json:"language" example:"en"`
	Papers   []domain.PaperInfo `json:"papers"`
}

// PapersByDateResponse wraps full paper records for a date or range.
type PapersByDateResponse struct {
	Start  string         `json:"start" example:"2024-01-01"`
	End    string         `json:"end"   example:"2024-01-07"`
	Count  int            `json:"count"`
	Papers []domain.Paper `json:"papers"`
}

// SearchResponse wraps ranked search hits.
type SearchResponse struct {
	Query    string               `json:"query"    example:"video diffusion"`
	Language domain.Language      `json:"language" example:"en"`
	Results  []services.SearchHit `json:"results"`
}

// LatestPapers godoc
// @ID          latestPapers
// @Summary     Latest papers
// @Description Newest papers by listing date with summaries in the requested language (null when not generated yet).
// @Tags        Papers
// @Produce     json
// @Param       limit            query   int     false "Number of papers" minimum(1) maximum(100) default(10)
// @Param       lang             query   string  false "Summary language" Enums(en, ru)
// @Param       X-User-ID        header  string  false "User whose stored language is the default"
// @Param       Accept-Language  header  string  false "Language preference"
// @Success     200  {object}  handlers.PaperListResponse
// @Failure     400  {object}  handlers.ErrorResponse "Unsupported language"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /papers/latest [get]
func (h *Handlers) LatestPapers(c *gin.Context) {
	lang, err := h.requestLanguage(c)
	if err != nil {
		failErr(c, err)
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultLatestLimit)
	papers, err := h.papers.Latest(c.Request.Context(), limit, lang)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PaperListResponse{Language: lang, Papers: papers})
}

// GetPaper godoc
// @ID          getPaper
// @Summary     Paper with summary
// @Tags        Papers
// @Produce     json
// @Param       id    path   string  true  "Paper id" example(2401.00001)
// @Param       lang  query  string  false "Summary language" Enums(en, ru)
// @Success     200  {object}  domain.PaperInfo
// @Failure     400  {object}  handlers.ErrorResponse "Unsupported language"
// @Failure     404  {object}  handlers.ErrorResponse "Paper not found"
// @Router      /papers/{id} [get]
func (h *Handlers) GetPaper(c *gin.Context) {
	lang, err := h.requestLanguage(c)
	if err != nil {
		failErr(c, err)
		return
	}
	info, err := h.papers.Info(c.Request.Context(), c.Param("id"), lang)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, info)
}

// ListPapers godoc
// @ID          listPapers
// @Summary     Papers by date or date range
// @Description Pass date=YYYY-MM-DD for one day, or start and end for an inclusive range. An inverted range is empty.
// @Tags        Papers
// @Produce     json
// @Param       date   query  string  false "Single day"   example(2024-01-02)
// @Param       start  query  string  false "Range start"  example(2024-01-01)
// @Param       end    query  string  false "Range end"    example(2024-01-07)
// @Success     200  {object}  handlers.PapersByDateResponse
// @Failure     400  {object}  handlers.ErrorResponse "Invalid date"
// @Router      /papers [get]
func (h *Handlers) ListPapers(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	start := strings.TrimSpace(c.Query("start"))
	end := strings.TrimSpace(c.Query("end"))

	var (
		papers []domain.Paper
		err    error
	)
	switch {
	case date != "" && start == "" && end == "":
		papers, err = h.papers.ByDate(c.Request.Context(), date)
		start, end = date, date
	case date == "" && start != "" && end != "":
		papers, err = h.papers.ByDateRange(c.Request.Context(), start, end)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "pass either date, or both start and end")
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	if papers == nil {
		papers = []domain.Paper{}
	}
	ok(c, http.StatusOK, PapersByDateResponse{Start: start, End: end, Count: len(papers), Papers: papers})
}

// SearchPapers godoc
// @ID          searchPapers
// @Summary     Search recent papers
// @Description Ranks recent papers by word overlap with the query.
// @Tags        Papers
// @Produce     json
// @Param       q     query  string  true  "Query" example(video diffusion)
// @Param       k     query  int     false "Max results" minimum(1) maximum(20) default(5)
// @Param       lang  query  string  false "Summary language" Enums(en, ru)
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse "Empty query"
// @Router      /papers/search [get]
func (h *Handlers) SearchPapers(c *gin.Context) {
	lang, err := h.requestLanguage(c)
	if err != nil {
		failErr(c, err)
		return
	}
	q := c.Query("q")
	hits, err := h.papers.Search(c.Request.Context(), q, utils.AtoiDefault(c.Query("k"), 0), lang)
	if err != nil {
		failErr(c, err)
		return
	}
	if hits == nil {
		hits = []services.SearchHit{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: strings.TrimSpace(q), Language: lang, Results: hits})
}

// GetSummary godoc
// @ID          getSummary
// @Summary     Stored summaries of a paper
// @Tags        Summaries
// @Produce     json
// @Param       id  path  string  true  "Paper id"
// @Success     200  {object}  domain.PaperSummary
// @Failure     404  {object}  handlers.ErrorResponse "Paper or summary not found"
// @Router      /papers/{id}/summary [get]
func (h *Handlers) GetSummary(c *gin.Context) {
	sum, err := h.papers.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// Resummarize godoc
// @ID          resummarize
// @Summary     Regenerate summaries
// @Description Summarizes the paper again in every language and overwrites the stored summaries.
// @Tags        Summaries
// @Produce     json
// @Param       id  path  string  true  "Paper id"
// @Success     200  {object}  domain.PaperSummary
// @Failure     404  {object}  handlers.ErrorResponse "Paper not found"
// @Failure     422  {object}  handlers.ErrorResponse "No abstract"
// @Failure     502  {object}  handlers.ErrorResponse "Language model failed"
// @Router      /papers/{id}/summary [post]
func (h *Handlers) Resummarize(c *gin.Context) {
	sum, err := h.sync.Resummarize(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}
