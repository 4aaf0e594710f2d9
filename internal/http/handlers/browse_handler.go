package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/http/middleware"
	"github.com/tbourn/paper-digest/internal/services"
)

// LanguageRequest selects the browse language.
type LanguageRequest struct {
	// "en", "ru" or the English language name
	Language string `json:"language" binding:"required" example:"ru"`
}

// LanguageResponse echoes the stored language.
type LanguageResponse struct {
	Language domain.Language `json:"language" example:"ru"`
}

// browseUser returns the caller's id or fails the request.
func browseUser(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		fail(c, http.StatusBadRequest, ErrCodeUserRequired, "X-User-ID header required")
		return "", false
	}
	return uid, true
}

// CurrentPaper godoc
// @ID          browseCurrent
// @Summary     Paper under the cursor
// @Description Returns the paper the caller is looking at in the latest window. New users start at the newest paper in English.
// @Tags        Browse
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Success     200  {object}  services.BrowseView
// @Failure     400  {object}  handlers.ErrorResponse "Missing user"
// @Failure     404  {object}  handlers.ErrorResponse "No papers"
// @Router      /browse/current [get]
func (h *Handlers) CurrentPaper(c *gin.Context) {
	h.browseStep(c, h.browse.Current)
}

// NextPaper godoc
// @ID          browseNext
// @Summary     Advance the cursor
// @Description Moves to the next paper, wrapping to the newest after the last one.
// @Tags        Browse
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Success     200  {object}  services.BrowseView
// @Failure     400  {object}  handlers.ErrorResponse "Missing user"
// @Failure     404  {object}  handlers.ErrorResponse "No papers"
// @Router      /browse/next [post]
func (h *Handlers) NextPaper(c *gin.Context) {
	h.browseStep(c, h.browse.Next)
}

// PrevPaper godoc
// @ID          browsePrev
// @Summary     Move the cursor back
// @Description Moves to the previous paper, wrapping to the last one before the first.
// @Tags        Browse
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Success     200  {object}  services.BrowseView
// @Failure     400  {object}  handlers.ErrorResponse "Missing user"
// @Failure     404  {object}  handlers.ErrorResponse "No papers"
// @Router      /browse/prev [post]
func (h *Handlers) PrevPaper(c *gin.Context) {
	h.browseStep(c, h.browse.Prev)
}

func (h *Handlers) browseStep(c *gin.Context, step func(ctx context.Context, userID string) (*services.BrowseView, error)) {
	uid, found := browseUser(c)
	if !found {
		return
	}
	view, err := step(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// SetLanguage godoc
// @ID          browseLanguage
// @Summary     Choose the summary language
// @Description Stores the caller's language. It becomes the default for browse and read endpoints when ?lang= is absent.
// @Tags        Browse
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                    true  "Caller identity"
// @Param       body       body    handlers.LanguageRequest  true  "Language"
// @Success     200  {object}  handlers.LanguageResponse
// @Failure     400  {object}  handlers.ErrorResponse "Missing user or unsupported language"
// @Router      /browse/language [put]
func (h *Handlers) SetLanguage(c *gin.Context) {
	uid, found := browseUser(c)
	if !found {
		return
	}
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be {\"language\": \"en\"|\"ru\"}")
		return
	}
	lang, err := h.browse.SetLanguage(c.Request.Context(), uid, req.Language)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LanguageResponse{Language: lang})
}

// ResetBrowse godoc
// @ID          browseReset
// @Summary     Forget browse state
// @Tags        Browse
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse "Missing user"
// @Router      /browse [delete]
func (h *Handlers) ResetBrowse(c *gin.Context) {
	uid, found := browseUser(c)
	if !found {
		return
	}
	if err := h.browse.Reset(c.Request.Context(), uid); err != nil {
		failErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
