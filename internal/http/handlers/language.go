package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/http/middleware"
)

// Order matches domain.SupportedLanguages; index 0 is the fallback.
var (
	supportedTags = []language.Tag{language.English, language.Russian}
	langMatcher   = language.NewMatcher(supportedTags)
)

// matchAcceptLanguage picks the best supported language for an
// Accept-Language header, or ok=false when nothing matches.
func matchAcceptLanguage(header string) (domain.Language, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := langMatcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	if idx == 1 {
		return domain.RU, true
	}
	return domain.EN, true
}

// requestLanguage resolves the response language: an explicit ?lang=
// wins, then the caller's stored browse language, then Accept-Language,
// then English. An unsupported ?lang= is an error.
func (h *Handlers) requestLanguage(c *gin.Context) (domain.Language, error) {
	if q := strings.TrimSpace(c.Query("lang")); q != "" {
		return domain.ParseLanguage(q)
	}
	if uid := middleware.UserID(c); uid != "" && h.browse != nil {
		lang, found, err := h.browse.StoredLanguage(c.Request.Context(), uid)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("session lookup failed")
		} else if found {
			return lang, nil
		}
	}
	if lang, found := matchAcceptLanguage(c.GetHeader("Accept-Language")); found {
		return lang, nil
	}
	return domain.EN, nil
}
