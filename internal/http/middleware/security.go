package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
//
// Paper listings change at most once per sync, so successful GET responses
// may be cached for PublicMaxAge. Mutating requests (sync, re-summarize,
// browse moves) are always no-store.
type SecurityOptions struct {
	EnableHSTS   bool          // only when HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	PublicMaxAge time.Duration // 0 disables caching of GET responses
	EnablePolicy bool          // Permissions-Policy and X-Permitted-Cross-Domain-Policies
}

// SecurityHeaders adds conservative API hardening headers and a
// Cache-Control policy.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	hsts := int(opt.HSTSMaxAge.Seconds())
	if hsts <= 0 {
		hsts = int((180 * 24 * time.Hour).Seconds())
	}
	hstsValue := "max-age=" + strconv.Itoa(hsts) + "; includeSubDomains; preload"
	publicValue := ""
	if s := int(opt.PublicMaxAge.Seconds()); s > 0 {
		publicValue = "public, max-age=" + strconv.Itoa(s)
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		// Browse state is per user, so anything carrying a user id is private.
		switch {
		case c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead:
			h.Set("Cache-Control", "no-store")
		case UserID(c) != "" || publicValue == "":
			h.Set("Cache-Control", "no-cache")
		default:
			h.Set("Cache-Control", publicValue)
			h.Add("Vary", "Accept-Language")
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			switch cur := h.Get(hdr); {
			case cur == "":
				h.Set(hdr, requestIDHeader)
			case !strings.Contains(cur, requestIDHeader):
				h.Set(hdr, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS directly or through
// a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
