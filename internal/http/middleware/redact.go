package middleware

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// UUIDs go before phone numbers so the phone pattern cannot match UUID
// digit groups.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// A leading "+" has no word boundary before it, so it is matched
	// explicitly to keep it inside the redaction.
	phoneRE = regexp.MustCompile(`(?:\+|\b)(?:\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
	// Upstream API keys ("sk-...") sometimes end up in query strings.
	apiKeyRE = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{16,}\b`)
)

// Redactor scrubs request metadata before it is logged. It never sees
// bodies.
type Redactor struct {
	headers map[string]struct{}
	query   map[string]struct{}
}

// NewRedactor masks Authorization, Cookie, Set-Cookie and X-Api-Key headers
// plus the api_key, key and token query parameters, in addition to the
// given extras. Names match case-insensitively.
func NewRedactor(extraHeaders, extraQuery []string) *Redactor {
	r := &Redactor{
		headers: map[string]struct{}{"authorization": {}, "cookie": {}, "set-cookie": {}, "x-api-key": {}},
		query:   map[string]struct{}{"api_key": {}, "key": {}, "token": {}},
	}
	for _, h := range extraHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.headers[h] = struct{}{}
		}
	}
	for _, q := range extraQuery {
		if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
			r.query[q] = struct{}{}
		}
	}
	return r
}

// Text replaces identifiers, emails, phone numbers and API keys in s.
func (r *Redactor) Text(s string) string {
	if s == "" {
		return s
	}
	s = apiKeyRE.ReplaceAllString(s, "[REDACTED:key]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// Query masks sensitive parameters and scrubs the rest. Unparseable input
// is scrubbed as plain text.
func (r *Redactor) Query(raw string) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return r.Text(raw)
	}
	for k, vv := range vals {
		if _, ok := r.query[strings.ToLower(k)]; ok {
			vals[k] = []string{redacted}
			continue
		}
		for i, v := range vv {
			vv[i] = r.Text(v)
		}
	}
	// Encode escapes the brackets; logs read better unescaped.
	out, uerr := url.QueryUnescape(vals.Encode())
	if uerr != nil {
		return vals.Encode()
	}
	return out
}

// Headers flattens h with masked and scrubbed values.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = r.Text(strings.Join(vv, ", "))
	}
	return out
}
