// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, not on
// messages. Every error response carries an HTTP status and one of these.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_date",
//	  "message": "date must be YYYY-MM-DD"
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/llm"
	"github.com/tbourn/paper-digest/internal/services"
	"github.com/tbourn/paper-digest/internal/session"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeUnavailable      = "unavailable"

	// Domain-specific:
	ErrCodeInvalidDate         = "invalid_date"
	ErrCodeUnsupportedLanguage = "unsupported_language"
	ErrCodeEmptyQuery          = "empty_query"
	ErrCodeUserRequired        = "user_required"
	ErrCodeSummaryNotFound     = "summary_not_found"
	ErrCodeNoPapers            = "no_papers"
	ErrCodeNoAbstract          = "no_abstract"
	ErrCodeSyncInProgress      = "sync_in_progress"
	ErrCodeUpstreamRateLimited = "upstream_rate_limited"
	ErrCodeUpstreamTimeout     = "upstream_timeout"
	ErrCodeUpstreamError       = "upstream_error"
)

// classify maps a service error onto a status and code. Messages of 5xx
// responses are generic so internals never leak.
func classify(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		return http.StatusBadRequest, ErrCodeUnsupportedLanguage, "language must be en or ru"
	case errors.Is(err, services.ErrInvalidDate):
		return http.StatusBadRequest, ErrCodeInvalidDate, err.Error()
	case errors.Is(err, services.ErrEmptyQuery):
		return http.StatusBadRequest, ErrCodeEmptyQuery, "query must not be empty"
	case errors.Is(err, session.ErrEmptyUser):
		return http.StatusBadRequest, ErrCodeUserRequired, "X-User-ID header required"
	case errors.Is(err, services.ErrPaperNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "paper not found"
	case errors.Is(err, services.ErrSummaryNotFound):
		return http.StatusNotFound, ErrCodeSummaryNotFound, "paper has no summary yet"
	case errors.Is(err, services.ErrNoPapers):
		return http.StatusNotFound, ErrCodeNoPapers, "no papers available"
	case errors.Is(err, services.ErrSyncInProgress):
		return http.StatusConflict, ErrCodeSyncInProgress, "a sync is already running"
	case errors.Is(err, services.ErrNoAbstract):
		return http.StatusUnprocessableEntity, ErrCodeNoAbstract, "paper has no abstract to summarize"
	}

	if kind, ok := llm.KindOf(err); ok {
		switch kind {
		case llm.KindRateLimit:
			return http.StatusServiceUnavailable, ErrCodeUpstreamRateLimited, "language model is rate limited, retry later"
		case llm.KindTimeout:
			return http.StatusGatewayTimeout, ErrCodeUpstreamTimeout, "language model timed out"
		default:
			return http.StatusBadGateway, ErrCodeUpstreamError, "language model request failed"
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeUnavailable, "request timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrCodeUnavailable, "request canceled"
	}
	return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
}
