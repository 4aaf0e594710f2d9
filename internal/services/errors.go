// Package services defines the business logic for syncing papers, generating
// summaries, serving the read API, and per-user browsing. This file centralizes
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrPaperNotFound indicates that no paper with the requested id exists.
	ErrPaperNotFound = errors.New("paper not found")

	// ErrSummaryNotFound indicates that the paper has no stored summary yet.
	ErrSummaryNotFound = errors.New("summary not found")

	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrEmptyQuery is returned when a search query is blank.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrSyncInProgress is returned to a caller that starts a sync while
	// another one is running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNoPapers is returned by browsing when the store has no papers.
	ErrNoPapers = errors.New("no papers available")

	// ErrNoAbstract is returned when a paper to summarize has no abstract
	// and none could be resolved.
	ErrNoAbstract = errors.New("paper has no abstract")
)
