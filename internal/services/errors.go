// Package services defines the business logic for journal entries, daily
// analyses, and weekly insights. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrEntryNotFound indicates that the requested journal entry does not
	// exist or is not accessible to the current user.
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrEmptyContent is returned when a request to save a journal entry
	// contains no text after trimming.
	ErrEmptyContent = errors.New("journal content is empty")

	// ErrContentTooLong is returned when journal content exceeds the
	// maximum configured length limit.
	ErrContentTooLong = errors.New("journal content too long")

	// ErrInvalidDate is returned when a date parameter is not a valid
	// YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrQuotaExceeded is returned when the weekly analysis allowance is
	// already spent. The quota resets on the following Monday.
	ErrQuotaExceeded = errors.New("weekly analysis limit reached")

	// ErrAnalysisFailed wraps engine errors so handlers can report a
	// generation failure without leaking engine internals.
	ErrAnalysisFailed = errors.New("analysis generation failed")
)
