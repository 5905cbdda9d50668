// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries one of these codes next to the HTTP status,
// giving clients a stable machine-readable taxonomy: generic codes mirror
// status semantics, domain codes name the business failure.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "quota_exceeded",
//	  "message": "weekly analysis limit reached"
//	}
package handlers

const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeInternal   = "internal_error"

	// Domain-specific:
	ErrCodeEntryNotFound    = "entry_not_found"
	ErrCodeQuotaExceeded    = "quota_exceeded"
	ErrCodeAnalysisFailed   = "analysis_failed"
	ErrCodeSaveFailed       = "save_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodePersistence      = "persistence_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
