package model

import "errors"

var (
	// ErrCredentialReportUnavailable is returned when IAM never finishes generating the credential report.
	ErrCredentialReportUnavailable = errors.New("no credential report available")
	// ErrInvalidControlResult marks a control result that breaks the result contract.
	ErrInvalidControlResult = errors.New("invalid control result")
	// ErrPublish wraps report upload, signing and notification failures.
	ErrPublish = errors.New("failed to publish report")
	// ErrFeedback wraps failures submitting a compliance verdict.
	ErrFeedback = errors.New("failed to report compliance evaluation")
)
