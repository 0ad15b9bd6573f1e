// Package errors provides the error taxonomy shared by the booking gateway and the wizard session.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeRemoteServiceError ErrorCode = "REMOTE_SERVICE_ERROR"
	ErrCodeMalformedResponse  ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeNetworkError       ErrorCode = "NETWORK_ERROR"
	ErrCodeRequestTimeout     ErrorCode = "REQUEST_TIMEOUT"

	ErrCodeSlotsUnavailable     ErrorCode = "SLOTS_UNAVAILABLE"
	ErrCodeBookingFailed        ErrorCode = "BOOKING_FAILED"
	ErrCodeEmailSendFailed      ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodePartialCaptureFailed ErrorCode = "PARTIAL_CAPTURE_FAILED"

	ErrCodeLedgerUnavailable ErrorCode = "LEDGER_UNAVAILABLE"
	ErrCodeConfigInvalid     ErrorCode = "CONFIG_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	// Cause is the typed error this one classifies, if any.
	Cause error `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("StandardError[%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.Cause }

// ==========================
// 2. Typed Errors
// ==========================

// ValidationError is a local, field-level failure that blocks step advancement.
// Fields maps a form field name to the message shown next to it.
type ValidationError struct {
	Step   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Step, strings.Join(parts, "; "))
}

// Field returns the message for one field, or "" if it passed.
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// RemoteServiceError is returned when the backend answers with a non-2xx status.
type RemoteServiceError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("%s: remote service returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// MalformedResponseError is returned when a 2xx response cannot be decoded or
// lacks the expected shape.
type MalformedResponseError struct {
	Operation string
	Body      string
	Err       error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Operation, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// NetworkError is returned when the request never reached the backend.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ==========================
// 3. Error Constructors
// ==========================

func NewValidationError(step string, fields map[string]string) *ValidationError {
	return &ValidationError{Step: step, Fields: fields}
}

func NewRemoteServiceError(operation string, status int, body string) *RemoteServiceError {
	return &RemoteServiceError{Operation: operation, StatusCode: status, Body: body}
}

func NewMalformedResponseError(operation, body string, err error) *MalformedResponseError {
	return &MalformedResponseError{Operation: operation, Body: body, Err: err}
}

func NewNetworkError(operation string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Err: err}
}

// NewSlotsUnavailableError wraps the last failure of a slot fetch after retries ran out.
func NewSlotsUnavailableError(month string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSlotsUnavailable,
		Message:   "Available times could not be loaded",
		Details:   fmt.Sprintf("month: %s, error: %v", month, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLedgerUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerUnavailable,
		Message:   "Booking ledger unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBookingFailedError classifies a failed createCalcomBooking call.
func NewBookingFailedError(err error) *StandardError {
	return classify(ErrCodeBookingFailed, "Booking could not be created", err)
}

// NewEmailSendFailedError classifies a failed sendContactEmail call.
func NewEmailSendFailedError(err error) *StandardError {
	return classify(ErrCodeEmailSendFailed, "Contact email could not be sent", err)
}

// NewPartialCaptureFailedError classifies a failed sendPartialFormData call.
func NewPartialCaptureFailedError(err error) *StandardError {
	return classify(ErrCodePartialCaptureFailed, "Partial form data could not be sent", err)
}

// classify wraps err under code. Retryable and the cause code are taken from err.
func classify(code ErrorCode, message string, err error) *StandardError {
	cause := ToStandardError(err)
	metadata := map[string]interface{}{"cause": string(cause.Code)}
	for k, v := range cause.Metadata {
		metadata[k] = v
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   err.Error(),
		Retryable: cause.Retryable,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ==========================
// 4. Normalization
// ==========================

// ToStandardError normalizes any error produced by this module. The returned
// code keeps remote, malformed and network failures distinct for logging.
func ToStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}

	var (
		std       *StandardError
		invalid   *ValidationError
		remote    *RemoteServiceError
		malformed *MalformedResponseError
		network   *NetworkError
	)

	switch {
	case stderrors.As(err, &std):
		return std
	case stderrors.As(err, &invalid):
		return &StandardError{
			Code:      ErrCodeValidationFailed,
			Message:   "Form validation failed",
			Details:   invalid.Error(),
			Metadata:  map[string]interface{}{"step": invalid.Step},
			Timestamp: time.Now().UTC(),
		}
	case stderrors.As(err, &remote):
		return &StandardError{
			Code:      ErrCodeRemoteServiceError,
			Message:   fmt.Sprintf("Remote service rejected %s", remote.Operation),
			Details:   remote.Body,
			Retryable: remote.StatusCode >= 500 || remote.StatusCode == 429,
			Metadata: map[string]interface{}{
				"operation":  remote.Operation,
				"statusCode": remote.StatusCode,
			},
			Timestamp: time.Now().UTC(),
		}
	case stderrors.As(err, &malformed):
		return &StandardError{
			Code:      ErrCodeMalformedResponse,
			Message:   fmt.Sprintf("Malformed response from %s", malformed.Operation),
			Details:   malformed.Err.Error(),
			Retryable: true,
			Metadata:  map[string]interface{}{"operation": malformed.Operation},
			Timestamp: time.Now().UTC(),
		}
	case stderrors.As(err, &network):
		code := ErrCodeNetworkError
		if stderrors.Is(network.Err, context.DeadlineExceeded) {
			code = ErrCodeRequestTimeout
		}
		return &StandardError{
			Code:      code,
			Message:   fmt.Sprintf("Request %s did not reach the server", network.Operation),
			Details:   network.Err.Error(),
			Retryable: true,
			Metadata:  map[string]interface{}{"operation": network.Operation},
			Timestamp: time.Now().UTC(),
		}
	default:
		return &StandardError{
			Code:      "INTERNAL_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		}
	}
}

// UserMessage returns the text shown to the user. Remote, malformed and
// network failures all read the same.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var invalid *ValidationError
	if stderrors.As(err, &invalid) {
		return "Please correct the highlighted fields."
	}
	switch ToStandardError(err).Code {
	case ErrCodeRemoteServiceError, ErrCodeMalformedResponse, ErrCodeNetworkError, ErrCodeRequestTimeout,
		ErrCodeBookingFailed, ErrCodeEmailSendFailed, ErrCodePartialCaptureFailed:
		return "We couldn't reach the booking service. Please try again."
	case ErrCodeSlotsUnavailable:
		return "Failed to load available times. Please retry."
	default:
		return "Something went wrong. Please try again."
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetRetryCount returns the attempt ceiling for a code. It only applies to
// errors whose Retryable is set; a 4xx RemoteServiceError is never retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNetworkError,
		ErrCodeMalformedResponse,
		ErrCodeSlotsUnavailable,
		ErrCodeLedgerUnavailable:
		return 3

	case ErrCodeRequestTimeout,
		ErrCodeRemoteServiceError:
		return 2

	default:
		return 0
	}
}

// Attempts returns how many times an operation failing with err should run in
// total, capped at limit.
func Attempts(err error, limit int) int {
	std := ToStandardError(err)
	if std == nil || !std.Retryable {
		return 1
	}
	if n := GetRetryCount(std.Code); n < limit {
		limit = n
	}
	if limit < 1 {
		return 1
	}
	return limit
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "REMOTE") || strings.Contains(codeStr, "MALFORMED"):
		return "REMOTE"
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "TIMEOUT"):
		return "NETWORK"
	case strings.Contains(codeStr, "SLOTS") || strings.Contains(codeStr, "BOOKING"):
		return "SCHEDULING"
	case strings.Contains(codeStr, "EMAIL") || strings.Contains(codeStr, "PARTIAL"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "LEDGER") || strings.Contains(codeStr, "CONFIG"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}
