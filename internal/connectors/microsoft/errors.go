package microsoft

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error types for Microsoft Graph API responses.
var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("microsoft: unauthorised")

	// ErrForbidden indicates the user lacks permission for the requested resource.
	ErrForbidden = errors.New("microsoft: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("microsoft: not found")

	// ErrRateLimited indicates the request was throttled by Microsoft Graph.
	// Throttled requests are not retried.
	ErrRateLimited = errors.New("microsoft: rate limited")

	// ErrDeltaTokenExpired indicates the delta sync token has expired.
	// The delta query must be restarted from scratch.
	ErrDeltaTokenExpired = errors.New("microsoft: delta token expired, full sync required")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("microsoft: bad request")

	// ErrConflict indicates the resource changed or already exists.
	ErrConflict = errors.New("microsoft: conflict")

	// ErrServerError indicates a server-side error from Microsoft Graph.
	ErrServerError = errors.New("microsoft: server error")

	// ErrRequestFailed covers any other non-2xx status.
	ErrRequestFailed = errors.New("microsoft: request failed")

	// ErrMalformedResponse indicates a 2xx body that is not an OData JSON object.
	ErrMalformedResponse = errors.New("microsoft: malformed response")
)

// WrapError converts an HTTP status code to an appropriate error.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGone:
		return ErrDeltaTokenExpired
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusConflict, http.StatusPreconditionFailed:
		return ErrConflict
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		if statusCode >= 400 {
			return ErrRequestFailed
		}
		return nil
	}
}

// ErrorCode is a service-defined error code carried in Graph error bodies.
type ErrorCode string

// Error codes documented for Microsoft Graph.
const (
	CodeAccessDenied         ErrorCode = "accessDenied"
	CodeActivityLimitReached ErrorCode = "activityLimitReached"
	CodeGeneralException     ErrorCode = "generalException"
	CodeInvalidRange         ErrorCode = "invalidRange"
	CodeInvalidRequest       ErrorCode = "invalidRequest"
	CodeItemNotFound         ErrorCode = "itemNotFound"
	CodeMalwareDetected      ErrorCode = "malwareDetected"
	CodeNameAlreadyExists    ErrorCode = "nameAlreadyExists"
	CodeNotAllowed           ErrorCode = "notAllowed"
	CodeNotSupported         ErrorCode = "notSupported"
	CodeResourceModified     ErrorCode = "resourceModified"
	CodeResyncRequired       ErrorCode = "resyncRequired"
	CodeServiceNotAvailable  ErrorCode = "serviceNotAvailable"
	CodeQuotaLimitReached    ErrorCode = "quotaLimitReached"
	CodeUnauthenticated      ErrorCode = "unauthenticated"
	CodeTooManyRequests      ErrorCode = "TooManyRequests"
	CodeResourceNotFound     ErrorCode = "Request_ResourceNotFound"

	// CodeMalformed is used when the error body could not be decoded.
	CodeMalformed ErrorCode = "malformed"
)

// InnerError is one level of the nested innerError chain.
type InnerError struct {
	Code            ErrorCode   `json:"code,omitempty"`
	Message         string      `json:"message,omitempty"`
	RequestID       string      `json:"request-id,omitempty"`
	ClientRequestID string      `json:"client-request-id,omitempty"`
	Date            string      `json:"date,omitempty"`
	Inner           *InnerError `json:"innerError,omitempty"`
}

// ServiceError is a non-2xx Graph response.
type ServiceError struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	// RequestID comes from the inner error or the request-id header.
	RequestID string
	Date      string
	Inner     *InnerError
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("microsoft: status %d", e.StatusCode)
	if e.Code != "" {
		msg += " " + string(e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RequestID != "" {
		msg += " (request-id " + e.RequestID + ")"
	}
	return msg
}

// Unwrap maps the status code onto the package sentinels, so
// errors.Is(err, ErrNotFound) works for a 404.
func (e *ServiceError) Unwrap() error {
	return WrapError(e.StatusCode)
}

// Matches reports whether code appears at any level of the error chain.
func (e *ServiceError) Matches(code ErrorCode) bool {
	if e.Code == code {
		return true
	}
	for inner := e.Inner; inner != nil; inner = inner.Inner {
		if inner.Code == code {
			return true
		}
	}
	return false
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

type errorBody struct {
	Error *struct {
		Code       ErrorCode   `json:"code"`
		Message    string      `json:"message"`
		InnerError *InnerError `json:"innerError"`
	} `json:"error"`
}

// maxErrorSnippet bounds how much of an undecodable error body ends up in the message.
const maxErrorSnippet = 256

// newServiceError decodes a Graph error body. Bodies that are not Graph
// errors still produce a ServiceError with CodeMalformed.
func newServiceError(statusCode int, header http.Header, body []byte) *ServiceError {
	svcErr := &ServiceError{
		StatusCode: statusCode,
		RequestID:  header.Get("request-id"),
		Date:       header.Get("Date"),
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == nil {
		svcErr.Code = CodeMalformed
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet] + "..."
		}
		if snippet == "" {
			snippet = http.StatusText(statusCode)
		}
		svcErr.Message = snippet
		return svcErr
	}

	svcErr.Code = parsed.Error.Code
	svcErr.Message = parsed.Error.Message
	svcErr.Inner = parsed.Error.InnerError
	if inner := svcErr.Inner; inner != nil {
		if inner.RequestID != "" {
			svcErr.RequestID = inner.RequestID
		}
		if inner.Date != "" {
			svcErr.Date = inner.Date
		}
	}
	return svcErr
}
