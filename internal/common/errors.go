package common

import (
	"errors"
	"fmt"
	"net/http"
)

// HttpError is an error with the HTTP status and code it is reported as.
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

// AsHTTPError finds an HttpError in err's chain.
func AsHTTPError(err error) (*HttpError, bool) {
	var e *HttpError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newHTTPError(status int, code, msg, defaultMsg string) *HttpError {
	if msg == "" {
		msg = defaultMsg
	}
	return &HttpError{StatusCode: status, Code: code, Message: msg}
}

func HTTPErrorBadRequest(msg string) *HttpError {
	return newHTTPError(http.StatusBadRequest, "BAD_REQUEST", msg, "Bad request")
}

func HTTPErrorNotFound(msg string) *HttpError {
	return newHTTPError(http.StatusNotFound, "NOT_FOUND", msg, "Not found")
}

func HTTPErrorInternalError(msg string) *HttpError {
	return newHTTPError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", msg, "Internal server error")
}

func HTTPErrorUnauthorized(msg string) *HttpError {
	return newHTTPError(http.StatusUnauthorized, "UNAUTHORIZED", msg, "Unauthorized")
}

func HTTPErrorForbidden(msg string) *HttpError {
	return newHTTPError(http.StatusForbidden, "FORBIDDEN", msg, "Forbidden")
}

func HTTPErrorResourceConflict(msg string) *HttpError {
	return newHTTPError(http.StatusConflict, "RESOURCE_CONFLICT", msg, "Resource conflict")
}

// HTTPErrorUnprocessable reports a well-formed request the ledger cannot carry out.
func HTTPErrorUnprocessable(msg string) *HttpError {
	return newHTTPError(http.StatusUnprocessableEntity, "UNPROCESSABLE", msg, "Unprocessable")
}

func HTTPErrorTooManyRequests(msg string) *HttpError {
	return newHTTPError(http.StatusTooManyRequests, "RATE_LIMITED", msg, "Too many requests")
}
