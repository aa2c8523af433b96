package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is the client-facing translation of an unexpected error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError translates infrastructure errors into a code and message without
// leaking driver details. what names the thing being worked on, e.g. "cart".
func ParseError(err error, what string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "unexpected error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: what + " not found"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorInfo{Status: http.StatusGatewayTimeout, Code: RequestTimeout, Message: what + " timed out"}
	}
	if errors.Is(err, context.Canceled) {
		return ErrorInfo{Status: http.StatusRequestTimeout, Code: RequestTimeout, Message: "request was cancelled"}
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "database is closed") || strings.Contains(lower, "i/o timeout") {
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: ServiceUnavailable, Message: what + " is temporarily unavailable"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "failed to process " + what}
}

// ParseAndRespond writes the translated error.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, what string) {
	info := ParseError(err, what)
	c.JSON(info.Status, ErrorResponse{Error: info.Code, Message: info.Message})
}
