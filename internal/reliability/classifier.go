package reliability

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Classify labels an upstream model error for metrics and client hints. It
// never drives retries.
func Classify(err error) (code string, retryable bool) {
	if err == nil {
		return "", false
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", true
	case errors.Is(err, context.Canceled):
		return "canceled", false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return "rate_limited", true
		}
		return fmt.Sprintf("upstream_%d", apiErr.Code), IsRetryableHTTPStatus(apiErr.Code)
	}
	return "unknown", false
}
