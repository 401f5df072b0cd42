package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/shazamohamed705/amazing/pkg/errors"
)

// upstreamErrorBody is the error shape the storefront backend returns:
// a success flag plus a human-readable message.
type upstreamErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError carrying the upstream message where one is present. The
// response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	message := ""
	var upstream upstreamErrorBody
	if json.Unmarshal(bodyBytes, &upstream) == nil {
		if upstream.Message != "" {
			message = upstream.Message
		} else if upstream.Error != "" {
			message = upstream.Error
		}
	}
	if message == "" {
		message = string(bodyBytes)
	}

	return mapUpstreamError(resp.StatusCode, message, serviceName)
}

// mapUpstreamError translates an upstream HTTP status into the local error
// taxonomy so callers can branch with errors.Is.
func mapUpstreamError(status int, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusConflict:
		return &apperrors.AppError{
			Code:    "ALREADY_EXISTS",
			Message: qualified,
			Status:  http.StatusConflict,
			Err:     apperrors.ErrAlreadyExists,
		}
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return fmt.Errorf("%s server error (%d): %s", serviceName, status, message)
	default:
		return &apperrors.AppError{
			Code:    "UPSTREAM_ERROR",
			Message: qualified,
			Status:  status,
		}
	}
}

// IsClientError reports whether the status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
