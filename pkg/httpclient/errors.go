package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/arteza/studio/pkg/errors"
)

// remoteError is the error body returned by PostgREST-style data services.
type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// ParseResponseError consumes and closes a non-2xx response body and maps
// it to an AppError. Unknown bodies are kept verbatim in the message.
func ParseResponseError(resp *http.Response, dependency string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", dependency, resp.StatusCode, err)
	}

	msg := string(body)
	var re remoteError
	if json.Unmarshal(body, &re) == nil && re.Message != "" {
		msg = re.Message
		if re.Details != "" {
			msg += ": " + re.Details
		}
	}
	qualified := fmt.Sprintf("%s: %s", dependency, msg)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(dependency, msg)
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case resp.StatusCode == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Unavailable(dependency, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	default:
		return &apperrors.AppError{
			Code:    "REMOTE_ERROR",
			Message: qualified,
			Status:  resp.StatusCode,
		}
	}
}
