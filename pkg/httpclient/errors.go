package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
)

// upstreamErrorBody accepts the common third-party shapes
// {"error":{"code","description"|"message"}} and {"code","message"}.
type upstreamErrorBody struct {
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Message     string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (b upstreamErrorBody) message() string {
	if b.Error != nil {
		if b.Error.Description != "" {
			return b.Error.Description
		}
		if b.Error.Message != "" {
			return b.Error.Message
		}
		return b.Error.Code
	}
	if b.Message != "" {
		return b.Message
	}
	return b.Code
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError. Problems the caller can fix (400, 404)
// keep their meaning; anything caused by our credentials, quota or the
// upstream itself becomes 503.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.ServiceUnavailable(upstream+" unavailable",
			fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err))
	}

	msg := http.StatusText(resp.StatusCode)
	var body upstreamErrorBody
	if json.Unmarshal(raw, &body) == nil && body.message() != "" {
		msg = body.message()
	}
	cause := fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, msg)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &apperrors.AppError{
			Code:    "INVALID_INPUT",
			Message: fmt.Sprintf("%s: %s", upstream, msg),
			Status:  http.StatusBadRequest,
			Err:     errors.Join(apperrors.ErrInvalidInput, cause),
		}
	case http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("%s: %s", upstream, msg),
			Status:  http.StatusNotFound,
			Err:     errors.Join(apperrors.ErrNotFound, cause),
		}
	default:
		return apperrors.ServiceUnavailable(upstream+" unavailable", cause)
	}
}

// TransportError converts a failure to reach the upstream (breaker open,
// network error, 5xx) into a 503 AppError.
func TransportError(err error, upstream string) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.ServiceUnavailable(upstream+" temporarily unavailable", err)
	}
	return apperrors.ServiceUnavailable(upstream+" unavailable", err)
}
