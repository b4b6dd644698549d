package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreachable marks a connectivity failure: no response was received from
// the remote API at all.
var ErrUnreachable = errors.New("cannot reach server")

// APIError is a structured error payload returned by the remote API
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error (%d)", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the remote API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsRateLimited reports whether err is a 429 from the remote API
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsUnreachable reports whether err is a connectivity failure
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// UserMessage converts any error from the client into the operator-facing
// message for it. Structured API errors surface their own detail; everything
// else falls back to a generic message so no raw error reaches the view.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsUnauthorized(err):
		return "メールアドレスとパスワードを確認してください"
	case IsRateLimited(err):
		return "リクエストが多すぎます。しばらく待ってから再試行してください"
	case IsUnreachable(err):
		return "サーバーに接続できません。ネットワーク接続を確認してください"
	default:
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return apiErr.Detail
		}
		return "処理中にエラーが発生しました"
	}
}
