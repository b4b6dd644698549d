package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL}, zap.NewNop())
}

func TestErrorClassification(t *testing.T) {
	unauthorized := &APIError{StatusCode: http.StatusUnauthorized, Detail: "bad credentials"}
	rateLimited := &APIError{StatusCode: http.StatusTooManyRequests}
	server := &APIError{StatusCode: http.StatusInternalServerError, Detail: "boom"}
	unreachable := fmt.Errorf("%w: dial tcp refused", ErrUnreachable)

	assert.True(t, IsUnauthorized(unauthorized))
	assert.False(t, IsUnauthorized(server))

	assert.True(t, IsRateLimited(rateLimited))
	assert.False(t, IsRateLimited(unauthorized))

	assert.True(t, IsUnreachable(unreachable))
	assert.False(t, IsUnreachable(server))

	// Wrapped errors still classify
	assert.True(t, IsUnauthorized(fmt.Errorf("login: %w", unauthorized)))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthorized", &APIError{StatusCode: 401}, "メールアドレスとパスワードを確認してください"},
		{"rate limited", &APIError{StatusCode: 429}, "リクエストが多すぎます。しばらく待ってから再試行してください"},
		{"unreachable", fmt.Errorf("%w: refused", ErrUnreachable), "サーバーに接続できません。ネットワーク接続を確認してください"},
		{"api detail surfaces", &APIError{StatusCode: 500, Detail: "po_number required"}, "po_number required"},
		{"opaque error", errors.New("weird"), "処理中にエラーが発生しました"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestClient_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens anymore

	c := New(Config{BaseURL: srv.URL}, zap.NewNop())
	_, err := c.Login(context.Background(), "a@example.com", "pw")
	assert.True(t, IsUnreachable(err))
}

func TestClient_ExtractsDetailFromErrorBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"detail key", `{"detail":"invalid credentials"}`},
		{"message key", `{"message":"invalid credentials"}`},
		{"error key", `{"error":"invalid credentials"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, tt.body)
			}))

			_, err := c.Login(context.Background(), "a@example.com", "pw")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
			assert.Equal(t, "invalid credentials", apiErr.Detail)
		})
	}
}

func TestClient_BearerTokenOnAuthenticatedCalls(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer my-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]bool{"valid": true})
	}))

	valid, err := c.Verify(context.Background(), "my-token")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestClient_UploadOCRAcceptsBothIDKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"ocrId key", `{"ocrId":"job-a"}`, "job-a"},
		{"id key", `{"id":"job-b"}`, "job-b"},
		{"ocrId wins when both present", `{"ocrId":"job-a","id":"job-b"}`, "job-a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Equal(t, "true", r.FormValue("local_kw"))
				fmt.Fprint(w, tt.body)
			}))

			jobID, err := c.UploadOCR(context.Background(), "tok", "po.pdf", strings.NewReader("%PDF-"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, jobID)
		})
	}
}

func TestClient_UploadOCRMissingJobID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))

	_, err := c.UploadOCR(context.Background(), "tok", "po.pdf", strings.NewReader("%PDF-"))
	assert.Error(t, err)
}

func TestClient_OCRExtractNilDataComesBackEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":null}`)
	}))

	data, err := c.OCRExtract(context.Background(), "tok", "job-1")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Empty(t, data.Products)
}

func TestClient_RecommendShippingFailureBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"reason":"pdf_not_found"}`)
	}))

	results, failure, err := c.RecommendShipping(context.Background(), ShippingRequest{})
	require.NoError(t, err)
	assert.Nil(t, results)
	require.NotNil(t, failure)
	assert.Equal(t, "pdf_not_found", failure.Reason)
}

func TestClient_RegisterPORejectedWithoutSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": false})
	}))

	err := c.RegisterPO(context.Background(), "tok", RegisterPayload{})
	assert.Error(t, err)
}
