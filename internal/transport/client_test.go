package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate/pkg/errors"
)

func TestNoAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&NoAuth{}).Apply(req, "test-api-key")
	assert.Empty(t, req.Header)
}

func TestBearerAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&BearerAuth{}).Apply(req, "test-api-key")
	assert.Equal(t, "Bearer test-api-key", req.Header.Get("Authorization"))
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"answer": "42"}`))
	}))
	defer server.Close()

	var out struct {
		Answer string `json:"answer"`
	}
	client := New("test")
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "42", out.Answer)
}

func TestPostJSONAppliesAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["prompt"])
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	client := New("test", WithAuth(&BearerAuth{}, "secret"))
	require.NoError(t, client.PostJSON(context.Background(), server.URL, map[string]string{"prompt": "hello"}, &out))
	assert.True(t, out.OK)
}

func TestDecodeResponseStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limited", http.StatusTooManyRequests, errors.IsRateLimited},
		{"unauthorized", http.StatusUnauthorized, errors.IsAPIKeyError},
		{"unavailable", http.StatusBadGateway, errors.IsProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := New("test").GetJSON(context.Background(), server.URL, &struct{}{})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)

			var apiErr *errors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "test", apiErr.Provider)
		})
	}
}

func TestDecodeResponseInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	err := New("test").GetJSON(context.Background(), server.URL, &struct{}{})
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDoTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := New("test").GetJSON(context.Background(), url, &struct{}{})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, DefaultHTTPTimeout, New("svc").Timeout())
	assert.Equal(t, 2*time.Minute, New("svc", WithTimeout(2*time.Minute)).Timeout())

	custom := &http.Client{Timeout: time.Second}
	assert.Equal(t, time.Second, New("svc", WithHTTPClient(custom), WithTimeout(time.Hour)).Timeout())
}
