package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	})
}

func TestMaxBodyBytes(t *testing.T) {
	const limit = 16

	tests := []struct {
		name     string
		body     string
		chunked  bool
		wantCode int
		wantEcho bool
	}{
		{name: "within limit", body: `{"a":1}`, wantCode: http.StatusOK, wantEcho: true},
		{name: "exactly at limit", body: strings.Repeat("x", limit), wantCode: http.StatusOK, wantEcho: true},
		{name: "declared length over limit", body: strings.Repeat("x", limit+1), wantCode: http.StatusRequestEntityTooLarge},
		{name: "chunked over limit", body: strings.Repeat("x", 4*limit), chunked: true, wantCode: http.StatusRequestEntityTooLarge},
		{name: "chunked within limit", body: "small", chunked: true, wantCode: http.StatusOK, wantEcho: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(tt.body))
			if tt.chunked {
				r.ContentLength = -1
			}
			w := httptest.NewRecorder()

			MaxBodyBytes(limit)(echoBody(t)).ServeHTTP(w, r)

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantEcho {
				assert.Equal(t, tt.body, w.Body.String())
				return
			}
			assert.Contains(t, w.Body.String(), `"code":"PAYLOAD_TOO_LARGE"`)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestMaxBodyBytes_NoBody(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	MaxBodyBytes(1)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
