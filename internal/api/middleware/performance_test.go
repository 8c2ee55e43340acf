package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "MISS")
		_, _ = io.WriteString(w, body)
	})
}

func TestCompression(t *testing.T) {
	large := `{"data":"` + strings.Repeat("a", 2*minCompressSize) + `"}`

	tests := []struct {
		name        string
		body        string
		accept      string
		wantEncoded bool
	}{
		{"large json with gzip", large, "gzip, deflate", true},
		{"gzip with quality", large, "br;q=1.0, gzip;q=0.8", true},
		{"small json", `{"data":[]}`, "gzip", false},
		{"client without gzip", large, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/lists/historico", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			Compression(jsonHandler(tt.body)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
			if !tt.wantEncoded {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
				assert.Equal(t, tt.body, rec.Body.String())
				return
			}

			assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
			zr, err := gzip.NewReader(rec.Body)
			require.NoError(t, err)
			decoded, err := io.ReadAll(zr)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(decoded))
		})
	}
}

func TestETag(t *testing.T) {
	h := ETag(jsonHandler(`{"data":[1,2,3]}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lists/historico", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/lists/historico", nil)
	req.Header.Set("If-None-Match", `"other", W/`+etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, etag, rec.Header().Get("ETag"))
}

func TestETagSkipsErrorsAndWrites(t *testing.T) {
	failing := ETag(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"x"}`)
	}))
	rec := httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lists/historico", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))

	rec = httptest.NewRecorder()
	ETag(jsonHandler(`{}`)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/lists/historico/invalidate", nil))
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestCacheControl(t *testing.T) {
	h := CacheControl(jsonHandler(`{}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lists/historico", nil))
	assert.Equal(t, "private, no-cache, must-revalidate", rec.Header().Get("Cache-Control"))
}
