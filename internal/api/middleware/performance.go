package middleware

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// minCompressSize is the smallest body worth compressing
const minCompressSize = 512

var gzipPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return gz
	},
}

// bufferedResponse holds a handler's output until the middleware decides how to send it
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

// flush copies headers and body to w
func (b *bufferedResponse) flush(w http.ResponseWriter, body []byte) {
	for k, v := range b.header {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(b.statusCode())
	_, _ = w.Write(body)
}

// Compression gzips JSON bodies for clients that accept it
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsGzip(r) {
			next.ServeHTTP(w, r)
			return
		}

		buf := newBufferedResponse()
		next.ServeHTTP(buf, r)

		body := buf.body.Bytes()
		if len(body) < minCompressSize || !strings.HasPrefix(buf.header.Get("Content-Type"), "application/json") {
			buf.flush(w, body)
			return
		}

		var compressed bytes.Buffer
		gz := gzipPool.Get().(*gzip.Writer)
		gz.Reset(&compressed)
		_, _ = gz.Write(body)
		_ = gz.Close()
		gzipPool.Put(gz)

		buf.header.Set("Content-Encoding", "gzip")
		buf.header.Add("Vary", "Accept-Encoding")
		buf.flush(w, compressed.Bytes())
	})
}

func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.SplitN(enc, ";", 2)[0]) == "gzip" {
			return true
		}
	}
	return false
}

// ETag tags successful GET responses with a hash of the page and answers
// matching If-None-Match requests with 304.
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		buf := newBufferedResponse()
		next.ServeHTTP(buf, r)

		body := buf.body.Bytes()
		if buf.statusCode() != http.StatusOK {
			buf.flush(w, body)
			return
		}

		sum := sha256.Sum256(body)
		etag := `"` + hex.EncodeToString(sum[:16]) + `"`
		buf.header.Set("ETag", etag)

		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			for k, v := range buf.header {
				w.Header()[k] = v
			}
			w.WriteHeader(http.StatusNotModified)
			return
		}
		buf.flush(w, body)
	})
}

// etagMatches handles "*", lists and weak validators
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// CacheControl marks responses as revalidate-always. The server keeps its
// own cache; clients rely on the ETag instead of a max-age.
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Cache-Control", "no-store")
		} else {
			w.Header().Set("Cache-Control", "private, no-cache, must-revalidate")
		}

		next.ServeHTTP(w, r)
	})
}

// ResponseOptimization combines cache control, ETag and compression. The ETag
// covers the encoded body, so gzip and identity responses carry different tags.
func ResponseOptimization(next http.Handler) http.Handler {
	return CacheControl(ETag(Compression(next)))
}
