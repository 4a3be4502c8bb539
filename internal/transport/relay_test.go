package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/UnendingLoop/TinyRelay/internal/metrics"
	"github.com/UnendingLoop/TinyRelay/internal/mwlogger"
	"github.com/UnendingLoop/TinyRelay/internal/service"
	"github.com/UnendingLoop/TinyRelay/internal/tinify"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
)

// stack - real client + real service behind gin, upstream and download are stubs
type stack struct {
	handler       http.Handler
	uploadHits    *int32
	downloadHits  *int32
	compressedOut []byte
}

func newStack(t *testing.T, apiKey string, upstreamBody func(downloadURL string) string, downloadUp bool) *stack {
	t.Helper()

	s := &stack{
		uploadHits:    new(int32),
		downloadHits:  new(int32),
		compressedOut: []byte("compressed-image-bytes"),
	}

	dl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(s.downloadHits, 1)
		_, _ = w.Write(s.compressedOut)
	}))
	dlURL := dl.URL + "/output/xyz"
	if downloadUp {
		t.Cleanup(dl.Close)
	} else {
		dl.Close()
	}

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(s.uploadHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(upstreamBody(dlURL)))
	}))
	t.Cleanup(up.Close)

	client := tinify.New(up.URL, func() string { return apiKey }, http.DefaultClient)
	svc := service.NewRelayService(client, http.DefaultClient, metrics.New())
	h := NewRelayHandler(svc, nil)

	r := gin.New()
	r.GET("/health", func(c *gin.Context) { h.Health((*ginext.Context)(c)) })
	r.POST("/compress", func(c *gin.Context) { h.Compress((*ginext.Context)(c)) })
	s.handler = mwlogger.NewMWLogger(r)

	return s
}

func descriptorBody(ctype string) func(string) string {
	return func(url string) string {
		return fmt.Sprintf(`{"input":{"size":2048,"type":%q},"output":{"height":10,"width":10,"ratio":0.5,"size":1024,"type":%q,"url":%q}}`, ctype, ctype, url)
	}
}

func errorBody(code, msg string) func(string) string {
	return func(string) string {
		return fmt.Sprintf(`{"error":%q,"message":%q}`, code, msg)
	}
}

func (s *stack) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestRelay_Compress_OK(t *testing.T) {
	s := newStack(t, "secret", descriptorBody("image/png"), true)

	w := s.do(http.MethodPost, "/compress", []byte("png-bytes"))

	require.Equal(t, 200, w.Code)
	require.Equal(t, s.compressedOut, w.Body.Bytes())
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	cd := w.Header().Get("Content-Disposition")
	require.True(t, strings.HasPrefix(cd, "attachment; filename="))
	require.True(t, strings.HasSuffix(cd, ".png"))
	require.Equal(t, int32(1), atomic.LoadInt32(s.uploadHits))
	require.Equal(t, int32(1), atomic.LoadInt32(s.downloadHits))
}

func TestRelay_Compress_UpstreamError(t *testing.T) {
	s := newStack(t, "secret", errorBody("TooLargeImage", "Image too large"), true)

	w := s.do(http.MethodPost, "/compress", []byte("huge"))

	require.Equal(t, 500, w.Code)
	require.Contains(t, w.Body.String(), "Image too large")
	require.Zero(t, atomic.LoadInt32(s.downloadHits))
}

func TestRelay_Compress_NoAPIKey(t *testing.T) {
	s := newStack(t, "", descriptorBody("image/png"), true)

	w := s.do(http.MethodPost, "/compress", []byte("png-bytes"))

	require.Equal(t, 500, w.Code)
	require.Equal(t, "something went wrong: api key missed", w.Body.String())
	require.Zero(t, atomic.LoadInt32(s.uploadHits))
	require.Zero(t, atomic.LoadInt32(s.downloadHits))
}

func TestRelay_Compress_DownloadRefused(t *testing.T) {
	s := newStack(t, "secret", descriptorBody("image/png"), false)

	w := s.do(http.MethodPost, "/compress", []byte("png-bytes"))

	require.Equal(t, 500, w.Code)
	require.True(t, strings.HasPrefix(w.Body.String(), "something went wrong: download failed"))
	require.NotContains(t, w.Body.String(), string(s.compressedOut))
	require.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestRelay_Compress_MalformedMediaType(t *testing.T) {
	s := newStack(t, "secret", descriptorBody("image"), true)

	w := s.do(http.MethodPost, "/compress", []byte("png-bytes"))

	require.Equal(t, 500, w.Code)
	require.Contains(t, w.Body.String(), "malformed upstream media type")
}

func TestRelay_Compress_TwiceSameBody(t *testing.T) {
	s := newStack(t, "secret", descriptorBody("image/webp"), true)

	first := s.do(http.MethodPost, "/compress", []byte("same"))
	second := s.do(http.MethodPost, "/compress", []byte("same"))

	require.Equal(t, 200, first.Code)
	require.Equal(t, 200, second.Code)
	require.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	require.True(t, strings.HasSuffix(second.Header().Get("Content-Disposition"), ".webp"))
}

func TestRelay_Health_AlwaysOK(t *testing.T) {
	// no key, dead download endpoint
	s := newStack(t, "", errorBody("Unauthorized", "Credentials are invalid"), false)

	w := s.do(http.MethodGet, "/health", nil)

	require.Equal(t, 200, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestRelay_RequestID(t *testing.T) {
	s := newStack(t, "secret", descriptorBody("image/png"), true)

	t.Run("generated", func(t *testing.T) {
		w := s.do(http.MethodGet, "/health", nil)
		require.NotEmpty(t, w.Header().Get("X-Request-Id"))
	})

	t.Run("propagated", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", id)
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		require.Equal(t, id, w.Header().Get("X-Request-Id"))
	})

	t.Run("garbage replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", "not-a-uuid\x7f")
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		require.NotEmpty(t, w.Header().Get("X-Request-Id"))
		require.NotEqual(t, "not-a-uuid\x7f", w.Header().Get("X-Request-Id"))
	})
}
