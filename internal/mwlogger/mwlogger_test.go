package mwlogger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func TestNewMWLogger_PutsLoggerToContext(t *testing.T) {
	var fromCtx bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, fromCtx = r.Context().Value(loggerWithRequestID{}).(zlog.Zerolog)
	})

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/compress", nil)
	req.Header.Set("X-Request-Id", id)
	w := httptest.NewRecorder()

	NewMWLogger(next).ServeHTTP(w, req)

	require.True(t, fromCtx)
	require.Equal(t, id, w.Header().Get("X-Request-Id"))
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	require.NotPanics(t, func() {
		l := LoggerFromContext(context.Background())
		l.Info().Msg("fallback logger works")
	})
}
