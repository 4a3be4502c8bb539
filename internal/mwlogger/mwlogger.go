// Package mwlogger provides UUID-logging to every request
package mwlogger

import (
	"context"
	"net/http"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/helpers"
	"github.com/wb-go/wbf/zlog"
)

type loggerWithRequestID struct{}

// NewMWLogger - обёртка для логирования запросов с присвоением UUID каждому запросу и пробросу логгера в контекст запроса
func NewMWLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fetching/generating UUID for request
		reqID := r.Header.Get(model.HeaderRequestID)
		if uuid.Validate(reqID) != nil {
			reqID = helpers.CreateUUID()
		}
		w.Header().Set(model.HeaderRequestID, reqID)

		// Creating logger
		logger := zlog.Logger.With().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		// Putting logger to context
		r = r.WithContext(WithLogger(r.Context(), logger))

		// Running handler
		next.ServeHTTP(w, r)
	})
}

// WithLogger puts logger into ctx
func WithLogger(ctx context.Context, logger zlog.Zerolog) context.Context {
	return context.WithValue(ctx, loggerWithRequestID{}, logger)
}

// LoggerFromContext extracts logger from context - used in service-layer
func LoggerFromContext(ctx context.Context) zlog.Zerolog {
	if l, ok := ctx.Value(loggerWithRequestID{}).(zlog.Zerolog); ok {
		return l
	}
	return zlog.Logger
}
