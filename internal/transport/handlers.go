// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type RelayHandler struct {
	service RelayService
	metrics http.Handler
}

type RelayService interface {
	Compress(ctx context.Context, body []byte) (*model.RelayResult, error) // залить в upstream и скачать результат
}

func NewRelayHandler(svc RelayService, metrics http.Handler) *RelayHandler {
	return &RelayHandler{
		service: svc,
		metrics: metrics,
	}
}

// Health - no dependencies, always 200
func (h RelayHandler) Health(ctx *ginext.Context) {
	ctx.String(http.StatusOK, "OK")
}

func (h RelayHandler) Compress(ctx *ginext.Context) {
	body, err := ctx.GetRawData()
	if err != nil {
		writeRelayError(ctx, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	res, err := h.service.Compress(ctx.Request.Context(), body)
	if err != nil {
		writeRelayError(ctx, err)
		return
	}

	ctx.Header(model.HeaderContentDisposition, res.ContentDisposition)
	ctx.Data(http.StatusOK, res.ContentType, res.Body)
}

func (h RelayHandler) Metrics(ctx *ginext.Context) {
	if h.metrics == nil {
		ctx.Status(http.StatusNotFound)
		return
	}
	h.metrics.ServeHTTP(ctx.Writer, ctx.Request)
}
