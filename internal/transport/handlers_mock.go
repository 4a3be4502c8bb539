package transport

import (
	"context"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"github.com/gin-gonic/gin"
)

type mockRelayService struct {
	compressFn func(ctx context.Context, body []byte) (*model.RelayResult, error)
}

func (m *mockRelayService) Compress(ctx context.Context, body []byte) (*model.RelayResult, error) {
	return m.compressFn(ctx, body)
}

func init() {
	gin.SetMode(gin.TestMode)
}
