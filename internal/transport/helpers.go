package transport

import (
	"net/http"

	"github.com/UnendingLoop/TinyRelay/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

// writeRelayError - every failure kind ends up here as a plain-text 500
func writeRelayError(ctx *ginext.Context, err error) {
	logger := mwlogger.LoggerFromContext(ctx.Request.Context())
	logger.Error().Err(err).Msg("Compress request failed")

	ctx.String(http.StatusInternalServerError, "something went wrong: %s", err.Error())
}
