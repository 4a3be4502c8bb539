// Package main (in api-subfolder) provides launch of the relay
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/TinyRelay/internal/metrics"
	"github.com/UnendingLoop/TinyRelay/internal/mwlogger"
	"github.com/UnendingLoop/TinyRelay/internal/service"
	"github.com/UnendingLoop/TinyRelay/internal/tinify"
	"github.com/UnendingLoop/TinyRelay/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("Failed to load .env: %s\nUsing process environment only...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(getOrDefault(appConfig, "LOG_LEVEL", "info")); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// один http-клиент на оба исходящих запроса
	httpClient := tinify.NewHTTPClient(appConfig)
	upstream := tinify.NewClient(appConfig, httpClient)
	relayMetrics := metrics.New()

	// создаем экземпляр сервиса
	var svc RelayAPIService = service.NewRelayService(upstream, httpClient, relayMetrics)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewRelayHandler(svc, relayMetrics.Handler())
	// сетапим сервер
	engine := ginext.New(getOrDefault(appConfig, "GIN_MODE", "release"))

	engine.GET("/health", handlers.Health)      // liveness
	engine.POST("/compress", handlers.Compress) // сжатие через upstream
	engine.GET("/metrics", handlers.Metrics)    // prometheus

	srv := &http.Server{
		Handler:           newCORS(appConfig).Handler(mwlogger.NewMWLogger(engine)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", "0.0.0.0:"+getOrDefault(appConfig, "APP_PORT", "8080"))
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to bind listener")
	}

	// Server launch
	go func() {
		zlog.Logger.Info().Msgf("start listening on %s", ln.Addr())
		err := srv.Serve(ln)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				zlog.Logger.Info().Msg("Server gracefully stopping...")
			default:
				zlog.Logger.Error().Err(err).Msg("Server stopped")
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул остановки
	<-ctx.Done()

	shutdown(srv, httpClient)
	zlog.Logger.Info().Msg("Exiting relay...")
}

func shutdown(srv *http.Server, client *http.Client) {
	zlog.Logger.Info().Msg("Interrupt received!!! Starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("Timeout exceeded, forcing shutdown")
	}

	client.CloseIdleConnections()
	zlog.Logger.Info().Msg("Outbound connections closed")
}
