package main

import (
	"context"
	"strings"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"github.com/rs/cors"
	"github.com/wb-go/wbf/config"
)

type RelayAPIService interface {
	Compress(ctx context.Context, body []byte) (*model.RelayResult, error)
}

func getOrDefault(cfg *config.Config, key, def string) string {
	if v := cfg.GetString(key); v != "" {
		return v
	}
	return def
}

// newCORS - Content-Disposition надо явно отдать браузеру, иначе имя файла не прочитать
func newCORS(cfg *config.Config) *cors.Cors {
	origins := strings.Split(getOrDefault(cfg, "CORS_ALLOWED_ORIGINS", "*"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Content-Length", model.HeaderRequestID},
		ExposedHeaders: []string{model.HeaderContentDisposition, model.HeaderRequestID},
		MaxAge:         60,
	})
}
