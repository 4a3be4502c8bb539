// Package service provides business-logic for the app
package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"github.com/UnendingLoop/TinyRelay/internal/mwlogger"
	"github.com/gabriel-vasile/mimetype"
)

type RelayService struct {
	uploader Uploader
	client   *http.Client
	recorder Recorder
	now      func() time.Time
}

func NewRelayService(up Uploader, httpClient *http.Client, rec Recorder) *RelayService {
	return &RelayService{
		uploader: up,
		client:   httpClient,
		recorder: rec,
		now:      time.Now,
	}
}

// Uploader - контракт для клиента сжимающего API
type Uploader interface {
	Upload(ctx context.Context, body []byte) (*model.Descriptor, error)
}

// Recorder - контракт для метрик
type Recorder interface {
	Observe(res *model.RelayResult, desc *model.Descriptor, err error)
}

// Compress uploads body, downloads the compressed artifact and builds its headers.
// Body is passed through as is: whether it is an image is decided upstream.
func (s RelayService) Compress(ctx context.Context, body []byte) (*model.RelayResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	logger.Info().
		Int("bytes", len(body)).
		Str("detected_type", mimetype.Detect(body).String()).
		Msg("Relaying image to upstream")

	res, desc, err := s.relay(ctx, body)
	if s.recorder != nil {
		s.recorder.Observe(res, desc, err)
	}
	return res, err
}

func (s RelayService) relay(ctx context.Context, body []byte) (*model.RelayResult, *model.Descriptor, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	// заливаем в upstream
	desc, err := s.uploader.Upload(ctx, body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to upload image to upstream")
		return nil, nil, err
	}

	// скачиваем результат по одноразовой ссылке
	data, err := s.download(ctx, desc.Output.URL)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to download compressed image")
		return nil, desc, err
	}

	// собираем заголовки
	result, err := buildResult(data, desc.Output.Type, s.now())
	if err != nil {
		logger.Error().Err(err).Str("upstream_type", desc.Output.Type).Msg("Failed to build response headers")
		return nil, desc, err
	}

	logger.Info().
		Int64("input_size", desc.Input.Size).
		Int64("output_size", desc.Output.Size).
		Float64("ratio", desc.Output.Ratio).
		Str("content_type", result.ContentType).
		Msg("Image compressed")
	return result, desc, nil
}

// download - plain unauthenticated GET, any non-2xx is a failure
func (s RelayService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDownloadFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDownloadFailed, err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: unexpected status %d", model.ErrDownloadFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDownloadFailed, err)
	}
	return data, nil
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		log.Println("Relay failed to close download body:", err)
	}
}
