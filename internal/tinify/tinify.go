// Package tinify provides the client for the Tinify shrink endpoint
package tinify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"github.com/UnendingLoop/TinyRelay/internal/mwlogger"
	"github.com/wb-go/wbf/config"
)

const (
	DefaultEndpoint = "https://api.tinify.com/shrink"
	basicAuthUser   = "api"
	userAgentPrefix = "tinyrelay/1.0"
)

type Client struct {
	endpoint  string
	apiKey    func() string
	http      *http.Client
	userAgent string
}

// NewClient - ключ читается на каждом Upload, а не при создании клиента
func NewClient(cfg *config.Config, httpClient *http.Client) *Client {
	endpoint := cfg.GetString("TINY_API_URL")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return New(endpoint, func() string { return cfg.GetString("TINY_API_KEY") }, httpClient)
}

func New(endpoint string, apiKey func() string, httpClient *http.Client) *Client {
	return &Client{
		endpoint:  endpoint,
		apiKey:    apiKey,
		http:      httpClient,
		userAgent: buildUserAgent(),
	}
}

// NewHTTPClient - общий клиент для обоих исходящих запросов; timeout 0 оставляет дефолт транспорта
func NewHTTPClient(cfg *config.Config) *http.Client {
	var timeout time.Duration
	if raw := cfg.GetString("UPSTREAM_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Printf("Failed to parse UPSTREAM_TIMEOUT %q: %v. Using no timeout...", raw, err)
		} else {
			timeout = parsed
		}
	}
	return &http.Client{Timeout: timeout}
}

// shrinkResponse - union of both answer shapes; which one arrived is decided by the keys present
type shrinkResponse struct {
	Input   *model.InputFacet  `json:"input"`
	Output  *model.OutputFacet `json:"output"`
	Code    *string            `json:"error"`
	Message *string            `json:"message"`
}

// Upload sends raw bytes to the shrink endpoint. No retries.
func (c *Client) Upload(ctx context.Context, body []byte) (*model.Descriptor, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	key := c.apiKey()
	if key == "" {
		return nil, model.ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	req.SetBasicAuth(basicAuthUser, key)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	defer closeBody(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", model.ErrTransport, err)
	}
	logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(raw)).Msg("Shrink endpoint answered")

	return parseShrinkResponse(resp.StatusCode, raw)
}

func parseShrinkResponse(status int, raw []byte) (*model.Descriptor, error) {
	var res shrinkResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w (status %d): %v", model.ErrMalformedResponse, status, err)
	}

	switch {
	case res.Input != nil && res.Output != nil && res.Output.URL != "" && res.Output.Type != "":
		return &model.Descriptor{Input: *res.Input, Output: *res.Output}, nil
	case res.Code != nil && res.Message != nil:
		return nil, &model.UploadError{Code: *res.Code, Message: *res.Message}
	default:
		return nil, fmt.Errorf("%w (status %d): neither descriptor nor error shape", model.ErrMalformedResponse, status)
	}
}

func buildUserAgent() string {
	return userAgentPrefix + " (" + runtime.Version() + "; " + runtime.GOOS + "/" + runtime.GOARCH + ")"
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		log.Println("Tinify client failed to close response body:", err)
	}
}
