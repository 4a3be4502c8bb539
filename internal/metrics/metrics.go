// Package metrics provides prometheus collectors for relay outcomes
package metrics

import (
	"errors"
	"net/http"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeOK         = "ok"
	OutcomeNoAPIKey   = "no_api_key"
	OutcomeTransport  = "transport"
	OutcomeUpstream   = "upstream_error"
	OutcomeMalformed  = "malformed_response"
	OutcomeDownload   = "download_failed"
	OutcomeMediaType  = "media_type"
	OutcomeHeader     = "invalid_header"
	OutcomeUnexpected = "unexpected"
)

type RelayMetrics struct {
	registry    *prometheus.Registry
	relays      *prometheus.CounterVec
	inBytes     prometheus.Counter
	outBytes    prometheus.Counter
	upstreamErr *prometheus.CounterVec
}

// New creates collectors on a private registry so several instances can live in one process (tests)
func New() *RelayMetrics {
	m := &RelayMetrics{
		registry: prometheus.NewRegistry(),
		relays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinyrelay",
			Name:      "relays_total",
			Help:      "Compress requests by outcome.",
		}, []string{"outcome"}),
		inBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinyrelay",
			Name:      "input_bytes_total",
			Help:      "Original image bytes reported by upstream for successful relays.",
		}),
		outBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinyrelay",
			Name:      "output_bytes_total",
			Help:      "Compressed bytes delivered to callers.",
		}),
		upstreamErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinyrelay",
			Name:      "upstream_errors_total",
			Help:      "Application errors returned by upstream, by upstream error code.",
		}, []string{"code"}),
	}

	m.registry.MustRegister(m.relays, m.inBytes, m.outBytes, m.upstreamErr)
	return m
}

// Observe records the result of one relay. err == nil means success.
func (m *RelayMetrics) Observe(res *model.RelayResult, desc *model.Descriptor, err error) {
	if err != nil {
		m.relays.WithLabelValues(Outcome(err)).Inc()

		var upErr *model.UploadError
		if errors.As(err, &upErr) {
			m.upstreamErr.WithLabelValues(upErr.Code).Inc()
		}
		return
	}

	m.relays.WithLabelValues(OutcomeOK).Inc()
	if desc != nil {
		m.inBytes.Add(float64(desc.Input.Size))
	}
	if res != nil {
		m.outBytes.Add(float64(len(res.Body)))
	}
}

// Handler - exposition endpoint for this registry
func (m *RelayMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps an error to its label
func Outcome(err error) string {
	var upErr *model.UploadError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &upErr):
		return OutcomeUpstream
	case errors.Is(err, model.ErrMissingAPIKey):
		return OutcomeNoAPIKey
	case errors.Is(err, model.ErrTransport):
		return OutcomeTransport
	case errors.Is(err, model.ErrMalformedResponse):
		return OutcomeMalformed
	case errors.Is(err, model.ErrDownloadFailed):
		return OutcomeDownload
	case errors.Is(err, model.ErrMediaType):
		return OutcomeMediaType
	case errors.Is(err, model.ErrInvalidHeader):
		return OutcomeHeader
	default:
		return OutcomeUnexpected
	}
}
