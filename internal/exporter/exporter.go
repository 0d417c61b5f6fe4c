// Package exporter serves the latest sensor measurement over HTTP, as
// both a small JSON endpoint and Prometheus metrics.
package exporter

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/finehaze/sds011/internal/sensor"
)

// Source is the slice of a sensor session the exporter consumes.
type Source interface {
	Watch(ctx context.Context) <-chan sensor.Measurement
	Err() error
}

// Exporter caches the most recent measurement and exposes it over HTTP.
// A reading older than the staleness window is reported as absent
// rather than as a frozen value.
type Exporter struct {
	source     Source
	log        *zap.Logger
	staleAfter time.Duration
	metrics    *Metrics

	mu   sync.RWMutex
	last *sensor.Measurement
}

// New returns an exporter reading from source. staleAfter bounds how
// long a measurement stays servable; zero disables staleness checks.
func New(source Source, staleAfter time.Duration, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		source:     source,
		log:        log,
		staleAfter: staleAfter,
		metrics:    newMetrics(),
	}
}

// Run consumes measurements until ctx is cancelled or the source fails.
// On source failure the cached reading is cleared before returning, so
// the HTTP surface stops serving a value from a dead sensor.
func (e *Exporter) Run(ctx context.Context) error {
	ch := e.source.Watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				if err := e.source.Err(); err != nil {
					e.metrics.errors.Inc()
					e.clear()
					e.log.Error("sensor stream failed", zap.Error(err))
					return err
				}
				return nil
			}
			e.store(m)
		}
	}
}

// Handler returns the exporter's HTTP routes: /json for the latest
// reading, /metrics for Prometheus, /healthz for liveness.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/json", e.handleJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(e.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (e *Exporter) store(m sensor.Measurement) {
	e.mu.Lock()
	e.last = &m
	e.mu.Unlock()

	e.metrics.observe(m.PM25, m.PM10, float64(m.At.UnixNano())/float64(time.Second))
	e.log.Debug("measurement",
		zap.Float64("pm25", m.PM25),
		zap.Float64("pm10", m.PM10),
		zap.Uint16("device_id", m.DeviceID),
	)
}

func (e *Exporter) clear() {
	e.mu.Lock()
	e.last = nil
	e.mu.Unlock()
}

// current returns the cached measurement, or nil when there is none or
// it has gone stale.
func (e *Exporter) current() *sensor.Measurement {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.last == nil {
		return nil
	}
	if e.staleAfter > 0 && time.Since(e.last.At) > e.staleAfter {
		return nil
	}
	return e.last
}

type jsonReading struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
}

// handleJSON serves the latest reading, or a JSON null when no fresh
// reading is available.
func (e *Exporter) handleJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	m := e.current()
	if m == nil {
		_, _ = w.Write([]byte("null\n"))
		return
	}

	_ = json.NewEncoder(w).Encode(jsonReading{
		PM25: m.PM25,
		PM10: m.PM10,
	})
}
