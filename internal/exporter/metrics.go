package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the exporter's instruments on a private registry, so
// multiple exporters in one process never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	pm25 prometheus.Gauge
	pm10 prometheus.Gauge

	lastReading prometheus.Gauge
	readings    prometheus.Counter
	errors      prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		pm25: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sds011_pm25",
			Help: "Latest PM2.5 concentration in µg/m³.",
		}),
		pm10: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sds011_pm10",
			Help: "Latest PM10 concentration in µg/m³.",
		}),
		lastReading: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sds011_last_reading_timestamp_seconds",
			Help: "Unix time of the latest measurement.",
		}),
		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sds011_readings_total",
			Help: "Measurements received from the sensor.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sds011_errors_total",
			Help: "Sensor communication errors.",
		}),
	}

	m.registry.MustRegister(
		m.pm25,
		m.pm10,
		m.lastReading,
		m.readings,
		m.errors,
	)

	return m
}

func (m *Metrics) observe(pm25, pm10 float64, unixSeconds float64) {
	m.pm25.Set(pm25)
	m.pm10.Set(pm10)
	m.lastReading.Set(unixSeconds)
	m.readings.Inc()
}
