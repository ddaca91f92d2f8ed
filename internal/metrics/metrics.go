package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	daemonStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daemonctl",
			Subsystem: "daemon",
			Name:      "starts_total",
			Help:      "Number of successful daemon starts.",
		}, []string{"name"},
	)
	daemonStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daemonctl",
			Subsystem: "daemon",
			Name:      "stops_total",
			Help:      "Number of confirmed daemon stops.",
		}, []string{"name"},
	)
	daemonCrashes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daemonctl",
			Subsystem: "daemon",
			Name:      "crashes_detected_total",
			Help:      "Number of times crash evidence was found in the daemon log.",
		}, []string{"name"},
	)
	stopSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daemonctl",
			Subsystem: "daemon",
			Name:      "stop_signals_total",
			Help:      "Signals delivered during stop escalation, by signal name.",
		}, []string{"name", "signal"},
	)
	escalationExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daemonctl",
			Subsystem: "daemon",
			Name:      "escalation_exhausted_total",
			Help:      "Stops that ran out of kill attempts with the daemon still alive.",
		}, []string{"name"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{daemonStarts, daemonStops, daemonCrashes, stopSignals, escalationExhausted}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving the DefaultGatherer. The
// daemon process owns the listener for its lifetime.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op if Register hasn't been called.

func IncStart(name string) {
	if regOK.Load() {
		daemonStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		daemonStops.WithLabelValues(name).Inc()
	}
}

func IncCrashDetected(name string) {
	if regOK.Load() {
		daemonCrashes.WithLabelValues(name).Inc()
	}
}

func IncStopSignal(name, signal string) {
	if regOK.Load() {
		stopSignals.WithLabelValues(name, signal).Inc()
	}
}

func IncEscalationExhausted(name string) {
	if regOK.Load() {
		escalationExhausted.WithLabelValues(name).Inc()
	}
}
