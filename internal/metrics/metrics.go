// Package metrics exposes Prometheus collectors for the alarm daemon.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "radio_alarm_"

	resultSuccess = "success"
	resultError   = "error"
)

//nolint:gochecknoglobals // Collectors are process-wide, like the default registry.
var (
	registerOnce sync.Once

	registrationsTotal  *prometheus.CounterVec
	cancellationsTotal  prometheus.Counter
	firesTotal          *prometheus.CounterVec
	persistenceFailures prometheus.Counter
	alarms              *prometheus.GaugeVec
	nextAlarmClock      prometheus.Gauge
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		registrationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "registrations_total",
				Help: "Timer registrations by result",
			},
			[]string{"result"},
		)
		cancellationsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "cancellations_total",
				Help: "Timer cancellations",
			},
		)
		firesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fires_total",
				Help: "Fired alarms by kind",
			},
			[]string{"kind"},
		)
		persistenceFailures = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "persistence_failures_total",
				Help: "Failed writes of the alarm collection",
			},
		)
		alarms = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "alarms",
				Help: "Alarms in the collection by state",
			},
			[]string{"state"},
		)

		nextAlarmClock = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "next_alarm_clock_timestamp_seconds",
				Help: "Unix time of the next user-visible wake-up, 0 when none",
			},
		)

		prometheus.MustRegister(registrationsTotal, cancellationsTotal, firesTotal, persistenceFailures, alarms, nextAlarmClock)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRegistration counts a registration attempt.
func ObserveRegistration(err error) {
	if registrationsTotal == nil {
		return
	}

	result := resultSuccess
	if err != nil {
		result = resultError
	}

	registrationsTotal.WithLabelValues(result).Inc()
}

// ObserveCancellation counts a cancellation.
func ObserveCancellation() {
	if cancellationsTotal == nil {
		return
	}

	cancellationsTotal.Inc()
}

// ObserveFire counts a fired alarm.
func ObserveFire(repeating bool) {
	if firesTotal == nil {
		return
	}

	kind := "one_shot"
	if repeating {
		kind = "repeating"
	}

	firesTotal.WithLabelValues(kind).Inc()
}

// ObservePersistenceFailure counts a failed save.
func ObservePersistenceFailure() {
	if persistenceFailures == nil {
		return
	}

	persistenceFailures.Inc()
}

// SetAlarmCounts publishes the size of the collection.
func SetAlarmCounts(enabled, disabled int) {
	if alarms == nil {
		return
	}

	alarms.WithLabelValues("enabled").Set(float64(enabled))
	alarms.WithLabelValues("disabled").Set(float64(disabled))
}

// SetNextAlarmClock publishes the next user-visible wake-up. The zero time clears it.
func SetNextAlarmClock(at time.Time) {
	if nextAlarmClock == nil {
		return
	}

	if at.IsZero() {
		nextAlarmClock.Set(0)

		return
	}

	nextAlarmClock.Set(float64(at.Unix()))
}
