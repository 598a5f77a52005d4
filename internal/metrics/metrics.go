// Package metrics exposes the ladder activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is what the back end reports to.
type Metrics interface {
	IncCreated(entity string)
	IncDeleted(entity string)
	ObserveRatingUpdate(d time.Duration)
	IncRejected(reason string)
}

var _ Metrics = (*Service)(nil)

type Service struct {
	Created        *prometheus.CounterVec
	Deleted        *prometheus.CounterVec
	Rejected       *prometheus.CounterVec
	RatingUpdates  prometheus.Histogram
	StartupSeconds prometheus.Gauge
}

// NewHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foosball_created_total",
			Help: "The total number of entities created, by entity.",
		}, []string{"entity"}),
		Deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foosball_deleted_total",
			Help: "The total number of entities deleted, by entity.",
		}, []string{"entity"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foosball_rejected_total",
			Help: "The total number of operations rejected by validation, by reason.",
		}, []string{"reason"}),
		RatingUpdates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foosball_rating_update_duration_seconds",
			Help:    "The duration of a result recording, ratings included.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		StartupSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "foosball_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Created,
		s.Deleted,
		s.Rejected,
		s.RatingUpdates,
		s.StartupSeconds,
	)

	return s
}

func (s *Service) IncCreated(entity string) {
	s.Created.WithLabelValues(entity).Inc()
}

func (s *Service) IncDeleted(entity string) {
	s.Deleted.WithLabelValues(entity).Inc()
}

func (s *Service) IncRejected(reason string) {
	s.Rejected.WithLabelValues(reason).Inc()
}

func (s *Service) ObserveRatingUpdate(d time.Duration) {
	s.RatingUpdates.Observe(d.Seconds())
}

func (s *Service) SetStartupTime(d time.Duration) {
	s.StartupSeconds.Set(d.Seconds())
}

// Nop discards everything, for tools that do not serve /metrics.
type Nop struct{}

func (Nop) IncCreated(string)                 {}
func (Nop) IncDeleted(string)                 {}
func (Nop) IncRejected(string)                {}
func (Nop) ObserveRatingUpdate(time.Duration) {}
