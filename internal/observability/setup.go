package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	// Global logger instance, a no-op until Init swaps in the production one
	Logger = zap.NewNop()

	// Metrics
	admissionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_outcomes_total",
			Help: "Total number of entry evaluations by outcome",
		},
		[]string{"outcome"},
	)

	mediaRelayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_relayed_total",
			Help: "Total number of media submissions relayed to the moderation group",
		},
		[]string{"status"},
	)

	ticketsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_submitted_total",
			Help: "Total number of tickets persisted and forwarded",
		},
	)

	updateProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_processing_duration_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func Init(ctx context.Context, metricsAddr string) error {
	// Initialize logger
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	// Register metrics
	prometheus.MustRegister(admissionOutcomesTotal)
	prometheus.MustRegister(mediaRelayedTotal)
	prometheus.MustRegister(ticketsSubmittedTotal)
	prometheus.MustRegister(updateProcessingDuration)

	// Setup OpenTelemetry (simplified setup)
	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	// Start Prometheus metrics endpoint
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

// RecordAdmission records one entry evaluation outcome
func RecordAdmission(outcome string) {
	admissionOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordMediaRelay records a relayed (or failed) media submission
func RecordMediaRelay(status string) {
	mediaRelayedTotal.WithLabelValues(status).Inc()
}

// RecordTicketSubmitted records a persisted and forwarded ticket
func RecordTicketSubmitted() {
	ticketsSubmittedTotal.Inc()
}

// StartUpdateProcessing returns a function to record update processing duration
func StartUpdateProcessing() func(status string) {
	start := prometheus.NewTimer(updateProcessingDuration.WithLabelValues("processing"))
	return func(status string) {
		start.ObserveDuration()
	}
}
