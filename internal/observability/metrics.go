package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	pitchEvaluations     *prometheus.CounterVec
	pitchBonusesApplied  *prometheus.CounterVec
	pitchFinalScores     prometheus.Histogram
	pitchStatusReverts   *prometheus.CounterVec
	pitchEventsPublished *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the pitch API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitch_api_requests_total",
			Help: "Total number of pitch API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pitch_api_latency_seconds",
			Help:    "Latency distribution for pitch API requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitch_api_errors_total",
			Help: "Total number of error responses returned by the pitch API.",
		}, []string{"method", "route", "status"})

		pitchEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitch_evaluations_total",
			Help: "Pitch evaluation invocations by terminal outcome.",
		}, []string{"outcome"})

		pitchBonusesApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitch_bonuses_applied_total",
			Help: "Bonus rules applied on top of model scores.",
		}, []string{"reason"})

		pitchFinalScores = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pitch_final_score",
			Help:    "Distribution of final pitch scores after bonuses.",
			Buckets: []float64{40, 50, 60, 70, 80, 90, 100},
		})

		pitchStatusReverts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitch_status_reverts_total",
			Help: "Compensating status writes after a failed evaluation.",
		}, []string{"result"})

		pitchEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitch_score_events_total",
			Help: "Score events published to downstream consumers.",
		}, []string{"transport", "result"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			pitchEvaluations, pitchBonusesApplied, pitchFinalScores,
			pitchStatusReverts, pitchEventsPublished,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// PitchEvaluations counts evaluations by outcome (scored, rejected_bad_input, failed_llm_call, ...).
func PitchEvaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return pitchEvaluations
}

// PitchBonusesApplied counts applied bonus rules by reason.
func PitchBonusesApplied() *prometheus.CounterVec {
	RegisterMetrics()
	return pitchBonusesApplied
}

// PitchFinalScores observes persisted final scores.
func PitchFinalScores() prometheus.Histogram {
	RegisterMetrics()
	return pitchFinalScores
}

// PitchStatusReverts counts compensating status writes.
func PitchStatusReverts() *prometheus.CounterVec {
	RegisterMetrics()
	return pitchStatusReverts
}

// PitchEventsPublished counts score event deliveries.
func PitchEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return pitchEventsPublished
}
