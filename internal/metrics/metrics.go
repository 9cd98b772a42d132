package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SessionsTotal      *prometheus.CounterVec
	SessionDuration    *prometheus.HistogramVec
	SessionsInFlight   prometheus.Gauge
	AttemptsPerSession *prometheus.HistogramVec
	StateTransitions   *prometheus.CounterVec

	OverallScore        prometheus.Histogram
	DimensionFailures   *prometheus.CounterVec
	CriticDisagreements prometheus.Counter

	CollaboratorCallsTotal   *prometheus.CounterVec
	CollaboratorCallDuration *prometheus.HistogramVec

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	VerdictCacheHitsTotal   prometheus.Counter
	VerdictCacheMissesTotal prometheus.Counter

	RateLimitHitsTotal *prometheus.CounterVec

	BotRequestsTotal   *prometheus.CounterVec
	BotRequestDuration *prometheus.HistogramVec
}

// New регистрирует метрики в глобальном реестре.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry - для тестов, чтобы не ловить duplicate registration
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SessionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_gate_sessions_total",
				Help: "Total number of revision sessions by terminal status",
			},
			[]string{"policy", "status"},
		),
		SessionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lesson_gate_session_duration_seconds",
				Help:    "Revision session duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 900},
			},
			[]string{"status"},
		),
		SessionsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "lesson_gate_sessions_in_flight",
				Help: "Number of revision sessions currently running",
			},
		),
		AttemptsPerSession: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lesson_gate_attempts_per_session",
				Help:    "Attempts used per session",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
			[]string{"status"},
		),

		StateTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_gate_state_transitions_total",
				Help: "Revision session state transitions",
			},
			[]string{"from", "to"},
		),

		OverallScore: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lesson_gate_overall_score",
				Help:    "Recomputed overall score per evaluated attempt",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
			},
		),
		DimensionFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_gate_dimension_failures_total",
				Help: "Attempts where a dimension scored below its threshold",
			},
			[]string{"dimension"},
		),
		CriticDisagreements: f.NewCounter(
			prometheus.CounterOpts{
				Name: "lesson_gate_critic_disagreements_total",
				Help: "Verdicts where the critic's reported status differed from the recomputed one",
			},
		),

		CollaboratorCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_gate_collaborator_calls_total",
				Help: "Author and critic calls by outcome",
			},
			[]string{"role", "status"},
		),
		CollaboratorCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lesson_gate_collaborator_call_duration_seconds",
				Help:    "Author and critic call duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"role"},
		),

		LLMRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_gate_llm_requests_total",
				Help: "Total number of LLM API requests",
			},
			[]string{"provider", "status"},
		),
		LLMRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lesson_gate_llm_request_duration_seconds",
				Help:    "LLM request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		VerdictCacheHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "lesson_gate_verdict_cache_hits_total",
				Help: "Total number of verdict cache hits",
			},
		),
		VerdictCacheMissesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "lesson_gate_verdict_cache_misses_total",
				Help: "Total number of verdict cache misses",
			},
		),

		RateLimitHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_gate_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"user_id"},
		),

		BotRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_gate_bot_requests_total",
				Help: "Telegram updates handled by type and status",
			},
			[]string{"type", "status"},
		),
		BotRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lesson_gate_bot_request_duration_seconds",
				Help:    "Telegram update handling duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900},
			},
			[]string{"type"},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordSession(policy, status string, attempts int, duration time.Duration) {
	m.SessionsTotal.WithLabelValues(policy, status).Inc()
	m.SessionDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.AttemptsPerSession.WithLabelValues(status).Observe(float64(attempts))
}

func (m *Metrics) RecordTransition(from, to string) {
	m.StateTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordVerdict(overall float64, failed []string, disagrees bool) {
	m.OverallScore.Observe(overall)
	for _, d := range failed {
		m.DimensionFailures.WithLabelValues(d).Inc()
	}
	if disagrees {
		m.CriticDisagreements.Inc()
	}
}

// role: author | critic
func (m *Metrics) RecordCall(role, status string, duration time.Duration) {
	m.CollaboratorCallsTotal.WithLabelValues(role, status).Inc()
	m.CollaboratorCallDuration.WithLabelValues(role).Observe(duration.Seconds())
}

func (m *Metrics) RecordLLMRequest(provider, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit() {
	m.VerdictCacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.VerdictCacheMissesTotal.Inc()
}

func (m *Metrics) RecordRateLimitHit(userID string) {
	m.RateLimitHitsTotal.WithLabelValues(userID).Inc()
}

// reqType: command | lesson
func (m *Metrics) RecordRequest(reqType, status string, duration time.Duration) {
	m.BotRequestsTotal.WithLabelValues(reqType, status).Inc()
	m.BotRequestDuration.WithLabelValues(reqType).Observe(duration.Seconds())
}

func (m *Metrics) IncSessionsInFlight() {
	m.SessionsInFlight.Inc()
}

func (m *Metrics) DecSessionsInFlight() {
	m.SessionsInFlight.Dec()
}
