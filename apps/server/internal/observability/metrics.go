package observability

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	started  time.Time

	RollsTotal       *prometheus.CounterVec
	BetsPlaced       *prometheus.CounterVec
	BetRejections    *prometheus.CounterVec
	WinningsTotal    prometheus.Counter
	CommissionTotal  prometheus.Counter
	ActiveSessions   prometheus.Gauge
	SessionEvictions prometheus.Counter
	RollDuration     prometheus.Histogram
}

// NewMetrics registers the server metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		started:  time.Now(),

		RollsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "craps_rolls_total",
			Help: "Settled rolls by outcome for the line (pointSet, pointMade, sevenOut, natural, craps, other)",
		}, []string{"outcome"}),

		BetsPlaced: f.NewCounterVec(prometheus.CounterOpts{
			Name: "craps_bets_placed_total",
			Help: "Accepted wager placements by bet family",
		}, []string{"family"}),

		BetRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "craps_bet_rejections_total",
			Help: "Rejected table operations by error kind",
		}, []string{"reason"}),

		WinningsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "craps_winnings_total",
			Help: "Chips credited back to players by settlement",
		}),

		CommissionTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "craps_commission_total",
			Help: "Vig collected on buy and lay wagers",
		}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "craps_active_sessions",
			Help: "Open table sessions",
		}),

		SessionEvictions: f.NewCounter(prometheus.CounterOpts{
			Name: "craps_session_evictions_total",
			Help: "Sessions closed to stay under the session cap",
		}),

		RollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "craps_roll_duration_seconds",
			Help:    "Time from dice thrown to settlement, including animation",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 1.5, 2, 5},
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HealthHandler serves /health.
func (m *Metrics) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"uptime": time.Since(m.started).Round(time.Second).String(),
	})
}
