package settlement

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/dice-settlement/internal/dice"
)

// Metrics agrupa os coletores da liquidação; um *Metrics nil não registra nada.
type Metrics struct {
	resolved     *prometheus.CounterVec
	failed       *prometheus.CounterVec
	paidOut      prometheus.Counter
	duration     *prometheus.HistogramVec
	notifyErrors prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_bets_resolved_total", Help: "apostas resolvidas por operação e status",
		}, []string{"op", "status"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_resolution_errors_total", Help: "falhas de resolução por operação, tipo e código",
		}, []string{"op", "kind", "code"}),
		paidOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dice_payout_lamports_total", Help: "lamports pagos pelos cofres",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "dice_resolution_duration_seconds", Help: "duração da unidade de liquidação",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		notifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dice_notify_errors_total", Help: "falhas ao propagar recibos",
		}),
	}
	reg.MustRegister(m.resolved, m.failed, m.paidOut, m.duration, m.notifyErrors)
	return m
}

func (m *Metrics) observe(op string, start time.Time, rec *Receipt, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		kind, code := string(dice.KindOf(err)), dice.CodeOf(err)
		if kind == "" {
			kind, code = "internal", "internal"
		}
		m.failed.WithLabelValues(op, kind, code).Inc()
		return
	}
	m.resolved.WithLabelValues(op, string(rec.Status)).Inc()
	m.paidOut.Add(float64(rec.Payout))
}

func (m *Metrics) notifyFailed() {
	if m != nil {
		m.notifyErrors.Inc()
	}
}
