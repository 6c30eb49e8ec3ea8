package metrics

import (
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты сохранения партии.
const (
	CommitOK      = "ok"
	CommitRefused = "refused" // не хватает материалов или неполный рецепт
	CommitStale   = "stale"   // склад изменился после расчёта
	CommitFailed  = "failed"  // ошибка хранилища
)

type Metrics struct {
	Evaluations prometheus.Counter
	Commits     *prometheus.CounterVec
	CandlesMade prometheus.Counter
	Adjustments *prometheus.CounterVec
	Updates     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounter(prometheus.CounterOpts{
			Name: "candle_recipe_evaluations_total",
			Help: "Recipe breakdowns computed.",
		}),
		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "candle_batch_commits_total",
			Help: "Batch save attempts by result.",
		}, []string{"result"}),
		CandlesMade: f.NewCounter(prometheus.CounterOpts{
			Name: "candle_candles_made_total",
			Help: "Candle records created.",
		}),
		Adjustments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "candle_material_adjustments_total",
			Help: "Stock decrements applied, by outcome.",
		}, []string{"outcome"}),
		Updates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "candle_bot_updates_total",
			Help: "Telegram updates handled, by kind.",
		}, []string{"kind"}),
	}
}

// ObservePlan учитывает применённый план.
func (m *Metrics) ObservePlan(p inventory.Plan) {
	m.CandlesMade.Add(float64(len(p.Candles)))
	for _, a := range p.Adjustments {
		outcome := "update"
		if a.Delete {
			outcome = "delete"
		}
		m.Adjustments.WithLabelValues(outcome).Inc()
	}
}
