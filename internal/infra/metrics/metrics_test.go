package metrics

import (
	"testing"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePlan(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.ObservePlan(inventory.Plan{
		Adjustments: []inventory.Adjustment{{Delete: true}, {}, {}},
		Candles:     make([]candles.Candle, 3),
	})

	assert.InDelta(t, 3, testutil.ToFloat64(m.CandlesMade), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Adjustments.WithLabelValues("delete")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Adjustments.WithLabelValues("update")), 1e-9)
}
