package materials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, UnitPrice(nil))
	assert.Equal(t, 0.0, UnitPrice(&Material{Quantity: 0, Price: 25}))
	assert.Equal(t, 0.0, UnitPrice(&Material{Quantity: -1, Price: 25}))
	assert.InDelta(t, 0.04, UnitPrice(&Material{Quantity: 1000, Price: 40}), 1e-12)
	assert.InDelta(t, 2.0, UnitPrice(&Material{Quantity: 1, Price: 2}), 1e-12)
}

func TestExtractCapacity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want float64
	}{
		{"Słoik 200ml", 200},
		{"Jar 180.5 ml", 180.5},
		{"Puszka 100ml x 2", 100},
		{"Ёмкость без объёма", 0},
		{"", 0},
		{"Jar 200.ml", 0},
		{"v1.2.3", 0},
		{"kubek .", 0},
		{"tin .5l", 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractCapacity(tc.name))
		})
	}
}

func TestMergeAdd(t *testing.T) {
	t.Parallel()

	existing := Material{ID: 7, Name: "Soja", Category: CategoryWax, Quantity: 500, Unit: UnitG, Price: 20}
	incoming := Material{Name: "Soja", Category: CategoryOther, Quantity: 1000, Unit: UnitMl, Price: 45}

	got := MergeAdd(existing, incoming)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, 1500.0, got.Quantity)
	assert.Equal(t, 65.0, got.Price)
	assert.Equal(t, UnitG, got.Unit)
	assert.Equal(t, CategoryWax, got.Category)
}

func TestMergeAdd_Commutative(t *testing.T) {
	t.Parallel()

	base := Material{Name: "Wosk", Quantity: 100, Price: 4}
	a := Material{Name: "Wosk", Quantity: 250, Price: 10.5}
	b := Material{Name: "Wosk", Quantity: 40, Price: 1.25}

	ab := MergeAdd(MergeAdd(base, a), b)
	ba := MergeAdd(MergeAdd(base, b), a)
	assert.InDelta(t, ab.Quantity, ba.Quantity, 1e-9)
	assert.InDelta(t, ab.Price, ba.Price, 1e-9)
}

func TestMergeAdd_Preferences(t *testing.T) {
	t.Parallel()

	conc := 8.0
	existing := Material{Name: "Lawenda", Category: CategoryFragrance, Quantity: 50, Price: 10}
	got := MergeAdd(existing, Material{Quantity: 50, Price: 10, PreferredConcentration: &conc})
	require.NotNil(t, got.PreferredConcentration)
	assert.Equal(t, 8.0, *got.PreferredConcentration)

	conc = 1
	assert.Equal(t, 8.0, *got.PreferredConcentration, "merge must copy the preference")

	kept := MergeAdd(got, Material{Quantity: 1, Price: 1})
	require.NotNil(t, kept.PreferredConcentration)
	assert.Equal(t, 8.0, *kept.PreferredConcentration)
}

func TestDecrement_FullConsumptionDeletes(t *testing.T) {
	t.Parallel()

	m := Material{Name: "Knot", Quantity: 10, Price: 5}
	_, deleted := Decrement(m, 10)
	assert.True(t, deleted)
	_, deleted = Decrement(m, 12.5)
	assert.True(t, deleted)
}

func TestDecrement_KeepsUnitPrice(t *testing.T) {
	t.Parallel()

	m := Material{Name: "Wosk sojowy", Quantity: 1000, Price: 40}
	got, deleted := Decrement(m, 157.5)
	require.False(t, deleted)
	assert.Equal(t, 842.5, got.Quantity)
	assert.Equal(t, 33.7, got.Price)
	assert.InDelta(t, UnitPrice(&m), UnitPrice(&got), 0.01)
}

func TestDecrement_RoundsPrice(t *testing.T) {
	t.Parallel()

	m := Material{Quantity: 3, Price: 10}
	got, deleted := Decrement(m, 1)
	require.False(t, deleted)
	assert.Equal(t, 2.0, got.Quantity)
	assert.Equal(t, 6.67, got.Price)
}

func TestDecrement_NonPositiveAmount(t *testing.T) {
	t.Parallel()

	m := Material{Quantity: 200, Price: 20}
	got, deleted := Decrement(m, 0)
	require.False(t, deleted)
	assert.Equal(t, 200.0, got.Quantity)
	assert.Equal(t, 20.0, got.Price)

	got, deleted = Decrement(m, -5)
	require.False(t, deleted)
	assert.Equal(t, 205.0, got.Quantity)
	assert.Equal(t, 20.5, got.Price)
}

func TestParseUnit(t *testing.T) {
	t.Parallel()

	u, ok := ParseUnit("szt")
	require.True(t, ok)
	assert.Equal(t, UnitPcs, u)

	u, ok = ParseUnit(" ML ")
	require.True(t, ok)
	assert.Equal(t, UnitMl, u)

	_, ok = ParseUnit("kg")
	assert.False(t, ok)
}

func TestThresholds_IsLow(t *testing.T) {
	t.Parallel()

	thr := DefaultThresholds()
	assert.True(t, thr.IsLow(Material{Unit: UnitG, Quantity: 19.9}))
	assert.False(t, thr.IsLow(Material{Unit: UnitG, Quantity: 20}))
	assert.True(t, thr.IsLow(Material{Unit: UnitPcs, Quantity: 0}))
	assert.False(t, thr.IsLow(Material{Unit: UnitPcs, Quantity: 1}))

	// единица без порога
	delete(thr, UnitM)
	assert.False(t, thr.IsLow(Material{Unit: UnitM, Quantity: 0.1}))
}
