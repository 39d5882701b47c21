package traffic

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadiusScale_Endpoints(t *testing.T) {
	s := RadiusScale{DomainMax: 100, Range: UnfilteredRadiusRange}
	assert.Equal(t, 0.0, s.Radius(0))
	assert.InDelta(t, 25.0, s.Radius(100), 1e-9)
	assert.InDelta(t, 12.5, s.Radius(25), 1e-9, "sqrt(25/100) = 0.5")

	f := RadiusScale{DomainMax: 100, Range: FilteredRadiusRange}
	assert.Equal(t, 3.0, f.Radius(0))
	assert.InDelta(t, 50.0, f.Radius(100), 1e-9)
	assert.InDelta(t, 3+47*0.1, f.Radius(1), 1e-9)
}

func TestRadiusScale_Monotonic(t *testing.T) {
	for _, r := range [][2]float64{UnfilteredRadiusRange, FilteredRadiusRange} {
		s := RadiusScale{DomainMax: 500, Range: r}
		prev := s.Radius(0)
		for total := 1; total <= 600; total++ {
			got := s.Radius(total)
			require.GreaterOrEqual(t, got, prev, "radius(%d) < radius(%d)", total, total-1)
			prev = got
		}
	}
}

func TestRadiusScale_ZeroDomain(t *testing.T) {
	s := RadiusScale{DomainMax: 0, Range: FilteredRadiusRange}
	assert.Equal(t, 3.0, s.Radius(0))
	assert.Equal(t, 3.0, s.Radius(10))
}

func TestRadiusRange(t *testing.T) {
	assert.Equal(t, [2]float64{0, 25}, RadiusRange(Unfiltered))
	assert.Equal(t, [2]float64{3, 50}, RadiusRange(0))
	assert.Equal(t, [2]float64{3, 50}, RadiusRange(1439))
}

func TestQuantizeFlow(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0, 0},
		{0.2, 0},
		{0.333, 0},
		{1.0 / 3, 0.5},
		{0.5, 0.5},
		{0.666, 0.5},
		{2.0 / 3, 1},
		{0.9, 1},
		{1, 1},
		{-0.5, 0},
		{1.5, 1},
	}
	for _, tt := range tests {
		got := QuantizeFlow(tt.ratio)
		assert.True(t, got.Defined, "QuantizeFlow(%v) should be defined", tt.ratio)
		assert.Equal(t, tt.want, got.Value, "QuantizeFlow(%v)", tt.ratio)
	}
}

func TestQuantizeFlow_NaNIsUndefined(t *testing.T) {
	got := QuantizeFlow(math.NaN())
	assert.False(t, got.Defined)
}

func TestFlow(t *testing.T) {
	assert.Equal(t, FlowLevel{}, Flow(StationTraffic{}))
	assert.Equal(t, FlowLevel{Value: 1, Defined: true}, Flow(StationTraffic{Departures: 4, TotalTraffic: 4}))
	assert.Equal(t, FlowLevel{Value: 0, Defined: true}, Flow(StationTraffic{Arrivals: 4, TotalTraffic: 4}))
	assert.Equal(t, FlowLevel{Value: 0.5, Defined: true}, Flow(StationTraffic{Arrivals: 1, Departures: 1, TotalTraffic: 2}))
}

func TestFlowLevel_JSON(t *testing.T) {
	b, err := json.Marshal([]FlowLevel{{}, {Value: 0.5, Defined: true}, {Value: 0, Defined: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 0.5, 0]`, string(b))

	var back []FlowLevel
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []FlowLevel{{}, {Value: 0.5, Defined: true}, {Value: 0, Defined: true}}, back)
}
