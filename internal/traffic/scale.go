package traffic

import (
	"encoding/json"
	"math"
)

var (
	// UnfilteredRadiusRange is the marker radius range with no time window.
	UnfilteredRadiusRange = [2]float64{0, 25}
	// FilteredRadiusRange spreads sparse windowed counts over a wider range.
	FilteredRadiusRange = [2]float64{3, 50}
)

// RadiusRange returns the output range for a selection.
func RadiusRange(sel Selection) [2]float64 {
	if sel.Filtered() {
		return FilteredRadiusRange
	}
	return UnfilteredRadiusRange
}

// RadiusScale maps total traffic to a circle radius on a square-root scale
// over [0, DomainMax]. Values above DomainMax are not clamped.
type RadiusScale struct {
	DomainMax float64
	Range     [2]float64
}

// Radius returns the radius for a traffic total.
// A zero domain maps everything to the low end of the range.
func (s RadiusScale) Radius(total int) float64 {
	lo, hi := s.Range[0], s.Range[1]
	if s.DomainMax <= 0 || total <= 0 {
		return lo
	}
	return lo + (hi-lo)*math.Sqrt(float64(total))/math.Sqrt(s.DomainMax)
}

// FlowLevel is a quantized departure ratio. Defined is false when the
// station had no traffic, so the ratio 0/0 has no bucket.
type FlowLevel struct {
	Value   float64
	Defined bool
}

// MarshalJSON encodes an undefined level as null.
func (f FlowLevel) MarshalJSON() ([]byte, error) {
	if !f.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON accepts a number or null.
func (f *FlowLevel) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = FlowLevel{}
		return nil
	}
	if err := json.Unmarshal(b, &f.Value); err != nil {
		return err
	}
	f.Defined = true
	return nil
}

// flowBuckets partitions [0, 1] into equal thirds.
var flowBuckets = []float64{0, 0.5, 1}

// QuantizeFlow buckets a ratio in [0, 1]. NaN yields an undefined level.
func QuantizeFlow(ratio float64) FlowLevel {
	if math.IsNaN(ratio) {
		return FlowLevel{}
	}
	n := len(flowBuckets)
	for i := 0; i < n-1; i++ {
		if ratio < float64(i+1)/float64(n) {
			return FlowLevel{Value: flowBuckets[i], Defined: true}
		}
	}
	return FlowLevel{Value: flowBuckets[n-1], Defined: true}
}

// DepartureRatio returns departures/total, NaN when total is zero.
func DepartureRatio(st StationTraffic) float64 {
	if st.TotalTraffic == 0 {
		return math.NaN()
	}
	return float64(st.Departures) / float64(st.TotalTraffic)
}

// Flow is QuantizeFlow(DepartureRatio(st)).
func Flow(st StationTraffic) FlowLevel {
	return QuantizeFlow(DepartureRatio(st))
}
