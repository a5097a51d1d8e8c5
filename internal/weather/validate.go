package weather

import (
	"fmt"

	"github.com/gardenops/soil-balance/internal/model"
)

// Inclusive plausibility bounds per sample kind. Anything outside never
// reaches the aggregator or the ledger, whether it arrived live or from a
// historical query.
var ranges = map[model.SampleKind][2]float64{
	model.KindTemperature:   {-50, 60},
	model.KindHumidity:      {0, 100},
	model.KindPrecipitation: {0, 500},
	model.KindWind:          {0, 200},
	model.KindSolar:         {0, 1500},
	model.KindPressure:      {800, 1100},
}

// RangeError reports a reading outside the physical bounds for its kind.
type RangeError struct {
	Kind  model.SampleKind
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s reading %.2f outside [%.1f, %.1f]", e.Kind, e.Value, e.Min, e.Max)
}

// Validate checks one raw reading against the range table. It is a pure
// function shared by the live push path and the historical query path.
func Validate(kind model.SampleKind, value float64) error {
	r, ok := ranges[kind]
	if !ok {
		return fmt.Errorf("unknown sample kind %q", kind)
	}
	if value < r[0] || value > r[1] {
		return &RangeError{Kind: kind, Value: value, Min: r[0], Max: r[1]}
	}
	return nil
}
