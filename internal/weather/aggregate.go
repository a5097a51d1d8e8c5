package weather

import (
	"log"
	"sort"
	"time"

	"github.com/gardenops/soil-balance/internal/metrics"
	"github.com/gardenops/soil-balance/internal/model"
)

// MaxCounterJumpMM is the largest credible increase between two consecutive
// cumulative precipitation readings. Bigger jumps are sensor faults.
const MaxCounterJumpMM = 200.0

// Aggregate folds a window of validated samples into one daily summary.
// Sampling cadence is irregular; entirely absent optional sensors simply
// leave their field count at zero. Samples outside [start, end) are
// ignored.
func Aggregate(samples []model.WeatherSample, start, end time.Time) model.DailyAggregate {
	agg := model.DailyAggregate{WindowStart: start, WindowEnd: end}

	inWindow := make([]model.WeatherSample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp.Before(start) || !s.Timestamp.Before(end) {
			continue
		}
		inWindow = append(inWindow, s)
	}
	// Counter deltas need timestamp order; means don't care.
	sort.Slice(inWindow, func(i, j int) bool {
		return inWindow[i].Timestamp.Before(inWindow[j].Timestamp)
	})

	var (
		tempSum, humSum, windSum, solarSum, pressSum float64

		havePrevPrecip bool
		prevPrecip     float64
	)

	for _, s := range inWindow {
		switch s.Kind {
		case model.KindTemperature:
			tempSum += s.Value
			if agg.TempN == 0 || s.Value < agg.TempMin {
				agg.TempMin = s.Value
			}
			if agg.TempN == 0 || s.Value > agg.TempMax {
				agg.TempMax = s.Value
			}
			agg.TempN++
		case model.KindHumidity:
			humSum += s.Value
			agg.HumidityN++
		case model.KindWind:
			windSum += s.Value
			agg.WindN++
		case model.KindSolar:
			solarSum += s.Value
			agg.SolarN++
		case model.KindPressure:
			pressSum += s.Value
			agg.PressureN++
		case model.KindPrecipitation:
			if havePrevPrecip {
				delta := s.Value - prevPrecip
				switch {
				case delta < 0:
					// Counter rollover; never record negative rainfall.
				case delta > MaxCounterJumpMM:
					metrics.AnomalousDeltas.Inc()
					log.Printf("weather: discarding anomalous precip jump %.1f→%.1f (Δ%.1fmm)", prevPrecip, s.Value, delta)
				default:
					agg.PrecipTotal += delta
				}
			}
			prevPrecip = s.Value
			havePrevPrecip = true
			agg.PrecipN++
		}
	}

	if agg.TempN > 0 {
		agg.TempMean = tempSum / float64(agg.TempN)
	}
	if agg.HumidityN > 0 {
		agg.HumidityMean = humSum / float64(agg.HumidityN)
	}
	if agg.WindN > 0 {
		agg.WindMean = windSum / float64(agg.WindN)
	}
	if agg.SolarN > 0 {
		agg.SolarMean = solarSum / float64(agg.SolarN)
	}
	if agg.PressureN > 0 {
		agg.PressureMean = pressSum / float64(agg.PressureN)
	}

	return agg
}

// CounterDelta applies the same anomaly rule to a live pair of cumulative
// precipitation readings and returns the rainfall to credit, which may be
// zero. ok is false when the jump was discarded as a fault.
func CounterDelta(prev, cur float64) (mm float64, ok bool) {
	delta := cur - prev
	switch {
	case delta < 0:
		return 0, true // rollover
	case delta > MaxCounterJumpMM:
		return 0, false
	default:
		return delta, true
	}
}
