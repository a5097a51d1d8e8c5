package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gardenops/soil-balance/internal/model"
)

// Tunables for the synthetic day.
const (
	tempMeanC      = 18.0
	tempSwingC     = 8.0 // peak-to-mean amplitude
	humidityMeanPc = 60.0
	solarPeakWm2   = 850.0
	showerChance   = 0.02 // per tick, outside an active shower
	showerRateMMPM = 0.25 // mm per minute while a shower lasts
)

// Generator evolves a plausible weather state tick by tick: a diurnal
// temperature sinusoid, humidity moving against it, daylight-gated solar,
// a wandering pressure and a cumulative rain counter that only ever grows
// during randomly started showers.
type Generator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	last time.Time

	rainCounter float64
	showerLeft  time.Duration
	pressure    float64
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		pressure: 1013,
	}
}

// Next advances the state to now and returns one sample per kind.
func (g *Generator) Next(now time.Time) []model.WeatherSample {
	g.mu.Lock()
	defer g.mu.Unlock()

	var dt time.Duration
	if !g.last.IsZero() && now.After(g.last) {
		dt = now.Sub(g.last)
	}
	g.last = now

	// fraction of the day, 0 at midnight
	dayFrac := float64(now.Hour()*3600+now.Minute()*60+now.Second()) / 86400

	temp := tempMeanC + tempSwingC*math.Sin(2*math.Pi*(dayFrac-0.25)) + g.rng.NormFloat64()*0.4
	humidity := clamp(humidityMeanPc-2.5*(temp-tempMeanC)+g.rng.NormFloat64()*3, 5, 100)
	wind := math.Abs(8 + g.rng.NormFloat64()*4) // km/h

	// daylight window roughly 06:00..20:00
	solar := 0.0
	if dayFrac > 0.25 && dayFrac < 0.83 {
		solar = solarPeakWm2 * math.Sin(math.Pi*(dayFrac-0.25)/0.58)
		solar = math.Max(0, solar+g.rng.NormFloat64()*30)
	}

	g.pressure += g.rng.NormFloat64() * 0.3
	g.pressure = clamp(g.pressure, 980, 1040)

	if g.showerLeft > 0 {
		g.rainCounter += showerRateMMPM * dt.Minutes()
		g.showerLeft -= dt
	} else if g.rng.Float64() < showerChance {
		g.showerLeft = time.Duration(10+g.rng.Intn(50)) * time.Minute
	}

	mk := func(kind model.SampleKind, v float64) model.WeatherSample {
		return model.WeatherSample{Kind: kind, Value: round2(v), Timestamp: now}
	}
	return []model.WeatherSample{
		mk(model.KindTemperature, temp),
		mk(model.KindHumidity, humidity),
		mk(model.KindWind, wind),
		mk(model.KindSolar, solar),
		mk(model.KindPressure, g.pressure),
		mk(model.KindPrecipitation, g.rainCounter),
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
