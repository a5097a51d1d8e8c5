package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/gardenops/soil-balance/internal/model"
)

// Evaluation is the derived, read-only view of a zone's watering needs.
type Evaluation struct {
	Balance                float64 `json:"balance_mm"`
	ForecastRain           float64 `json:"forecast_rain_mm"`
	EffectiveDeficit       float64 `json:"effective_deficit_mm"`
	RequiredRuntimeSeconds float64 `json:"required_runtime_seconds"`
	PlannedRuntimeSeconds  float64 `json:"planned_runtime_seconds"`
	CanRun                 bool    `json:"can_run"`
	Reason                 string  `json:"reason"`
}

// Evaluate derives the watering plan for a zone. forecastRain (mm) is
// netted against the deficit before the runtime is computed; pass 0 when
// no forecast input is configured. The planned runtime is the required one
// clamped to the zone's min/max limits.
func (l *Ledger) Evaluate(zoneID string, forecastRain float64, now time.Time) (Evaluation, error) {
	z, err := l.get(zoneID)
	if err != nil {
		return Evaluation{}, err
	}

	z.mu.Lock()
	bal := z.balance
	lastOff, hasLastOff := z.lastOff, z.hasLastOff
	z.mu.Unlock()

	ev := Evaluation{Balance: bal, ForecastRain: math.Max(0, forecastRain)}
	ev.EffectiveDeficit = effectiveDeficit(bal, ev.ForecastRain)
	ev.RequiredRuntimeSeconds = requiredRuntime(bal, z.cfg.PrecipRate)

	// The run length a watering would actually need, after the forecast
	// netting. Both the clamp and the too-short gate work from this, not
	// from the raw-deficit runtime.
	runtime := ev.EffectiveDeficit / z.cfg.PrecipRate * 3600
	planned := runtime
	if planned > 0 {
		if z.cfg.MaxRuntime > 0 {
			planned = math.Min(planned, z.cfg.MaxRuntime)
		}
		planned = math.Max(planned, z.cfg.MinRuntime)
	}
	ev.PlannedRuntimeSeconds = planned

	switch {
	case hasLastOff && z.cfg.MinimumInterval > 0 && now.Sub(lastOff).Seconds() < z.cfg.MinimumInterval:
		ev.Reason = fmt.Sprintf("minimum interval not met (%.0fs < %.0fs)", now.Sub(lastOff).Seconds(), z.cfg.MinimumInterval)
	case bal >= 0:
		ev.Reason = "no moisture deficit"
	case ev.EffectiveDeficit <= 0:
		ev.Reason = fmt.Sprintf("forecasted rain (%.1fmm) covers deficit", ev.ForecastRain)
	case z.cfg.MinRuntime > 0 && runtime < z.cfg.MinRuntime:
		ev.Reason = fmt.Sprintf("runtime too short (%.0fs < %.0fs minimum)", runtime, z.cfg.MinRuntime)
	default:
		ev.CanRun = true
		ev.Reason = "ready to run"
	}

	return ev, nil
}

// effectiveDeficit nets forecasted rain against the current deficit; a
// non-negative balance has no deficit at all.
func effectiveDeficit(balance, forecastRain float64) float64 {
	if balance >= 0 {
		return 0
	}
	return math.Max(0, -balance-forecastRain)
}

// Snapshot is the externally visible state of one zone.
type Snapshot struct {
	Config       model.ZoneConfig `json:"config"`
	Balance      float64          `json:"balance_mm"`
	LastETDate   string           `json:"last_et_date,omitempty"`
	LastET       model.ETResult   `json:"last_et,omitempty"`
	LastRainfall float64          `json:"last_rainfall_mm"`
	RuntimeToday float64          `json:"runtime_today_seconds"`
}

// Snapshot returns a consistent copy of one zone's state.
func (l *Ledger) Snapshot(zoneID string) (Snapshot, error) {
	z, err := l.get(zoneID)
	if err != nil {
		return Snapshot{}, err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	return Snapshot{
		Config:       z.cfg,
		Balance:      z.balance,
		LastETDate:   z.lastETDate,
		LastET:       z.lastET,
		LastRainfall: z.lastRainfall,
		RuntimeToday: z.runtimeToday,
	}, nil
}

// Snapshots returns every zone's snapshot, keyed by zone ID.
func (l *Ledger) Snapshots() map[string]Snapshot {
	l.mu.RLock()
	ids := make([]string, 0, len(l.zones))
	for id := range l.zones {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	out := make(map[string]Snapshot, len(ids))
	for _, id := range ids {
		if s, err := l.Snapshot(id); err == nil {
			out[id] = s
		}
	}
	return out
}
