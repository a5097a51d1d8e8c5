package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2026, 6, 2, 7, 0, 0, 0, time.UTC)

func TestEvaluateNoDeficit(t *testing.T) {
	l := New(testZones(), nil)
	require.NoError(t, l.SetBalance("lawn", 2))

	ev, err := l.Evaluate("lawn", 0, evalNow)
	require.NoError(t, err)
	assert.False(t, ev.CanRun)
	assert.Equal(t, "no moisture deficit", ev.Reason)
	assert.Zero(t, ev.EffectiveDeficit)
	assert.Zero(t, ev.PlannedRuntimeSeconds)
}

func TestEvaluateReadyToRun(t *testing.T) {
	l := New(testZones(), nil)
	require.NoError(t, l.SetBalance("lawn", -8))

	ev, err := l.Evaluate("lawn", 0, evalNow)
	require.NoError(t, err)
	assert.True(t, ev.CanRun)
	assert.Equal(t, "ready to run", ev.Reason)
	assert.InDelta(t, 8.0, ev.EffectiveDeficit, 1e-9)
	assert.InDelta(t, 2880.0, ev.RequiredRuntimeSeconds, 1e-9) // 8mm ÷ 10mm/h
	assert.InDelta(t, 2880.0, ev.PlannedRuntimeSeconds, 1e-9)
}

func TestEvaluateForecastRainNetsDeficit(t *testing.T) {
	l := New(testZones(), nil)
	require.NoError(t, l.SetBalance("lawn", -5))

	ev, err := l.Evaluate("lawn", 6, evalNow)
	require.NoError(t, err)
	assert.False(t, ev.CanRun)
	assert.Contains(t, ev.Reason, "forecasted rain")
	assert.Zero(t, ev.EffectiveDeficit)

	// partial cover still runs, for the remainder
	ev, err = l.Evaluate("lawn", 2, evalNow)
	require.NoError(t, err)
	assert.True(t, ev.CanRun)
	assert.InDelta(t, 3.0, ev.EffectiveDeficit, 1e-9)
	assert.InDelta(t, 1080.0, ev.PlannedRuntimeSeconds, 1e-9)
}

func TestEvaluateRuntimeClamps(t *testing.T) {
	l := New(testZones(), nil)

	// deficit so small the runtime falls under the minimum
	require.NoError(t, l.SetBalance("lawn", -0.1))
	ev, err := l.Evaluate("lawn", 0, evalNow)
	require.NoError(t, err)
	assert.False(t, ev.CanRun)
	assert.Contains(t, ev.Reason, "runtime too short")
	assert.InDelta(t, 120.0, ev.PlannedRuntimeSeconds, 1e-9, "planned runtime is clamped up to the minimum")

	// deficit so large the runtime caps at the maximum
	require.NoError(t, l.SetBalance("lawn", -50))
	ev, err = l.Evaluate("lawn", 0, evalNow)
	require.NoError(t, err)
	assert.True(t, ev.CanRun)
	assert.InDelta(t, 18000.0, ev.RequiredRuntimeSeconds, 1e-9)
	assert.InDelta(t, 3600.0, ev.PlannedRuntimeSeconds, 1e-9)
}

func TestEvaluateForecastShrinksRuntimeBelowMinimum(t *testing.T) {
	cfgs := testZones()
	lawn := cfgs["lawn"]
	lawn.MinRuntime = 600
	cfgs["lawn"] = lawn

	l := New(cfgs, nil)
	require.NoError(t, l.SetBalance("lawn", -10))

	// 9mm of the 10mm deficit is forecast: only 360s of effective runtime
	// remain, under the 600s floor.
	ev, err := l.Evaluate("lawn", 9, evalNow)
	require.NoError(t, err)
	assert.False(t, ev.CanRun)
	assert.Contains(t, ev.Reason, "runtime too short (360s < 600s")
	assert.InDelta(t, 1.0, ev.EffectiveDeficit, 1e-9)
	assert.InDelta(t, 3600.0, ev.RequiredRuntimeSeconds, 1e-9, "the raw-deficit runtime alone would pass the gate")

	// without the forecast the same deficit runs fine
	ev, err = l.Evaluate("lawn", 0, evalNow)
	require.NoError(t, err)
	assert.True(t, ev.CanRun)
	assert.InDelta(t, 3600.0, ev.PlannedRuntimeSeconds, 1e-9)
}

func TestEvaluateMinimumInterval(t *testing.T) {
	cfgs := testZones()
	lawn := cfgs["lawn"]
	lawn.MinimumInterval = 6 * 3600
	cfgs["lawn"] = lawn

	l := New(cfgs, nil)
	require.NoError(t, l.SetBalance("lawn", -8))
	require.NoError(t, l.RecordValveOff("lawn", evalNow.Add(-2*time.Hour), 900))

	ev, err := l.Evaluate("lawn", 0, evalNow)
	require.NoError(t, err)
	assert.False(t, ev.CanRun)
	assert.Contains(t, ev.Reason, "minimum interval not met")

	// interval elapsed
	ev, err = l.Evaluate("lawn", 0, evalNow.Add(5*time.Hour))
	require.NoError(t, err)
	assert.True(t, ev.CanRun)
}

func TestEvaluateNegativeForecastIgnored(t *testing.T) {
	l := New(testZones(), nil)
	require.NoError(t, l.SetBalance("lawn", -8))

	ev, err := l.Evaluate("lawn", -3, evalNow)
	require.NoError(t, err)
	assert.Zero(t, ev.ForecastRain)
	assert.InDelta(t, 8.0, ev.EffectiveDeficit, 1e-9)
}

func TestSnapshots(t *testing.T) {
	l := New(testZones(), nil)
	require.NoError(t, l.AddRain("lawn", 2.5))

	snaps := l.Snapshots()
	require.Len(t, snaps, 2)
	assert.InDelta(t, 2.5, snaps["lawn"].Balance, 1e-9)
	assert.InDelta(t, 2.5, snaps["lawn"].LastRainfall, 1e-9)
	assert.Zero(t, snaps["beds"].Balance)
}
