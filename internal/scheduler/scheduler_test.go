package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenops/soil-balance/internal/ledger"
	"github.com/gardenops/soil-balance/internal/model"
)

// fakeSource synthesizes a plausible day of samples inside whatever window
// the scheduler asks for.
type fakeSource struct {
	kinds []model.SampleKind
	temp  float64
	err   error

	queried int
}

func (f *fakeSource) QueryWindow(_ context.Context, start, end time.Time) ([]model.WeatherSample, error) {
	f.queried++
	if f.err != nil {
		return nil, f.err
	}
	var out []model.WeatherSample
	for h := 0; h < 24; h++ {
		at := start.Add(time.Duration(h) * time.Hour)
		if !at.Before(end) {
			break
		}
		for _, k := range f.kinds {
			var v float64
			switch k {
			case model.KindTemperature:
				v = f.temp + float64(h%12) // some diurnal range
			case model.KindHumidity:
				v = 60
			case model.KindWind:
				v = 8
			case model.KindSolar:
				v = 240
			}
			out = append(out, model.WeatherSample{Kind: k, Value: v, Timestamp: at})
		}
	}
	return out, nil
}

func allKinds() []model.SampleKind {
	return []model.SampleKind{model.KindTemperature, model.KindHumidity, model.KindWind, model.KindSolar}
}

func newFixture(src *fakeSource) (*Scheduler, *ledger.Ledger) {
	l := ledger.New(map[string]model.ZoneConfig{
		"lawn": {ID: "lawn", PrecipRate: 10, Kc: 0.8},
		"beds": {ID: "beds", PrecipRate: 5, Kc: 1.2},
	}, nil)
	site := model.Location{Latitude: 43.7, Elevation: 50}
	return New(src, l, site, time.UTC), l
}

func TestRunZoneAppliesCropAdjustedET(t *testing.T) {
	src := &fakeSource{kinds: allKinds(), temp: 18}
	s, l := newFixture(src)

	require.NoError(t, s.RunZone(context.Background(), "lawn", false))

	bal, err := l.Balance("lawn")
	require.NoError(t, err)
	assert.Negative(t, bal)

	snap, err := l.Snapshot("lawn")
	require.NoError(t, err)
	assert.Equal(t, model.MethodPenmanMonteith, snap.LastET.Method)
	assert.InDelta(t, snap.LastET.ET0*0.8, snap.LastET.ETc, 1e-9)
	assert.InDelta(t, -snap.LastET.ETc, bal, 1e-9)

	wantDate := time.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour).Format("2006-01-02")
	assert.Equal(t, wantDate, snap.LastETDate)

	// other zone untouched by a single-zone run
	bal, _ = l.Balance("beds")
	assert.Zero(t, bal)
}

func TestRunAllScalesPerZoneKc(t *testing.T) {
	src := &fakeSource{kinds: allKinds(), temp: 18}
	s, l := newFixture(src)

	require.NoError(t, s.RunAll(context.Background(), false))

	lawn, _ := l.Snapshot("lawn")
	beds, _ := l.Snapshot("beds")
	require.NotZero(t, lawn.LastET.ET0)
	assert.InDelta(t, lawn.LastET.ET0, beds.LastET.ET0, 1e-9, "one ET0 per site")
	assert.InDelta(t, lawn.LastET.ET0*0.8, lawn.LastET.ETc, 1e-9)
	assert.InDelta(t, beds.LastET.ET0*1.2, beds.LastET.ETc, 1e-9)
}

func TestRunZoneIdempotentSameDay(t *testing.T) {
	src := &fakeSource{kinds: allKinds(), temp: 18}
	s, l := newFixture(src)

	require.NoError(t, s.RunZone(context.Background(), "lawn", false))
	first, _ := l.Balance("lawn")

	require.NoError(t, s.RunZone(context.Background(), "lawn", false))
	second, _ := l.Balance("lawn")

	assert.Equal(t, first, second)
	assert.Equal(t, 2, src.queried, "the query runs, the application is the no-op")
}

func TestRunZoneForceRecomputes(t *testing.T) {
	src := &fakeSource{kinds: allKinds(), temp: 18}
	s, l := newFixture(src)

	require.NoError(t, s.RunZone(context.Background(), "lawn", false))

	// warmer re-read of the same day
	src.temp = 26
	require.NoError(t, s.RunZone(context.Background(), "lawn", true))

	snap, _ := l.Snapshot("lawn")
	bal, _ := l.Balance("lawn")
	assert.InDelta(t, -snap.LastET.ETc, bal, 1e-9, "forced recompute overwrites, it does not stack")
}

func TestInsufficientDataSkipsDay(t *testing.T) {
	src := &fakeSource{kinds: []model.SampleKind{model.KindTemperature}, temp: 18}
	s, l := newFixture(src)

	require.NoError(t, s.RunZone(context.Background(), "lawn", false), "a skipped day is not an error")

	bal, _ := l.Balance("lawn")
	assert.Zero(t, bal, "skip must not zero-fill")
	snap, _ := l.Snapshot("lawn")
	assert.Empty(t, snap.LastETDate)
}

func TestQueryErrorLeavesBalancesUntouched(t *testing.T) {
	src := &fakeSource{err: errors.New("influx down")}
	s, l := newFixture(src)

	err := s.RunAll(context.Background(), false)
	require.Error(t, err)

	bal, _ := l.Balance("lawn")
	assert.Zero(t, bal)
	snap, _ := l.Snapshot("lawn")
	assert.Empty(t, snap.LastETDate)
}

func TestRunZoneUnknownZone(t *testing.T) {
	src := &fakeSource{kinds: allKinds(), temp: 18}
	s, _ := newFixture(src)
	assert.Error(t, s.RunZone(context.Background(), "orchard", false))
}

func TestMidnightHelpers(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	at := time.Date(2026, 6, 3, 15, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 6, 3, 0, 0, 0, 0, loc), midnight(at))
	assert.Equal(t, time.Date(2026, 6, 4, 0, 0, 0, 0, loc), nextMidnight(at))

	exactly := time.Date(2026, 6, 3, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 6, 4, 0, 0, 0, 0, loc), nextMidnight(exactly))
}
