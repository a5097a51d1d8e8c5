package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/weather"
)

func TestGeneratorProducesValidSamples(t *testing.T) {
	g := NewGenerator(1)
	at := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

	for tick := 0; tick < 24*60; tick++ {
		at = at.Add(time.Minute)
		for _, s := range g.Next(at) {
			require.NoError(t, weather.Validate(s.Kind, s.Value), "%s at %s", s.Kind, at)
		}
	}
}

func TestGeneratorRainCounterMonotonic(t *testing.T) {
	g := NewGenerator(7)
	at := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

	prev := -1.0
	for tick := 0; tick < 12*60; tick++ {
		at = at.Add(time.Minute)
		for _, s := range g.Next(at) {
			if s.Kind != model.KindPrecipitation {
				continue
			}
			assert.GreaterOrEqual(t, s.Value, prev)
			prev = s.Value
		}
	}
}

func TestGeneratorSolarDarkAtNight(t *testing.T) {
	g := NewGenerator(3)
	night := time.Date(2026, 6, 3, 2, 0, 0, 0, time.UTC)

	for _, s := range g.Next(night) {
		if s.Kind == model.KindSolar {
			assert.Zero(t, s.Value)
		}
	}
}
