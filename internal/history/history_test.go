package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreConfig(t *testing.T) {
	_, err := NewStore(Config{URL: "http://localhost:8086", Token: "t", Org: "o"})
	assert.Error(t, err, "bucket is required")

	s, err := NewStore(Config{URL: "http://localhost:8086", Token: "t", Org: "o", Bucket: "weather"})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "weather_sample", s.measurement)
}

func TestBuildFlux(t *testing.T) {
	s, err := NewStore(Config{
		URL: "http://localhost:8086", Token: "t", Org: "o", Bucket: "weather",
		Measurement: "obs",
	})
	require.NoError(t, err)
	defer s.Close()

	start := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	flux := s.buildFlux(start, start.Add(24*time.Hour))

	assert.Contains(t, flux, `from(bucket: "weather")`)
	assert.Contains(t, flux, `range(start: 2026-06-02T00:00:00Z, stop: 2026-06-03T00:00:00Z)`)
	assert.Contains(t, flux, `r._measurement == "obs"`)
	assert.Contains(t, flux, `sort(columns: ["_time"])`)
}

func TestSanitizeMeasurement(t *testing.T) {
	assert.Equal(t, "weather_sample", sanitizeMeasurement("weather_sample"))
	assert.Equal(t, "obs_2026_v1", sanitizeMeasurement(`obs 2026"v1`))
}
