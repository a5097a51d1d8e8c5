// Package history is the client for the historical time-series database
// collaborator (InfluxDB). Samples are written as they arrive and read
// back once per daily cycle as a trailing-24h window.
package history

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sony/gobreaker"

	"github.com/gardenops/soil-balance/internal/metrics"
	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/weather"
)

type Config struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string // defaults to "weather_sample"

	BreakerFailures uint32
	BreakerOpenFor  time.Duration
}

// Store wraps the Influx write and query APIs. Window queries run through
// a circuit breaker so a dead database degrades into skipped ET days
// instead of a stalled scheduler.
type Store struct {
	client      influxdb2.Client
	write       api.WriteAPIBlocking
	query       api.QueryAPI
	bucket      string
	measurement string
	breaker     *gobreaker.CircuitBreaker
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	if cfg.Measurement == "" {
		cfg.Measurement = "weather_sample"
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "history",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
	})

	return &Store{
		client:      client,
		write:       client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		query:       client.QueryAPI(cfg.Org),
		bucket:      cfg.Bucket,
		measurement: sanitizeMeasurement(cfg.Measurement),
		breaker:     cb,
	}, nil
}

func (s *Store) Close() { s.client.Close() }

// WriteSample persists one validated reading.
func (s *Store) WriteSample(ctx context.Context, entityID string, sample model.WeatherSample) error {
	t := sample.Timestamp
	if t.IsZero() {
		t = time.Now()
	}
	tags := map[string]string{
		"kind":      string(sample.Kind),
		"entity_id": entityID,
	}
	fields := map[string]interface{}{
		"value": sample.Value,
	}
	point := influxdb2.NewPoint(s.measurement, tags, fields, t)
	if err := s.write.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("history write: %w", err)
	}
	return nil
}

func (s *Store) buildFlux(start, end time.Time) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r._field == "value")
  |> keep(columns: ["_time","_value","kind"])
  |> sort(columns: ["_time"])
`, s.bucket, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), s.measurement)
}

// QueryWindow fetches every sample in [start, end) and re-validates each
// one with the same range table as the live path; out-of-range rows are
// dropped here so they can never reach the aggregator.
func (s *Store) QueryWindow(ctx context.Context, start, end time.Time) ([]model.WeatherSample, error) {
	began := time.Now()
	res, err := s.breaker.Execute(func() (any, error) {
		r, err := s.query.Query(ctx, s.buildFlux(start, end))
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()

		var out []model.WeatherSample
		for r.Next() {
			rec := r.Record()

			kind, _ := rec.ValueByKey("kind").(string)
			var value float64
			switch v := rec.Value().(type) {
			case float64:
				value = v
			case int64:
				value = float64(v)
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					value = f
				}
			}

			sk := model.SampleKind(kind)
			if err := weather.Validate(sk, value); err != nil {
				metrics.SamplesRejected.WithLabelValues(kind).Inc()
				log.Printf("history: dropping stored sample: %v", err)
				continue
			}
			out = append(out, model.WeatherSample{
				Kind:      sk,
				Value:     value,
				Timestamp: rec.Time(),
			})
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		return out, nil
	})
	metrics.HistoryQuerySeconds.Observe(time.Since(began).Seconds())
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	return res.([]model.WeatherSample), nil
}

func sanitizeMeasurement(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == ':', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
