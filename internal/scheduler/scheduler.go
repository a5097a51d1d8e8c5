// Package scheduler drives the daily ET cycle: once per local midnight it
// turns the previous day's sample window into a per-zone balance
// subtraction, and serves the same pipeline on demand.
package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gardenops/soil-balance/internal/et"
	"github.com/gardenops/soil-balance/internal/ledger"
	"github.com/gardenops/soil-balance/internal/metrics"
	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/weather"
)

// SampleSource yields the validated samples of a time window. Backed by
// the history store in production, faked in tests.
type SampleSource interface {
	QueryWindow(ctx context.Context, start, end time.Time) ([]model.WeatherSample, error)
}

type Scheduler struct {
	source SampleSource
	ledger *ledger.Ledger
	site   model.Location
	tz     *time.Location
}

func New(source SampleSource, l *ledger.Ledger, site model.Location, tz *time.Location) *Scheduler {
	if tz == nil {
		tz = time.Local
	}
	return &Scheduler{source: source, ledger: l, site: site, tz: tz}
}

// Start blocks until ctx is cancelled, firing the full cycle at every
// local-midnight boundary. A missed boundary (process down) self-heals on
// the next one: zones already carrying that date's ET are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := nextMidnight(time.Now().In(s.tz))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			log.Println("scheduler: running daily ET cycle")
			if err := s.RunAll(ctx, false); err != nil {
				log.Printf("scheduler: daily cycle: %v", err)
			}
		}
	}
}

// RunAll runs the daily pipeline for every configured zone.
func (s *Scheduler) RunAll(ctx context.Context, force bool) error {
	return s.cycle(ctx, s.ledger.ZoneIDs(), force)
}

// RunZone runs the daily pipeline for a single zone, e.g. from the
// on-demand trigger.
func (s *Scheduler) RunZone(ctx context.Context, zoneID string, force bool) error {
	if _, err := s.ledger.Config(zoneID); err != nil {
		return err
	}
	return s.cycle(ctx, []string{zoneID}, force)
}

// cycle is the 4-step pipeline: query window → aggregate → select method →
// compute and apply. The window is the 24h preceding the most recent local
// midnight, so the applied date is yesterday's. No zone lock is held
// while querying or computing; ApplyET takes it only to land the delta.
func (s *Scheduler) cycle(ctx context.Context, zoneIDs []string, force bool) error {
	end := midnight(time.Now().In(s.tz))
	start := end.Add(-24 * time.Hour)
	date := start

	samples, err := s.source.QueryWindow(ctx, start, end)
	if err != nil {
		// Leave balances untouched; the idempotence guard lets a retry
		// pick up exactly the zones that were missed.
		return err
	}

	agg := weather.Aggregate(samples, start, end)
	method, err := et.SelectMethod(agg)
	if errors.Is(err, et.ErrInsufficientData) {
		metrics.ETSkipped.Inc()
		log.Printf("scheduler: ET skipped for %s: %v", date.Format("2006-01-02"), err)
		return nil
	}
	if err != nil {
		return err
	}

	et0, err := et.Compute(agg, s.site, method)
	if err != nil {
		return err
	}
	metrics.ETComputed.WithLabelValues(string(method)).Inc()
	log.Printf("scheduler: ET0=%.2fmm method=%s for %s (%d/%d temp/humidity samples)",
		et0, method, date.Format("2006-01-02"), agg.TempN, agg.HumidityN)

	for _, zoneID := range zoneIDs {
		cfg, err := s.ledger.Config(zoneID)
		if err != nil {
			log.Printf("scheduler: %v", err)
			continue
		}
		res := model.ETResult{
			Date:   date,
			ET0:    et0,
			Method: method,
			ETc:    et0 * cfg.Kc,
		}
		applied, err := s.ledger.ApplyET(zoneID, date, res, force)
		if err != nil {
			log.Printf("scheduler: apply ET to %s: %v", zoneID, err)
			continue
		}
		if !applied {
			log.Printf("scheduler: zone %s already has ET for %s, skipping", zoneID, date.Format("2006-01-02"))
		}
	}
	return nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nextMidnight(t time.Time) time.Time {
	return midnight(t).Add(24 * time.Hour)
}
