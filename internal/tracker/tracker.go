// Package tracker converts sprinkler valve transitions into applied-water
// deltas for the ledger.
package tracker

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gardenops/soil-balance/internal/ledger"
	"github.com/gardenops/soil-balance/internal/metrics"
	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/model/messages"
)

// Tracker observes valve state transitions per zone. A rising edge opens
// an IrrigationRun, the matching falling edge closes it and credits
// duration_hours × precipitation_rate to the zone balance. Runs live only
// in memory: an open run that never sees its falling edge is discarded,
// never guessed at.
type Tracker struct {
	mu     sync.Mutex
	open   map[string]model.IrrigationRun
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Tracker {
	return &Tracker{open: make(map[string]model.IrrigationRun), ledger: l}
}

// HandleValve applies one valve transition.
func (t *Tracker) HandleValve(evt messages.ValveEvent) error {
	cfg, err := t.ledger.Config(evt.ZoneID)
	if err != nil {
		return err
	}
	at := evt.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	switch evt.State {
	case messages.ValveOn:
		t.mu.Lock()
		if run, ok := t.open[evt.ZoneID]; ok {
			// Duplicate rising edge: one valve per zone, so extend the
			// existing run instead of opening a second one.
			t.mu.Unlock()
			log.Printf("tracker: duplicate valve-on for zone %s, extending run %s (open since %s)",
				evt.ZoneID, run.ID, run.Start.Format(time.RFC3339))
			return nil
		}
		t.open[evt.ZoneID] = model.IrrigationRun{
			ID:     uuid.New().String(),
			ZoneID: evt.ZoneID,
			Start:  at,
		}
		t.mu.Unlock()
		log.Printf("tracker: valve on for zone %s", evt.ZoneID)
		return nil

	case messages.ValveOff:
		t.mu.Lock()
		run, ok := t.open[evt.ZoneID]
		if ok {
			delete(t.open, evt.ZoneID)
		}
		t.mu.Unlock()
		if !ok {
			log.Printf("tracker: valve-off for zone %s with no open run, nothing credited", evt.ZoneID)
			return nil
		}

		run.End = at
		run.DurationSeconds = run.End.Sub(run.Start).Seconds()
		if run.DurationSeconds < 0 {
			run.DurationSeconds = 0
		}
		water := run.DurationSeconds / 3600 * cfg.PrecipRate

		if err := t.ledger.AddIrrigation(evt.ZoneID, water); err != nil {
			return err
		}
		if err := t.ledger.RecordValveOff(evt.ZoneID, at, run.DurationSeconds); err != nil {
			return err
		}
		log.Printf("tracker: zone %s run %s closed, runtime=%.0fs water=%.2fmm",
			evt.ZoneID, run.ID, run.DurationSeconds, water)
		return nil
	}

	log.Printf("tracker: ignoring valve event with state %q for zone %s", evt.State, evt.ZoneID)
	return nil
}

// DiscardOpenRuns drops every run still open, logging each one. Called on
// shutdown; mid-run state cannot be trusted across process failures, so no
// partial credit is given.
func (t *Tracker) DiscardOpenRuns() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for zoneID, run := range t.open {
		metrics.IncompleteRuns.Inc()
		log.Printf("tracker: discarding incomplete run %s for zone %s (open since %s)",
			run.ID, zoneID, run.Start.Format(time.RFC3339))
		delete(t.open, zoneID)
	}
}

// OpenRun reports the in-flight run for a zone, if any.
func (t *Tracker) OpenRun(zoneID string) (model.IrrigationRun, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, ok := t.open[zoneID]
	return run, ok
}
