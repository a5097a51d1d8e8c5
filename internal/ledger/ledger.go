package ledger

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gardenops/soil-balance/internal/metrics"
	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/model/messages"
)

// EventSink receives a copy of every balance mutation, typically to
// republish on the bus. May be nil. It runs with the zone's mutex held,
// so events arrive in mutation order; the sink must not call back into
// the ledger.
type EventSink func(messages.BalanceEvent)

// zone is the ledger-owned state for one irrigation zone. Its mutex
// serializes every balance mutation; callers compute deltas before taking
// it. The gauge update and the sink call happen under the mutex so
// subscribers see balance events in mutation order and the gauge never
// lands on a stale value.
type zone struct {
	mu  sync.Mutex
	cfg model.ZoneConfig

	balance      float64
	lastETDate   string // "2006-01-02", empty until the first application
	lastET       model.ETResult
	lastRainfall float64
	runtimeToday float64 // seconds, reset by the daily ET application
	lastOff      time.Time
	hasLastOff   bool
}

// Ledger is the single point of mutation for per-zone balance state.
// Cross-zone operations proceed fully in parallel.
type Ledger struct {
	mu    sync.RWMutex
	zones map[string]*zone
	sink  EventSink
}

// New builds a ledger with one entry per configured zone, all starting at
// the optimal balance of 0mm.
func New(cfgs map[string]model.ZoneConfig, sink EventSink) *Ledger {
	l := &Ledger{zones: make(map[string]*zone, len(cfgs)), sink: sink}
	for id, cfg := range cfgs {
		l.zones[id] = &zone{cfg: cfg}
		metrics.ZoneBalance.WithLabelValues(id).Set(0)
	}
	return l
}

func (l *Ledger) get(zoneID string) (*zone, error) {
	l.mu.RLock()
	z, ok := l.zones[zoneID]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown zone %q", zoneID)
	}
	return z, nil
}

// ZoneIDs returns the configured zone identifiers.
func (l *Ledger) ZoneIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.zones))
	for id := range l.zones {
		out = append(out, id)
	}
	return out
}

// Config returns the immutable configuration for a zone.
func (l *Ledger) Config(zoneID string) (model.ZoneConfig, error) {
	z, err := l.get(zoneID)
	if err != nil {
		return model.ZoneConfig{}, err
	}
	return z.cfg, nil
}

// AddRain credits rainfall to a zone. Excess is allowed to grow unbounded.
func (l *Ledger) AddRain(zoneID string, mm float64) error {
	z, err := l.get(zoneID)
	if err != nil {
		return err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.balance += mm
	z.lastRainfall = mm

	metrics.ZoneBalance.WithLabelValues(zoneID).Set(z.balance)
	metrics.FluxApplied.WithLabelValues(zoneID, "rain").Add(mm)
	l.emit(zoneID, z.balance, "rain", mm)
	return nil
}

// AddIrrigation credits applied water from a closed irrigation run.
func (l *Ledger) AddIrrigation(zoneID string, mm float64) error {
	z, err := l.get(zoneID)
	if err != nil {
		return err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.balance += mm

	metrics.ZoneBalance.WithLabelValues(zoneID).Set(z.balance)
	metrics.FluxApplied.WithLabelValues(zoneID, "irrigation").Add(mm)
	l.emit(zoneID, z.balance, "irrigation", mm)
	return nil
}

// RecordValveOff books the runtime of a finished run and remembers when
// the valve closed, for the minimum-interval constraint.
func (l *Ledger) RecordValveOff(zoneID string, off time.Time, runtimeSeconds float64) error {
	z, err := l.get(zoneID)
	if err != nil {
		return err
	}
	z.mu.Lock()
	z.runtimeToday += runtimeSeconds
	z.lastOff = off
	z.hasLastOff = true
	z.mu.Unlock()
	return nil
}

// ApplyET subtracts one day's crop-adjusted ET exactly once per calendar
// date. A repeat call for the same date is a no-op unless force is set, in
// which case the previously applied value is added back first so a
// recompute overwrites instead of stacking. The first application for a
// date also closes out the daily runtime counter.
func (l *Ledger) ApplyET(zoneID string, date time.Time, res model.ETResult, force bool) (bool, error) {
	z, err := l.get(zoneID)
	if err != nil {
		return false, err
	}
	key := date.Format("2006-01-02")

	z.mu.Lock()
	if z.lastETDate == key && !force {
		z.mu.Unlock()
		return false, nil
	}
	delta := -res.ETc
	if z.lastETDate == key && force {
		// overwrite: undo the prior subtraction for this date
		z.balance += z.lastET.ETc
		delta = z.lastET.ETc - res.ETc
	} else {
		z.runtimeToday = 0
	}
	z.balance -= res.ETc
	z.lastETDate = key
	z.lastET = res

	metrics.ZoneBalance.WithLabelValues(zoneID).Set(z.balance)
	metrics.FluxApplied.WithLabelValues(zoneID, "et").Add(res.ETc)
	l.emit(zoneID, z.balance, "et", delta)
	bal := z.balance
	z.mu.Unlock()
	log.Printf("ledger: zone %s ET %.2fmm (%s) applied for %s, balance=%.2fmm", zoneID, res.ETc, res.Method, key, bal)
	return true, nil
}

// SetBalance is the unconditional user override. It does not touch the
// per-day ET guard: the override states the balance as of now, and
// re-subtracting an already-applied day would double-count the loss.
func (l *Ledger) SetBalance(zoneID string, mm float64) error {
	z, err := l.get(zoneID)
	if err != nil {
		return err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	delta := mm - z.balance
	z.balance = mm

	metrics.ZoneBalance.WithLabelValues(zoneID).Set(mm)
	l.emit(zoneID, mm, "override", delta)
	return nil
}

// Balance returns the current signed balance in mm.
func (l *Ledger) Balance(zoneID string) (float64, error) {
	z, err := l.get(zoneID)
	if err != nil {
		return 0, err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.balance, nil
}

// RequiredRuntimeSeconds is the runtime needed to return the zone to the
// optimal balance: max(0, -balance) / rate × 3600. Zero for any balance
// ≥ 0.
func (l *Ledger) RequiredRuntimeSeconds(zoneID string) (float64, error) {
	z, err := l.get(zoneID)
	if err != nil {
		return 0, err
	}
	z.mu.Lock()
	bal := z.balance
	z.mu.Unlock()
	return requiredRuntime(bal, z.cfg.PrecipRate), nil
}

func requiredRuntime(balance, rate float64) float64 {
	deficit := math.Max(0, -balance)
	if deficit == 0 || rate <= 0 {
		return 0
	}
	return deficit / rate * 3600
}

func (l *Ledger) emit(zoneID string, balance float64, cause string, delta float64) {
	if l.sink == nil {
		return
	}
	l.sink(messages.BalanceEvent{
		ZoneID:    zoneID,
		Balance:   balance,
		Cause:     cause,
		DeltaMM:   delta,
		Timestamp: time.Now().UTC(),
	})
}
