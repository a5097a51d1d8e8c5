// Package api is the HTTP surface: balance read/write, derived runtimes,
// the on-demand ET trigger and the usual health/metrics endpoints.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gardenops/soil-balance/internal/ingest"
	"github.com/gardenops/soil-balance/internal/ledger"
	"github.com/gardenops/soil-balance/internal/scheduler"
)

type App struct {
	ledger *ledger.Ledger
	sched  *scheduler.Scheduler
	ingest *ingest.Service
	mqtt   mqtt.Client
}

func NewMux(l *ledger.Ledger, s *scheduler.Scheduler, in *ingest.Service, client mqtt.Client) *http.ServeMux {
	app := &App{ledger: l, sched: s, ingest: in, mqtt: client}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/readyz", app.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/zones", app.handleZones)
	mux.HandleFunc("/zones/", app.handleZone)
	mux.HandleFunc("/calculate_et", app.handleCalculateET)
	return mux
}

func (a *App) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := a.mqtt != nil && a.mqtt.IsConnectionOpen()
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Ready bool `json:"ready"`
	}{ready})
}

type zonePayload struct {
	ID string `json:"id"`
	ledger.Snapshot
	Evaluation ledger.Evaluation `json:"evaluation"`
}

func (a *App) zonePayload(zoneID string) (zonePayload, error) {
	snap, err := a.ledger.Snapshot(zoneID)
	if err != nil {
		return zonePayload{}, err
	}
	ev, err := a.ledger.Evaluate(zoneID, a.forecastRain(), time.Now())
	if err != nil {
		return zonePayload{}, err
	}
	return zonePayload{ID: zoneID, Snapshot: snap, Evaluation: ev}, nil
}

func (a *App) forecastRain() float64 {
	if a.ingest == nil {
		return 0
	}
	return a.ingest.ForecastRain()
}

// GET /zones
func (a *App) handleZones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out := make([]zonePayload, 0)
	for _, id := range a.ledger.ZoneIDs() {
		p, err := a.zonePayload(id)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, out)
}

// /zones/{id}            GET  → snapshot + evaluation
// /zones/{id}/balance    PUT  → manual override
// /zones/{id}/runtime    GET  → derived runtimes only
func (a *App) handleZone(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/zones/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	zoneID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		p, err := a.zonePayload(zoneID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, p)

	case len(parts) == 2 && parts[1] == "balance" && r.Method == http.MethodPut:
		var body struct {
			Balance float64 `json:"balance_mm"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := a.ledger.SetBalance(zoneID, body.Balance); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("api: balance override for %s: %.2fmm", zoneID, body.Balance)
		p, err := a.zonePayload(zoneID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, p)

	case len(parts) == 2 && parts[1] == "runtime" && r.Method == http.MethodGet:
		ev, err := a.ledger.Evaluate(zoneID, a.forecastRain(), time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, ev)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /calculate_et?zone=<id>&force=true
// Runs the daily pipeline immediately for one or all zones. force makes a
// recompute for an already-applied date overwrite the prior value.
func (a *App) handleCalculateET(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	zoneID := strings.TrimSpace(q.Get("zone"))
	force := q.Get("force") == "true" || q.Get("force") == "1"

	if zoneID != "" {
		if _, err := a.ledger.Config(zoneID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var err error
	if zoneID != "" {
		err = a.sched.RunZone(ctx, zoneID, force)
	} else {
		err = a.sched.RunAll(ctx, force)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, struct {
		Triggered bool   `json:"triggered"`
		Zone      string `json:"zone,omitempty"`
		Force     bool   `json:"force"`
	}{true, zoneID, force})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
