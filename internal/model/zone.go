package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Kc bounds accepted at load time.
const (
	KcMin = 0.4
	KcMax = 2.0
)

// Location is the static site position used for radiation terms.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"` // meters
}

// ZoneConfig holds the immutable per-zone parameters. Runtime limits and
// the minimum interval are optional; zero means unconstrained.
type ZoneConfig struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	SprinklerEntity string  `json:"sprinkler_entity"`
	PrecipRate      float64 `json:"precipitation_rate"` // mm/hour
	Kc              float64 `json:"crop_coefficient"`
	MinRuntime      float64 `json:"min_runtime"`      // seconds
	MaxRuntime      float64 `json:"max_runtime"`      // seconds
	MinimumInterval float64 `json:"minimum_interval"` // seconds between runs
}

// LoadZones reads the zone configuration file. It accepts numeric fields as
// numbers or strings and tolerates the "precip_rate"/"kc" aliases used by
// older config files.
func LoadZones(path string) (map[string]ZoneConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	out := make(map[string]ZoneConfig, len(list))
	for i, rec := range list {
		var z ZoneConfig
		if v, ok := rec["id"].(string); ok {
			z.ID = v
		}
		if z.ID == "" {
			z.ID = fmt.Sprintf("zone_%d", i)
		}
		if v, ok := rec["name"].(string); ok {
			z.Name = v
		}
		if z.Name == "" {
			z.Name = fmt.Sprintf("Zone %d", i+1)
		}
		if v, ok := rec["sprinkler_entity"].(string); ok {
			z.SprinklerEntity = v
		}

		z.PrecipRate = toF64(rec["precipitation_rate"])
		if z.PrecipRate == 0 {
			z.PrecipRate = toF64(rec["precip_rate"])
		}
		if z.PrecipRate <= 0 {
			return nil, fmt.Errorf("zone %s: precipitation_rate must be > 0", z.ID)
		}

		z.Kc = toF64(rec["crop_coefficient"])
		if z.Kc == 0 {
			z.Kc = toF64(rec["kc"])
		}
		if z.Kc == 0 {
			z.Kc = 1.0
		}
		if z.Kc < KcMin || z.Kc > KcMax {
			return nil, fmt.Errorf("zone %s: crop_coefficient %.2f outside [%.1f, %.1f]", z.ID, z.Kc, KcMin, KcMax)
		}

		z.MinRuntime = toF64(rec["min_runtime"])
		z.MaxRuntime = toF64(rec["max_runtime"])
		z.MinimumInterval = toF64(rec["minimum_interval"])
		if z.MaxRuntime > 0 && z.MaxRuntime < z.MinRuntime {
			return nil, fmt.Errorf("zone %s: max_runtime < min_runtime", z.ID)
		}

		if _, dup := out[z.ID]; dup {
			return nil, fmt.Errorf("duplicate zone id %s", z.ID)
		}
		out[z.ID] = z
	}
	return out, nil
}

// toF64 converts ints/floats/strings coming out of a generic JSON map.
func toF64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", "."), 64); err == nil {
			return f
		}
	}
	return 0
}
