package model

import "time"

// IrrigationRun is one valve-on→valve-off interval. It exists only
// between the two edges; the derived water credit is
// DurationSeconds/3600 × the zone's precipitation rate.
type IrrigationRun struct {
	ID              string    `json:"id"`
	ZoneID          string    `json:"zone_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_seconds"`
}
