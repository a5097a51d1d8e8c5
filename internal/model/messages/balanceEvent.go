package messages

import "time"

// BalanceEvent is republished on event/balance/{zone} after every balance
// mutation so dashboards can follow the ledger without polling.
type BalanceEvent struct {
	ZoneID    string    `json:"zone_id"`
	Balance   float64   `json:"balance_mm"`
	Cause     string    `json:"cause"` // rain | irrigation | et | override
	DeltaMM   float64   `json:"delta_mm"`
	Timestamp time.Time `json:"timestamp"`
}
