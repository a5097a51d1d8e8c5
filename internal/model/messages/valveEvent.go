package messages

import "time"

// ValveState is the reported sprinkler valve position.
type ValveState string

const (
	ValveOn  ValveState = "on"
	ValveOff ValveState = "off"
)

// ValveEvent is emitted on event/valve/{zone} whenever a sprinkler valve
// changes state.
type ValveEvent struct {
	ZoneID    string     `json:"zone_id"`
	State     ValveState `json:"state"`
	Timestamp time.Time  `json:"timestamp"`
}
