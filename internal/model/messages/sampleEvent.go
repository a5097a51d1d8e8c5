package messages

import (
	"time"

	"github.com/gardenops/soil-balance/internal/model"
)

// SampleEvent is the wire form of one raw sensor reading pushed on
// sensor/weather/{kind}. Values arrive unvalidated. Timestamp must be set
// by the publisher: inbound dedup hashes the raw payload to drop QoS1
// redeliveries, so a timestamp-less feed repeating the same value within
// the dedup TTL is indistinguishable from a redelivery and gets dropped.
type SampleEvent struct {
	EntityID  string           `json:"entity_id"`
	Kind      model.SampleKind `json:"kind"`
	Value     float64          `json:"value"`
	Timestamp time.Time        `json:"timestamp"`
}
