// Package dedup drops QoS1 redeliveries by remembering payload hashes for
// a bounded time.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seen map[string]time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]time.Time, max)}
}

// SeenPayload hashes the raw payload and reports whether an identical one
// was already processed within the TTL. The first caller for a given
// payload gets false and claims it. A legitimate repeat of byte-identical
// bytes within the TTL is dropped too, so payloads need a distinguishing
// field such as a timestamp.
func (d *Deduper) SeenPayload(payload []byte) bool {
	h := sha256.Sum256(payload)
	id := hex.EncodeToString(h[:])

	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return true
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		for k, v := range d.seen {
			if now.After(v) {
				delete(d.seen, k)
			}
			if len(d.seen) <= d.max {
				break
			}
		}
	}
	return false
}
