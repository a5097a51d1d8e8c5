package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenPayload(t *testing.T) {
	d := New(time.Minute, 100)

	payload := []byte(`{"zone":"lawn","state":"on"}`)
	assert.False(t, d.SeenPayload(payload), "first delivery claims the payload")
	assert.True(t, d.SeenPayload(payload), "redelivery is dropped")
	assert.False(t, d.SeenPayload([]byte(`{"zone":"lawn","state":"off"}`)))
}

func TestSeenPayloadExpires(t *testing.T) {
	d := New(10*time.Millisecond, 100)

	payload := []byte("reading")
	assert.False(t, d.SeenPayload(payload))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, d.SeenPayload(payload), "expired entries are processed again")
}

func TestCapEvictsExpired(t *testing.T) {
	d := New(time.Nanosecond, 4)

	for i := byte(0); i < 20; i++ {
		d.SeenPayload([]byte{i})
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	assert.LessOrEqual(t, len(d.seen), 5)
}
