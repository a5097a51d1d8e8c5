// Package simulator feeds the engine without hardware: it publishes
// synthetic weather samples at a fixed cadence and can pulse a zone's
// valve to drive the irrigation path end to end.
package simulator

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/model/messages"
	"github.com/gardenops/soil-balance/pkg/mqttbus"
)

type Simulator struct {
	mu        sync.Mutex
	publisher mqttbus.IPublisher
	generator *Generator
	entityID  string
	timer     *time.Timer
}

func New(publisher mqttbus.IPublisher, gen *Generator, entityID string) *Simulator {
	return &Simulator{publisher: publisher, generator: gen, entityID: entityID}
}

// Start publishes one batch of samples per interval until ctx is
// cancelled.
func (s *Simulator) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.timer != nil {
				s.timer.Stop()
			}
			s.mu.Unlock()
			return
		case now := <-ticker.C:
			s.publishSamples(now)
		}
	}
}

func (s *Simulator) publishSamples(now time.Time) {
	for _, sample := range s.generator.Next(now.UTC()) {
		evt := messages.SampleEvent{
			EntityID:  s.entityID + "_" + string(sample.Kind),
			Kind:      sample.Kind,
			Value:     sample.Value,
			Timestamp: sample.Timestamp,
		}
		payload, _ := json.Marshal(evt)
		topic := "sensor/weather/" + string(sample.Kind)
		if err := s.publisher.PublishQos(topic, 1, false, payload); err != nil {
			log.Printf("simulator: publish %s: %v", topic, err)
		}
	}
}

// PulseValve publishes a valve-on for the zone and schedules the matching
// valve-off after d. A new pulse supersedes a pending off.
func (s *Simulator) PulseValve(zoneID string, d time.Duration) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.publishValve(zoneID, messages.ValveOn)
	log.Printf("simulator: valve on for zone %s, off in %s", zoneID, d)

	s.mu.Lock()
	s.timer = time.AfterFunc(d, func() {
		s.publishValve(zoneID, messages.ValveOff)
		log.Printf("simulator: valve off for zone %s", zoneID)
	})
	s.mu.Unlock()
}

func (s *Simulator) publishValve(zoneID string, state messages.ValveState) {
	evt := messages.ValveEvent{ZoneID: zoneID, State: state, Timestamp: time.Now().UTC()}
	payload, _ := json.Marshal(evt)
	if err := s.publisher.PublishQos("event/valve/"+zoneID, 1, false, payload); err != nil {
		log.Printf("simulator: publish valve event: %v", err)
	}
}

// ForecastRain publishes one forecasted-rain reading on the forecast
// topic.
func (s *Simulator) ForecastRain(mm float64) {
	evt := messages.SampleEvent{
		EntityID:  s.entityID + "_forecast",
		Kind:      model.KindPrecipitation,
		Value:     mm,
		Timestamp: time.Now().UTC(),
	}
	payload, _ := json.Marshal(evt)
	if err := s.publisher.PublishQos("sensor/forecast/rain", 1, false, payload); err != nil {
		log.Printf("simulator: publish forecast: %v", err)
	}
}
