// Package ingest dispatches the inbound MQTT streams: raw weather samples
// to validation, persistence and the live rainfall branch, valve
// transitions to the runtime tracker.
package ingest

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gardenops/soil-balance/internal/ledger"
	"github.com/gardenops/soil-balance/internal/metrics"
	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/model/messages"
	"github.com/gardenops/soil-balance/internal/tracker"
	"github.com/gardenops/soil-balance/internal/weather"
	"github.com/gardenops/soil-balance/pkg/dedup"
	"github.com/gardenops/soil-balance/pkg/mqttbus"
)

// SampleWriter persists validated samples for the daily window query.
type SampleWriter interface {
	WriteSample(ctx context.Context, entityID string, sample model.WeatherSample) error
}

// Service routes inbound events. Validation happens here, before anything
// can reach the ledger or the history store.
type Service struct {
	samples mqttbus.IConsumer[messages.SampleEvent]
	valves  mqttbus.IConsumer[messages.ValveEvent]
	ledger  *ledger.Ledger
	tracker *tracker.Tracker
	writer  SampleWriter
	deduper *dedup.Deduper

	mu           sync.Mutex
	lastPrecip   map[string]float64 // per entity, cumulative counter baseline
	latest       map[model.SampleKind]model.WeatherSample
	forecastRain float64
}

func New(
	samples mqttbus.IConsumer[messages.SampleEvent],
	valves mqttbus.IConsumer[messages.ValveEvent],
	l *ledger.Ledger,
	t *tracker.Tracker,
	w SampleWriter,
) *Service {
	return &Service{
		samples:    samples,
		valves:     valves,
		ledger:     l,
		tracker:    t,
		writer:     w,
		deduper:    dedup.New(10*time.Minute, 20000),
		lastPrecip: make(map[string]float64),
		latest:     make(map[model.SampleKind]model.WeatherSample),
	}
}

// Start injects the handlers and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.samples.SetHandler(func(topic string, msg mqtt.Message) error {
		return s.handleSample(ctx, topic, msg)
	})
	s.valves.SetHandler(s.handleValve)

	go s.samples.Consume(ctx)
	go s.valves.Consume(ctx)

	<-ctx.Done()
	s.tracker.DiscardOpenRuns()
}

func (s *Service) handleSample(ctx context.Context, topic string, msg mqtt.Message) error {
	// drop QoS1 redeliveries before unmarshalling
	if s.deduper.SeenPayload(msg.Payload()) {
		return nil
	}

	var evt messages.SampleEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		log.Printf("ingest: bad sample payload on %s: %v", topic, err)
		return nil
	}

	if strings.HasPrefix(topic, "sensor/forecast") {
		s.mu.Lock()
		s.forecastRain = math.Max(0, evt.Value)
		s.mu.Unlock()
		return nil
	}

	if err := weather.Validate(evt.Kind, evt.Value); err != nil {
		metrics.SamplesRejected.WithLabelValues(string(evt.Kind)).Inc()
		log.Printf("ingest: rejected %s sample from %s: %v", evt.Kind, evt.EntityID, err)
		return nil
	}

	sample := model.WeatherSample{Kind: evt.Kind, Value: evt.Value, Timestamp: evt.Timestamp}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	if evt.Kind == model.KindPrecipitation {
		s.applyRainfall(evt.EntityID, evt.Value)
	}

	s.mu.Lock()
	s.latest[evt.Kind] = sample
	s.mu.Unlock()

	if s.writer != nil {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.writer.WriteSample(wctx, evt.EntityID, sample); err != nil {
			log.Printf("ingest: persist %s sample: %v", evt.Kind, err)
		}
	}
	return nil
}

// applyRainfall diffs the cumulative counter against its previous reading
// and credits the increase to every zone. Jumps above the anomaly bound
// are discarded as sensor faults; decreases are counter rollovers, never
// negative rain. Either way the baseline advances to the new raw reading.
func (s *Service) applyRainfall(entityID string, reading float64) {
	s.mu.Lock()
	prev, have := s.lastPrecip[entityID]
	s.lastPrecip[entityID] = reading
	s.mu.Unlock()
	if !have {
		return
	}

	mm, ok := weather.CounterDelta(prev, reading)
	if !ok {
		metrics.AnomalousDeltas.Inc()
		log.Printf("ingest: anomalous precip jump %.1f→%.1f on %s, discarded", prev, reading, entityID)
		return
	}
	if mm <= 0 {
		return
	}

	log.Printf("ingest: rainfall %.2fmm detected", mm)
	for _, zoneID := range s.ledger.ZoneIDs() {
		if err := s.ledger.AddRain(zoneID, mm); err != nil {
			log.Printf("ingest: add rain to %s: %v", zoneID, err)
		}
	}
}

func (s *Service) handleValve(topic string, msg mqtt.Message) error {
	if s.deduper.SeenPayload(msg.Payload()) {
		return nil
	}

	var evt messages.ValveEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		log.Printf("ingest: bad valve payload on %s: %v", topic, err)
		return nil
	}
	if evt.ZoneID == "" {
		// topic form event/valve/{zone}
		if parts := strings.Split(topic, "/"); len(parts) >= 3 {
			evt.ZoneID = parts[2]
		}
	}
	if err := s.tracker.HandleValve(evt); err != nil {
		log.Printf("ingest: valve event for %s: %v", evt.ZoneID, err)
	}
	return nil
}

// ForecastRain returns the latest forecasted rain input, 0 when none was
// ever received.
func (s *Service) ForecastRain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forecastRain
}

// LatestSamples returns a read-only snapshot of the most recent validated
// reading per kind.
func (s *Service) LatestSamples() map[model.SampleKind]model.WeatherSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.SampleKind]model.WeatherSample, len(s.latest))
	for k, v := range s.latest {
		out[k] = v
	}
	return out
}
