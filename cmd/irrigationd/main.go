package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gardenops/soil-balance/internal/api"
	"github.com/gardenops/soil-balance/internal/history"
	"github.com/gardenops/soil-balance/internal/ingest"
	"github.com/gardenops/soil-balance/internal/ledger"
	"github.com/gardenops/soil-balance/internal/model"
	"github.com/gardenops/soil-balance/internal/model/messages"
	"github.com/gardenops/soil-balance/internal/scheduler"
	"github.com/gardenops/soil-balance/internal/tracker"
	"github.com/gardenops/soil-balance/pkg/mqttbus"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64); err == nil {
			return f
		}
	}
	return def
}

func main() {
	cfg := struct {
		Mqtt mqttbus.Config

		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		ZonesFile string
		Site      model.Location
		TZ        string

		SampleTopics []string
		ValveTopics  []string
		BalanceTopic string // {zone} placeholder

		HTTPPort int
	}{
		Mqtt: mqttbus.Config{
			Host:     envStr("MQTT_HOST", "localhost"),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", "guest"),
			Password: envStr("MQTT_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "irrigationd"),
		},

		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "garden"),
		InfluxBucket: envStr("INFLUX_BUCKET", "weather"),

		ZonesFile: envStr("ZONES_FILE", "config/zones.json"),
		Site: model.Location{
			Latitude:  envFloat("SITE_LATITUDE", 0),
			Longitude: envFloat("SITE_LONGITUDE", 0),
			Elevation: envFloat("SITE_ELEVATION", 0),
		},
		TZ: envStr("TZ", "UTC"),

		SampleTopics: []string{"sensor/weather/#", "sensor/forecast/#"},
		ValveTopics:  []string{"event/valve/#"},
		BalanceTopic: envStr("BALANCE_TOPIC", "event/balance/{zone}"),

		HTTPPort: envInt("HTTP_PORT", 8080),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tz, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		log.Printf("WARN: invalid TZ=%q, falling back to local: %v", cfg.TZ, err)
		tz = time.Local
	}

	zones, err := model.LoadZones(cfg.ZonesFile)
	if err != nil {
		log.Fatalf("load zones: %v", err)
	}
	log.Printf("loaded %d zones from %s", len(zones), cfg.ZonesFile)

	store, err := history.NewStore(history.Config{
		URL:    cfg.InfluxURL,
		Token:  cfg.InfluxToken,
		Org:    cfg.InfluxOrg,
		Bucket: cfg.InfluxBucket,
	})
	if err != nil {
		log.Fatalf("history store: %v", err)
	}
	defer store.Close()

	client, err := mqttbus.Connect(&cfg.Mqtt, ctx)
	if err != nil {
		log.Fatalf("mqtt connection error: %v", err)
	}
	defer mqttbus.Close(client)

	publisher := mqttbus.NewPublisher(client)
	sink := func(evt messages.BalanceEvent) {
		topic := strings.ReplaceAll(cfg.BalanceTopic, "{zone}", evt.ZoneID)
		b, _ := json.Marshal(evt)
		if err := publisher.PublishQos(topic, 1, false, b); err != nil {
			log.Printf("publish balance event: %v", err)
		}
	}

	ldg := ledger.New(zones, sink)
	trk := tracker.New(ldg)

	samples := mqttbus.NewConsumer(client, cfg.SampleTopics, nil)
	valves := mqttbus.NewConsumer(client, cfg.ValveTopics, nil)
	ing := ingest.New(samples, valves, ldg, trk, store)
	go ing.Start(ctx)

	sched := scheduler.New(store, ldg, cfg.Site, tz)
	go sched.Start(ctx)

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           api.NewMux(ldg, sched, ing, client),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("irrigationd listening on %s", hs.Addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
