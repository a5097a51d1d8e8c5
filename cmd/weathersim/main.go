package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gardenops/soil-balance/internal/simulator"
	"github.com/gardenops/soil-balance/pkg/mqttbus"
)

func main() {
	host := flag.String("host", "localhost", "MQTT broker host")
	port := flag.Int("port", 1883, "MQTT broker port")
	user := flag.String("user", "guest", "MQTT username")
	password := flag.String("password", "guest", "MQTT password")
	clientID := flag.String("client-id", "weathersim", "MQTT client ID")
	entityID := flag.String("entity-id", "sim.station", "entity id prefix for published samples")
	interval := flag.Duration("interval", 30*time.Second, "publish interval")
	seed := flag.Int64("seed", time.Now().UnixNano(), "RNG seed")
	pulseZone := flag.String("pulse-zone", "", "zone to pulse a valve run for at startup")
	pulseFor := flag.Duration("pulse-for", 10*time.Minute, "valve pulse duration")
	forecast := flag.Float64("forecast", -1, "forecasted rain in mm to publish at startup, <0 to skip")
	flag.Parse()

	cfg := &mqttbus.Config{
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *password,
		ClientID: *clientID,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := mqttbus.Connect(cfg, ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer mqttbus.Close(client)

	sim := simulator.New(mqttbus.NewPublisher(client), simulator.NewGenerator(*seed), *entityID)

	if *forecast >= 0 {
		sim.ForecastRain(*forecast)
	}
	if *pulseZone != "" {
		sim.PulseValve(*pulseZone, *pulseFor)
	}

	log.Printf("weathersim: publishing as %s every %s", *entityID, *interval)
	sim.Start(ctx, *interval)
}
