package model

import "time"

// SampleKind identifies one of the meteorological quantities the engine
// consumes. Precipitation is a cumulative counter, everything else is an
// instantaneous reading.
type SampleKind string

const (
	KindTemperature   SampleKind = "temperature"   // °C
	KindHumidity      SampleKind = "humidity"      // %
	KindPrecipitation SampleKind = "precipitation" // mm, cumulative
	KindWind          SampleKind = "wind"          // km/h
	KindSolar         SampleKind = "solar"         // W/m²
	KindPressure      SampleKind = "pressure"      // hPa
)

// Kinds lists every sample kind, required ones first.
var Kinds = []SampleKind{
	KindTemperature,
	KindHumidity,
	KindPrecipitation,
	KindWind,
	KindSolar,
	KindPressure,
}

// WeatherSample is one validated sensor reading. Immutable once validated.
type WeatherSample struct {
	Kind      SampleKind `json:"kind"`
	Value     float64    `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
}
