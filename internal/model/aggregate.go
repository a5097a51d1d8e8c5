package model

import "time"

// DailyAggregate summarizes one trailing-24h window of validated samples.
// Optional fields carry a sample count of zero when the sensor never
// reported in the window; callers must check the count before reading the
// mean.
type DailyAggregate struct {
	WindowStart time.Time
	WindowEnd   time.Time

	TempMean float64
	TempMin  float64
	TempMax  float64
	TempN    int

	HumidityMean float64
	HumidityN    int

	// PrecipTotal is the sum of positive counter increases in the window,
	// not a mean.
	PrecipTotal float64
	PrecipN     int

	WindMean float64
	WindN    int

	SolarMean float64
	SolarN    int

	PressureMean float64
	PressureN    int
}

// HasWind reports whether any wind sample was observed in the window.
func (a DailyAggregate) HasWind() bool { return a.WindN > 0 }

// HasSolar reports whether any solar sample was observed in the window.
func (a DailyAggregate) HasSolar() bool { return a.SolarN > 0 }

// HasPressure reports whether any pressure sample was observed in the window.
func (a DailyAggregate) HasPressure() bool { return a.PressureN > 0 }

// Usable reports whether the aggregate can feed an ET computation: both
// required fields must have at least one sample.
func (a DailyAggregate) Usable() bool { return a.TempN > 0 && a.HumidityN > 0 }
