package et

import (
	"fmt"
	"math"

	"github.com/gardenops/soil-balance/internal/model"
)

// FAO-56 constants.
const (
	solarConstant   = 0.0820   // MJ m⁻² min⁻¹
	stefanBoltzmann = 4.903e-9 // MJ K⁻⁴ m⁻² day⁻¹
	albedo          = 0.23
	ptAlpha         = 1.26 // Priestley-Taylor coefficient
	mjToMM          = 0.408
)

// Compute evaluates the selected formula over one daily aggregate and
// returns reference ET in mm/day, always ≥ 0. Optional inputs degrade
// gracefully: missing pressure falls back to the standard atmosphere at
// the site elevation, and missing solar under Priestley-Taylor is
// estimated from the diurnal temperature range. Only an unusable aggregate
// is an error.
func Compute(agg model.DailyAggregate, loc model.Location, method model.ETMethod) (float64, error) {
	if !agg.Usable() {
		return 0, ErrInsufficientData
	}

	doy := agg.WindowStart.YearDay()
	ra := extraterrestrialRadiation(loc.Latitude, doy)

	var et0 float64
	switch method {
	case model.MethodPenmanMonteith:
		et0 = penmanMonteith(agg, loc, ra)
	case model.MethodPriestleyTaylor:
		et0 = priestleyTaylor(agg, loc, ra)
	case model.MethodHargreaves:
		et0 = hargreaves(agg, ra)
	default:
		return 0, fmt.Errorf("unknown ET method %q", method)
	}

	return math.Max(0, et0), nil
}

// penmanMonteith is the FAO-56 combination equation with soil heat flux
// G = 0 over the daily step and wind assumed measured at 2m.
func penmanMonteith(agg model.DailyAggregate, loc model.Location, ra float64) float64 {
	t := agg.TempMean
	delta := slopeVP(t)
	p := pressureKPa(agg, loc.Elevation)
	gamma := 0.000665 * p
	es := satVP(t)
	ea := es * agg.HumidityMean / 100
	u2 := agg.WindMean / 3.6 // km/h → m/s

	rs := solarMJ(agg)
	rn := netRadiation(rs, ra, agg, ea, loc.Elevation)

	num := mjToMM*delta*rn + gamma*(900/(t+273))*u2*(es-ea)
	den := delta + gamma*(1+0.34*u2)
	return num / den
}

// priestleyTaylor drops the aerodynamic term. When the solar sensor never
// reported, Rs is estimated from the diurnal temperature range
// (Hargreaves radiation formula) so a wind-only site still computes.
func priestleyTaylor(agg model.DailyAggregate, loc model.Location, ra float64) float64 {
	t := agg.TempMean
	delta := slopeVP(t)
	p := pressureKPa(agg, loc.Elevation)
	gamma := 0.000665 * p
	ea := satVP(t) * agg.HumidityMean / 100

	var rs float64
	if agg.HasSolar() {
		rs = solarMJ(agg)
	} else {
		rs = 0.16 * math.Sqrt(math.Max(agg.TempMax-agg.TempMin, 0)) * ra
	}
	rn := netRadiation(rs, ra, agg, ea, loc.Elevation)

	return ptAlpha * (delta / (delta + gamma)) * rn * mjToMM
}

// hargreaves needs only temperature extremes and extraterrestrial
// radiation. With a single temperature sample the range is zero and so is
// the estimate.
func hargreaves(agg model.DailyAggregate, ra float64) float64 {
	tr := math.Max(agg.TempMax-agg.TempMin, 0)
	return 0.0023 * (agg.TempMean + 17.8) * math.Sqrt(tr) * ra * mjToMM
}

// satVP is saturation vapour pressure in kPa at temperature t (°C).
func satVP(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// slopeVP is the slope of the vapour pressure curve in kPa/°C.
func slopeVP(t float64) float64 {
	es := satVP(t)
	return 4098 * es / math.Pow(t+237.3, 2)
}

// pressureKPa uses the observed mean when the sensor reported, otherwise
// the standard atmosphere at the site elevation.
func pressureKPa(agg model.DailyAggregate, elevation float64) float64 {
	if agg.HasPressure() {
		return agg.PressureMean / 10 // hPa → kPa
	}
	return 101.3 * math.Pow((293-0.0065*elevation)/293, 5.26)
}

// solarMJ converts the daily mean irradiance (W/m²) to MJ m⁻² day⁻¹.
func solarMJ(agg model.DailyAggregate) float64 {
	return agg.SolarMean * 0.0864
}

// netRadiation is net shortwave minus net longwave. The clear-sky ratio is
// clamped to [0.3, 1] so a dark or noisy day cannot flip the sign of the
// longwave term.
func netRadiation(rs, ra float64, agg model.DailyAggregate, ea, elevation float64) float64 {
	rns := (1 - albedo) * rs

	rso := (0.75 + 2e-5*elevation) * ra
	ratio := 0.5
	if rso > 0 {
		ratio = math.Min(math.Max(rs/rso, 0.3), 1)
	}

	tmaxK := agg.TempMax + 273.16
	tminK := agg.TempMin + 273.16
	rnl := stefanBoltzmann * (math.Pow(tmaxK, 4) + math.Pow(tminK, 4)) / 2 *
		(0.34 - 0.14*math.Sqrt(math.Max(ea, 0))) * (1.35*ratio - 0.35)

	return rns - rnl
}

// extraterrestrialRadiation is Ra in MJ m⁻² day⁻¹ for a latitude (degrees)
// and day of year, per FAO-56 eq. 21. The sunset hour angle argument is
// clamped for polar latitudes.
func extraterrestrialRadiation(latitude float64, doy int) float64 {
	phi := latitude * math.Pi / 180
	dr := 1 + 0.033*math.Cos(2*math.Pi/365*float64(doy))
	decl := 0.409 * math.Sin(2*math.Pi/365*float64(doy)-1.39)

	x := -math.Tan(phi) * math.Tan(decl)
	x = math.Min(math.Max(x, -1), 1)
	ws := math.Acos(x)

	return 24 * 60 / math.Pi * solarConstant * dr *
		(ws*math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Sin(ws))
}
