package et

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenops/soil-balance/internal/model"
)

func summerAggregate() model.DailyAggregate {
	start := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	return model.DailyAggregate{
		WindowStart: start,
		WindowEnd:   start.Add(24 * time.Hour),

		TempMean: 24, TempMin: 16, TempMax: 32, TempN: 48,
		HumidityMean: 55, HumidityN: 48,
	}
}

func withWind(agg model.DailyAggregate) model.DailyAggregate {
	agg.WindMean = 10 // km/h
	agg.WindN = 24
	return agg
}

func withSolar(agg model.DailyAggregate) model.DailyAggregate {
	agg.SolarMean = 250 // W/m² daily mean
	agg.SolarN = 24
	return agg
}

func TestSelectMethodTable(t *testing.T) {
	cases := []struct {
		name string
		agg  model.DailyAggregate
		want model.ETMethod
	}{
		{"wind and solar", withWind(withSolar(summerAggregate())), model.MethodPenmanMonteith},
		{"solar only", withSolar(summerAggregate()), model.MethodPriestleyTaylor},
		{"wind only", withWind(summerAggregate()), model.MethodPriestleyTaylor},
		{"neither", summerAggregate(), model.MethodHargreaves},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectMethod(tc.agg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSelectMethodDependsOnPresenceNotValues(t *testing.T) {
	calm := withWind(withSolar(summerAggregate()))
	calm.WindMean = 0
	calm.SolarMean = 0

	got, err := SelectMethod(calm)
	require.NoError(t, err)
	assert.Equal(t, model.MethodPenmanMonteith, got, "zero-valued readings still count as present")
}

func TestSelectMethodInsufficientData(t *testing.T) {
	noHumidity := summerAggregate()
	noHumidity.HumidityN = 0
	_, err := SelectMethod(noHumidity)
	assert.ErrorIs(t, err, ErrInsufficientData)

	noTemp := summerAggregate()
	noTemp.TempN = 0
	_, err = SelectMethod(noTemp)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

var site = model.Location{Latitude: 43.7, Longitude: 11.2, Elevation: 50}

func TestComputePenmanMonteithSummerDay(t *testing.T) {
	agg := withWind(withSolar(summerAggregate()))

	et0, err := Compute(agg, site, model.MethodPenmanMonteith)
	require.NoError(t, err)

	// A warm, sunny, breezy mid-July day lands solidly in the
	// reference-crop range.
	assert.Greater(t, et0, 3.0)
	assert.Less(t, et0, 9.0)
}

func TestComputePriestleyTaylorWithoutSolar(t *testing.T) {
	agg := withWind(summerAggregate())

	et0, err := Compute(agg, site, model.MethodPriestleyTaylor)
	require.NoError(t, err)
	assert.Greater(t, et0, 1.0)
	assert.Less(t, et0, 9.0)
}

func TestComputeHargreavesTempOnly(t *testing.T) {
	agg := summerAggregate()

	et0, err := Compute(agg, site, model.MethodHargreaves)
	require.NoError(t, err)
	assert.Greater(t, et0, 1.0)
	assert.Less(t, et0, 9.0)
}

func TestComputeHargreavesZeroRange(t *testing.T) {
	agg := summerAggregate()
	agg.TempMin = agg.TempMean
	agg.TempMax = agg.TempMean

	et0, err := Compute(agg, site, model.MethodHargreaves)
	require.NoError(t, err)
	assert.Zero(t, et0, "a flat diurnal range estimates no ET")
}

func TestComputeNeverNegative(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	agg := model.DailyAggregate{
		WindowStart: start,
		WindowEnd:   start.Add(24 * time.Hour),
		TempMean:    -5, TempMin: -12, TempMax: 1, TempN: 48,
		HumidityMean: 95, HumidityN: 48,
		WindMean: 2, WindN: 24,
		SolarMean: 15, SolarN: 24,
	}

	for _, m := range []model.ETMethod{model.MethodPenmanMonteith, model.MethodPriestleyTaylor, model.MethodHargreaves} {
		et0, err := Compute(agg, site, m)
		require.NoError(t, err, m)
		assert.GreaterOrEqual(t, et0, 0.0, m)
	}
}

func TestComputeInsufficientData(t *testing.T) {
	agg := summerAggregate()
	agg.HumidityN = 0

	_, err := Compute(agg, site, model.MethodPenmanMonteith)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeUnknownMethod(t *testing.T) {
	_, err := Compute(summerAggregate(), site, model.ETMethod("makkink"))
	assert.Error(t, err)
}

func TestExtraterrestrialRadiation(t *testing.T) {
	// FAO-56 example 8: 20°S on 3 September gives Ra ≈ 32.2 MJ/m²/day.
	ra := extraterrestrialRadiation(-20, 246)
	assert.InDelta(t, 32.2, ra, 0.3)

	// Polar night must not NaN out.
	winter := extraterrestrialRadiation(80, 355)
	assert.False(t, winter < 0 || winter != winter)
}

func TestSatVP(t *testing.T) {
	// FAO-56 table 2.3: e°(25) ≈ 3.168 kPa.
	assert.InDelta(t, 3.168, satVP(25), 0.01)
}
