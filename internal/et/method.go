package et

import (
	"errors"

	"github.com/gardenops/soil-balance/internal/model"
)

// ErrInsufficientData signals that temperature or humidity never reported
// in the window: no method can run, the day must be skipped (not
// zero-filled).
var ErrInsufficientData = errors.New("temperature or humidity missing from daily aggregate")

// SelectMethod picks the reference-ET formula for a given daily aggregate.
// The choice depends only on which optional fields are present, never on
// their values. Wind alone does not unlock Penman-Monteith: without solar
// radiation the radiation term would dominate the error, so the wind term
// is dropped too.
func SelectMethod(agg model.DailyAggregate) (model.ETMethod, error) {
	if !agg.Usable() {
		return "", ErrInsufficientData
	}
	switch {
	case agg.HasWind() && agg.HasSolar():
		return model.MethodPenmanMonteith, nil
	case agg.HasSolar():
		return model.MethodPriestleyTaylor, nil
	case agg.HasWind():
		return model.MethodPriestleyTaylor, nil
	default:
		return model.MethodHargreaves, nil
	}
}
