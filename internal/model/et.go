package model

import "time"

// ETMethod names one of the supported reference-ET formulas.
type ETMethod string

const (
	MethodPenmanMonteith  ETMethod = "penman_monteith"
	MethodPriestleyTaylor ETMethod = "priestley_taylor"
	MethodHargreaves      ETMethod = "hargreaves"
)

// ETResult is one computed reference ET for a zone on a given date.
type ETResult struct {
	Date   time.Time `json:"date"`
	ET0    float64   `json:"et0_mm"`
	Method ETMethod  `json:"method"`
	ETc    float64   `json:"etc_mm"` // ET0 × Kc, the value subtracted
}
