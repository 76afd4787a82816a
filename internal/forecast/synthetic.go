package forecast

import (
	"math"
	"time"
)

// SyntheticConfig describes a generated forecast set.
type SyntheticConfig struct {
	MSACode      string
	HorizonYears int
	Regime       string  // mild, boom, stress
	WidthScale   float64 // multiplies interval widths; 0 yields point forecasts
	StartYear    int
	Now          time.Time
}

type baseline struct {
	value float64
	width float64
	trend float64
}

var mildBaselines = map[string]baseline{
	Treasury10Y:            {0.042, 0.010, -0.0010},
	CommercialMortgageRate: {0.065, 0.012, -0.0010},
	FedFundsRate:           {0.045, 0.015, -0.0025},
	CapRate:                {0.058, 0.008, 0.0005},
	VacancyRate:            {0.065, 0.020, 0.0010},
	RentGrowth:             {0.030, 0.020, -0.0010},
	ExpenseGrowth:          {0.028, 0.010, 0.0000},
	LTVRatio:               {0.700, 0.050, 0.0000},
	ClosingCostPct:         {0.025, 0.005, 0.0000},
	LenderReserves:         {0.030, 0.010, 0.0000},
	PropertyGrowth:         {0.040, 0.030, -0.0020},
}

var regimeShifts = map[string]map[string]float64{
	"boom": {
		RentGrowth:     0.020,
		PropertyGrowth: 0.030,
		CapRate:        -0.006,
		VacancyRate:    -0.020,
		LTVRatio:       0.050,
	},
	"stress": {
		Treasury10Y:            0.015,
		CommercialMortgageRate: 0.020,
		FedFundsRate:           0.015,
		CapRate:                0.015,
		VacancyRate:            0.040,
		RentGrowth:             -0.030,
		PropertyGrowth:         -0.050,
		LTVRatio:               -0.080,
	},
}

// GenerateSynthetic produces a complete, deterministic 11-parameter forecast set.
// Interval widths widen with the square root of the forecast year.
func GenerateSynthetic(cfg SyntheticConfig) *ForecastSet {
	if cfg.HorizonYears <= 0 {
		cfg.HorizonYears = 5
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.StartYear == 0 {
		cfg.StartYear = cfg.Now.Year() + 1
	}

	shifts := regimeShifts[cfg.Regime]
	set := &ForecastSet{
		MSACode:      cfg.MSACode,
		HorizonYears: cfg.HorizonYears,
		Curves:       make(map[ParameterID]ForecastCurve, len(CanonicalParameters)),
		GeneratedAt:  cfg.Now,
	}

	for _, name := range CanonicalParameters {
		b := mildBaselines[name]
		level := b.value + shifts[name]
		points := make([]ForecastPoint, cfg.HorizonYears)
		for y := 0; y < cfg.HorizonYears; y++ {
			v := level + b.trend*float64(y)
			half := cfg.WidthScale * b.width * math.Sqrt(float64(y+1)) / 2
			points[y] = ForecastPoint{
				Year:  cfg.StartYear + y,
				Value: v,
				Lower: v - half,
				Upper: v + half,
			}
		}
		id := CanonicalID(name, cfg.MSACode)
		set.Curves[id] = ForecastCurve{Parameter: id, Points: points}
	}
	return set
}

// Without returns a copy of the set lacking the named parameters.
func (s *ForecastSet) Without(names ...string) *ForecastSet {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &ForecastSet{
		MSACode:      s.MSACode,
		HorizonYears: s.HorizonYears,
		Curves:       make(map[ParameterID]ForecastCurve, len(s.Curves)),
		GeneratedAt:  s.GeneratedAt,
	}
	for id, c := range s.Curves {
		if !drop[id.Name] {
			out.Curves[id] = c
		}
	}
	return out
}
