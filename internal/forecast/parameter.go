package forecast

// ParameterType distinguishes nationally published series from MSA-specific ones.
type ParameterType string

const (
	National ParameterType = "national"
	MSA      ParameterType = "msa"
)

// NationalGeoCode is the geographic code used for national series.
const NationalGeoCode = "US"

// Canonical pro forma parameter names.
const (
	Treasury10Y            = "treasury_10y"
	CommercialMortgageRate = "commercial_mortgage_rate"
	FedFundsRate           = "fed_funds_rate"
	CapRate                = "cap_rate"
	VacancyRate            = "vacancy_rate"
	RentGrowth             = "rent_growth"
	ExpenseGrowth          = "expense_growth"
	LTVRatio               = "ltv_ratio"
	ClosingCostPct         = "closing_cost_pct"
	LenderReserves         = "lender_reserves"
	PropertyGrowth         = "property_growth"
)

// CanonicalParameters lists the 11 pro forma inputs in their fixed order.
// Correlation matrices and summaries are always ordered this way.
var CanonicalParameters = []string{
	Treasury10Y,
	CommercialMortgageRate,
	FedFundsRate,
	CapRate,
	VacancyRate,
	RentGrowth,
	ExpenseGrowth,
	LTVRatio,
	ClosingCostPct,
	LenderReserves,
	PropertyGrowth,
}

var nationalParameters = map[string]bool{
	Treasury10Y:            true,
	CommercialMortgageRate: true,
	FedFundsRate:           true,
}

// ParameterID identifies a single forecast series. It is comparable and
// therefore usable as a map key.
type ParameterID struct {
	Name           string        `json:"name"`
	GeographicCode string        `json:"geographic_code"`
	ParameterType  ParameterType `json:"parameter_type"`
}

// IsCanonical reports whether name is one of the 11 pro forma parameters.
func IsCanonical(name string) bool {
	for _, p := range CanonicalParameters {
		if p == name {
			return true
		}
	}
	return false
}

// IsNational reports whether the parameter is published at national level.
func IsNational(name string) bool {
	return nationalParameters[name]
}

// CanonicalID builds the ParameterID a canonical parameter has for the given MSA.
// National parameters ignore msaCode.
func CanonicalID(name, msaCode string) ParameterID {
	if IsNational(name) {
		return ParameterID{Name: name, GeographicCode: NationalGeoCode, ParameterType: National}
	}
	return ParameterID{Name: name, GeographicCode: msaCode, ParameterType: MSA}
}

func canonicalIndex(name string) int {
	for i, p := range CanonicalParameters {
		if p == name {
			return i
		}
	}
	return -1
}
