package forecast

import (
	"fmt"
	"time"
)

// ForecastSet holds one forecast curve per pro forma parameter for an MSA.
// A set with fewer than 11 curves is degraded but usable.
type ForecastSet struct {
	MSACode      string
	HorizonYears int
	Curves       map[ParameterID]ForecastCurve
	GeneratedAt  time.Time
}

// NewForecastSet builds a set from curves, rejecting non-canonical parameters
// and duplicates.
func NewForecastSet(msaCode string, horizonYears int, generatedAt time.Time, curves []ForecastCurve) (*ForecastSet, error) {
	if horizonYears <= 0 {
		return nil, fmt.Errorf("horizon years must be positive, got %d", horizonYears)
	}

	set := &ForecastSet{
		MSACode:      msaCode,
		HorizonYears: horizonYears,
		Curves:       make(map[ParameterID]ForecastCurve, len(curves)),
		GeneratedAt:  generatedAt,
	}
	seen := make(map[string]bool, len(curves))
	for _, c := range curves {
		name := c.Parameter.Name
		if !IsCanonical(name) {
			return nil, fmt.Errorf("parameter %q is not a pro forma parameter", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate forecast curve for %q", name)
		}
		seen[name] = true
		set.Curves[c.Parameter] = c
	}
	return set, nil
}

// Curve looks up a curve by parameter name.
func (s *ForecastSet) Curve(name string) (ForecastCurve, bool) {
	if s == nil {
		return ForecastCurve{}, false
	}
	for id, c := range s.Curves {
		if id.Name == name {
			return c, true
		}
	}
	return ForecastCurve{}, false
}

// ParameterNames returns the names present in the set in canonical order.
func (s *ForecastSet) ParameterNames() []string {
	if s == nil {
		return nil
	}
	present := make(map[string]bool, len(s.Curves))
	for id := range s.Curves {
		present[id.Name] = true
	}
	names := make([]string, 0, len(present))
	for _, p := range CanonicalParameters {
		if present[p] {
			names = append(names, p)
		}
	}
	return names
}

// Missing returns canonical parameters absent from the set.
func (s *ForecastSet) Missing() []string {
	var missing []string
	for _, p := range CanonicalParameters {
		if _, ok := s.Curve(p); !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// Complete reports whether all 11 parameters are present.
func (s *ForecastSet) Complete() bool {
	return len(s.Missing()) == 0
}

// Document is the JSON form of a ForecastSet, used by files and caches.
type Document struct {
	MSACode      string          `json:"msa_code"`
	HorizonYears int             `json:"horizon_years"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Curves       []ForecastCurve `json:"curves"`
}

// ToDocument converts the set to its serialisable form with curves in canonical order.
func (s *ForecastSet) ToDocument() Document {
	doc := Document{
		MSACode:      s.MSACode,
		HorizonYears: s.HorizonYears,
		GeneratedAt:  s.GeneratedAt,
	}
	for _, name := range s.ParameterNames() {
		c, _ := s.Curve(name)
		doc.Curves = append(doc.Curves, c)
	}
	return doc
}

// FromDocument rebuilds a ForecastSet.
func FromDocument(doc Document) (*ForecastSet, error) {
	return NewForecastSet(doc.MSACode, doc.HorizonYears, doc.GeneratedAt, doc.Curves)
}
