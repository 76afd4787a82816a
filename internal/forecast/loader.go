package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDataNotFound signals that required forecast data is missing or stale.
// Callers may retry with another MSA; nothing retries automatically.
var ErrDataNotFound = errors.New("forecast data not found")

// MissingDataError carries whatever could be resolved alongside the missing names.
// It matches ErrDataNotFound under errors.Is.
type MissingDataError struct {
	MSACode string
	Missing []string
	Partial *ForecastSet
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("forecast data not found for MSA %s: missing %d of %d parameters (%s)",
		e.MSACode, len(e.Missing), len(CanonicalParameters), strings.Join(e.Missing, ", "))
}

func (e *MissingDataError) Is(target error) bool {
	return target == ErrDataNotFound
}

// Loader supplies forecast sets. Implementations return a *MissingDataError
// when fewer than the 11 canonical parameters are fresh within maxAgeDays.
type Loader interface {
	LoadForecasts(ctx context.Context, msaCode string, horizonYears int, maxAgeDays int) (*ForecastSet, error)
}

// Resolve keeps curves that cover the horizon, truncated to it, and reports
// the outcome the way a Loader must.
func Resolve(set *ForecastSet, msaCode string, horizonYears int) (*ForecastSet, error) {
	usable := &ForecastSet{
		MSACode:      msaCode,
		HorizonYears: horizonYears,
		Curves:       make(map[ParameterID]ForecastCurve),
	}
	if set != nil {
		usable.GeneratedAt = set.GeneratedAt
		for id, c := range set.Curves {
			if c.Len() < horizonYears {
				continue
			}
			usable.Curves[id] = c.Truncate(horizonYears)
		}
	}

	if missing := usable.Missing(); len(missing) > 0 {
		return nil, &MissingDataError{MSACode: msaCode, Missing: missing, Partial: usable}
	}
	return usable, nil
}

// ChainLoader consults loaders in order and returns the first complete set.
// When none is complete the most complete partial result is reported.
type ChainLoader []Loader

func (c ChainLoader) LoadForecasts(ctx context.Context, msaCode string, horizonYears int, maxAgeDays int) (*ForecastSet, error) {
	var best *MissingDataError
	for _, l := range c {
		set, err := l.LoadForecasts(ctx, msaCode, horizonYears, maxAgeDays)
		if err == nil {
			return set, nil
		}
		var missing *MissingDataError
		if !errors.As(err, &missing) {
			return nil, err
		}
		if best == nil || len(missing.Missing) < len(best.Missing) {
			best = missing
		}
	}
	if best == nil {
		return Resolve(nil, msaCode, horizonYears)
	}
	return nil, best
}
