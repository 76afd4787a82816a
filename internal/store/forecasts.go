package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"proforma-mcs/internal/forecast"
)

// ForecastStore keeps the latest forecast curve per (MSA, parameter) and
// implements forecast.Loader.
type ForecastStore struct {
	db  *DB
	now func() time.Time
}

func NewForecastStore(db *DB) *ForecastStore {
	return &ForecastStore{db: db, now: time.Now}
}

// SaveForecastSet upserts every curve of the set, replacing older curves of the
// same parameter.
func (s *ForecastStore) SaveForecastSet(ctx context.Context, set *forecast.ForecastSet) error {
	generated := set.GeneratedAt
	if generated.IsZero() {
		generated = s.now()
	}

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, name := range set.ParameterNames() {
			curve, _ := set.Curve(name)
			points, err := json.Marshal(curve.Points)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", name, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO forecasts (msa_code, parameter_name, parameter_type, geographic_code, horizon_years, generated_at, points)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (msa_code, parameter_name) DO UPDATE SET
					parameter_type = excluded.parameter_type,
					geographic_code = excluded.geographic_code,
					horizon_years = excluded.horizon_years,
					generated_at = excluded.generated_at,
					points = excluded.points`,
				set.MSACode, name, string(curve.Parameter.ParameterType), curve.Parameter.GeographicCode,
				curve.Len(), generated.UnixMilli(), string(points),
			)
			if err != nil {
				return fmt.Errorf("failed to save forecast %s/%s: %w", set.MSACode, name, err)
			}
		}
		return nil
	})
}

// LoadForecasts implements forecast.Loader. Curves generated more than
// maxAgeDays ago are ignored; maxAgeDays <= 0 disables the check.
func (s *ForecastStore) LoadForecasts(ctx context.Context, msaCode string, horizonYears int, maxAgeDays int) (*forecast.ForecastSet, error) {
	cutoff := int64(0)
	if maxAgeDays > 0 {
		cutoff = s.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour).UnixMilli()
	}

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT parameter_name, parameter_type, geographic_code, generated_at, points
		FROM forecasts
		WHERE msa_code = ? AND generated_at >= ?`, msaCode, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts for %s: %w", msaCode, err)
	}
	defer rows.Close()

	var (
		curves []forecast.ForecastCurve
		oldest int64
	)
	for rows.Next() {
		var (
			c         forecast.ForecastCurve
			paramType string
			generated int64
			points    string
		)
		if err := rows.Scan(&c.Parameter.Name, &paramType, &c.Parameter.GeographicCode, &generated, &points); err != nil {
			return nil, err
		}
		if !forecast.IsCanonical(c.Parameter.Name) {
			continue
		}
		c.Parameter.ParameterType = forecast.ParameterType(paramType)
		if err := json.Unmarshal([]byte(points), &c.Points); err != nil {
			return nil, fmt.Errorf("corrupt forecast %s/%s: %w", msaCode, c.Parameter.Name, err)
		}
		curves = append(curves, c)
		if oldest == 0 || generated < oldest {
			oldest = generated
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	set := &forecast.ForecastSet{
		MSACode:      msaCode,
		HorizonYears: horizonYears,
		Curves:       make(map[forecast.ParameterID]forecast.ForecastCurve, len(curves)),
	}
	// A set is only as fresh as its stalest curve; caches age it by GeneratedAt.
	if oldest > 0 {
		set.GeneratedAt = time.UnixMilli(oldest).UTC()
	}
	for _, c := range curves {
		set.Curves[c.Parameter] = c
	}
	return forecast.Resolve(set, msaCode, horizonYears)
}

// MSACodes lists MSAs with at least one stored curve.
func (s *ForecastStore) MSACodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT DISTINCT msa_code FROM forecasts ORDER BY msa_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
