package simulation

import "math"

// Histogram buckets composite scores over [0,1].
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// NewScoreHistogram bins scores into equal-width buckets on [0,1]. A score of
// exactly 1 falls into the last bucket.
func NewScoreHistogram(scores []float64, bins int) *Histogram {
	if bins <= 0 {
		bins = 10
	}
	h := &Histogram{
		Edges:  make([]float64, bins+1),
		Counts: make([]int, bins),
	}
	for i := range h.Edges {
		h.Edges[i] = float64(i) / float64(bins)
	}
	for _, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		idx := int(s * float64(bins))
		idx = max(0, min(idx, bins-1))
		h.Counts[idx]++
	}
	return h
}

// GrowthHistogram bins the growth scores of a result.
func GrowthHistogram(r *SimulationResult, bins int) *Histogram {
	scores := make([]float64, len(r.Scenarios))
	for i, s := range r.Scenarios {
		scores[i] = s.Metrics.GrowthScore
	}
	return NewScoreHistogram(scores, bins)
}

// RiskHistogram bins the risk scores of a result.
func RiskHistogram(r *SimulationResult, bins int) *Histogram {
	scores := make([]float64, len(r.Scenarios))
	for i, s := range r.Scenarios {
		scores[i] = s.Metrics.RiskScore
	}
	return NewScoreHistogram(scores, bins)
}
