package forecast

// ZScore95 converts a published two-sided 95% interval width into a standard deviation.
const ZScore95 = 1.96

// ForecastPoint is a single year of a forecast curve.
type ForecastPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
	Lower float64 `json:"lower_bound"`
	Upper float64 `json:"upper_bound"`
}

// Std derives the Gaussian standard deviation implied by the point's bounds,
// treating them as a 95% confidence interval. Inverted bounds yield zero.
func (p ForecastPoint) Std() float64 {
	width := p.Upper - p.Lower
	if width <= 0 {
		return 0
	}
	return width / (2 * ZScore95)
}

// ForecastCurve is the per-year forecast of one parameter.
type ForecastCurve struct {
	Parameter ParameterID     `json:"parameter"`
	Points    []ForecastPoint `json:"points"`
}

// Len returns the number of forecast years.
func (c ForecastCurve) Len() int {
	return len(c.Points)
}

// Means returns the point values of the first n years.
func (c ForecastCurve) Means(n int) []float64 {
	n = min(n, len(c.Points))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = c.Points[i].Value
	}
	return out
}

// Stds returns the implied standard deviations of the first n years.
func (c ForecastCurve) Stds(n int) []float64 {
	n = min(n, len(c.Points))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = c.Points[i].Std()
	}
	return out
}

// Truncate returns a copy of the curve limited to n years.
func (c ForecastCurve) Truncate(n int) ForecastCurve {
	n = min(n, len(c.Points))
	points := make([]ForecastPoint, n)
	copy(points, c.Points[:n])
	return ForecastCurve{Parameter: c.Parameter, Points: points}
}
