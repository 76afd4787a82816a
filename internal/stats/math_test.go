package stats

import (
	"math"
	"testing"
)

func TestCalculateMedianContinuous(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", []float64{}, 0},
		{"SingleItem", []float64{5.5}, 5.5},
		{"OddCount", []float64{1.1, 3.3, 2.2, 4.4, 5.5}, 3.3},
		{"EvenCount", []float64{1.1, 2.2, 3.3, 4.4}, 2.75},
		{"Unsorted", []float64{10.5, 2.5, 8.5, 4.5, 6.5}, 6.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateMedianContinuous(tt.values); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("CalculateMedianContinuous() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPopStdDev(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", nil, 0},
		{"Constant", []float64{0.05, 0.05, 0.05}, 0},
		{"Known", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PopStdDev(tt.values); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("PopStdDev() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	values := []float64{9, 1, 5, 3, 7}
	d := Describe(values, []float64{0, 5, 25, 75, 95, 100})

	if d.Count != 5 || d.Mean != 5 || d.Min != 1 || d.Max != 9 || d.Median != 5 {
		t.Fatalf("unexpected description: %+v", d)
	}
	if d.Percentiles[0] != 1 || d.Percentiles[100] != 9 {
		t.Errorf("extreme percentiles should equal min/max, got %v and %v", d.Percentiles[0], d.Percentiles[100])
	}
	prev := math.Inf(-1)
	for _, c := range []float64{0, 5, 25, 75, 95, 100} {
		p := d.Percentiles[c]
		if p < prev {
			t.Errorf("percentiles must be non-decreasing: p%v=%v < %v", c, p, prev)
		}
		if p < d.Min || p > d.Max {
			t.Errorf("p%v=%v outside [min,max]", c, p)
		}
		prev = p
	}
	if values[0] != 9 {
		t.Error("Describe must not reorder its input")
	}
}

func TestPercentile(t *testing.T) {
	oneToFive := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		name     string
		sorted   []float64
		p        float64
		expected float64
	}{
		{"Empty", nil, 50, 0},
		{"Single", []float64{0.07}, 95, 0.07},
		{"P5", oneToFive, 5, 1.2},
		{"P25", oneToFive, 25, 2},
		{"P50", oneToFive, 50, 3},
		{"P75", oneToFive, 75, 4},
		{"P95", oneToFive, 95, 4.8},
		{"EvenMedian", []float64{1, 2}, 50, 1.5},
		{"BelowRange", oneToFive, -10, 1},
		{"AboveRange", oneToFive, 120, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.sorted, tt.p); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.expected)
			}
		})
	}
}

func TestDescribe_InteriorPercentiles(t *testing.T) {
	d := Describe([]float64{9, 1, 5, 3, 7}, []float64{5, 25, 50, 75, 95})
	want := map[float64]float64{5: 1.4, 25: 3, 50: 5, 75: 7, 95: 8.6}
	for c, w := range want {
		if math.Abs(d.Percentiles[c]-w) > 1e-12 {
			t.Errorf("p%v = %v, want %v", c, d.Percentiles[c], w)
		}
	}
	if d.Percentiles[50] != d.Median {
		t.Errorf("p50 %v disagrees with median %v", d.Percentiles[50], d.Median)
	}

	even := Describe([]float64{2, 1}, []float64{50})
	if even.Percentiles[50] != 1.5 || even.Median != 1.5 {
		t.Errorf("even-sized sample: p50=%v median=%v, want 1.5", even.Percentiles[50], even.Median)
	}
}

func TestDescribe_Empty(t *testing.T) {
	d := Describe(nil, []float64{5, 95})
	if d.Count != 0 || d.Mean != 0 || len(d.Percentiles) != 2 {
		t.Errorf("unexpected empty description: %+v", d)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-0.2, 0, 1) != 0 || Clamp(1.3, 0, 1) != 1 || Clamp(0.4, 0, 1) != 0.4 {
		t.Error("Clamp returned an out-of-range value")
	}
}
