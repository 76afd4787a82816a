package visuals

import (
	"fmt"
	"math"
	"strings"

	"proforma-mcs/internal/simulation"
)

// GenerateRegimePie creates a Mermaid pie chart of the market scenario distribution.
func GenerateRegimePie(distribution map[simulation.MarketScenario]int) string {
	total := 0
	for _, c := range distribution {
		total += c
	}
	if total == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Market Scenario Distribution\n")
	for _, label := range simulation.MarketScenarios {
		count := distribution[label]
		if count == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", regimeLabel(label), count))
	}
	sb.WriteString("```")
	return sb.String()
}

func regimeLabel(m simulation.MarketScenario) string {
	name := strings.TrimSuffix(string(m), "_market")
	if name == "" {
		return string(m)
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// GenerateScoreHistogram creates a Mermaid bar chart of a composite score histogram.
func GenerateScoreHistogram(h *simulation.Histogram, title string) string {
	if h == nil || len(h.Counts) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0
	for i, count := range h.Counts {
		labels = append(labels, fmt.Sprintf("\"%.1f\"", h.Edges[i]))
		values = append(values, fmt.Sprintf("%d", count))
		maxVal = max(maxVal, count)
	}
	if maxVal == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Scenarios\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateParameterBands creates a Mermaid line chart of a parameter's P5, median
// and P95 per forecast year, in percent.
func GenerateParameterBands(parameter string, bands []simulation.YearBand) string {
	if len(bands) == 0 {
		return ""
	}

	var labels, p5s, p50s, p95s []string
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, b := range bands {
		labels = append(labels, fmt.Sprintf("\"Y%d\"", b.Year))
		p5s = append(p5s, fmt.Sprintf("%.2f", b.P5*100))
		p50s = append(p50s, fmt.Sprintf("%.2f", b.Median*100))
		p95s = append(p95s, fmt.Sprintf("%.2f", b.P95*100))
		minY = math.Min(minY, b.P5*100)
		maxY = math.Max(maxY, b.P95*100)
	}

	// Pad the axis so flat bands stay visible
	pad := math.Max(0.5, (maxY-minY)*0.1)
	lo := math.Floor(minY - pad)
	hi := math.Ceil(maxY + pad)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s (P5 / P50 / P95)\"\n", parameter))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Percent\" %.0f --> %.0f\n", lo, hi))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p5s, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p50s, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p95s, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateCalibrationChart creates a Mermaid bar chart of the mean interval coverage
// per parameter.
func GenerateCalibrationChart(result simulation.CalibrationResult) string {
	type agg struct {
		sum float64
		n   int
	}
	var order []string
	byParam := make(map[string]*agg)
	for _, cp := range result.Checkpoints {
		if cp.Degenerate {
			continue
		}
		a, ok := byParam[cp.Parameter]
		if !ok {
			a = &agg{}
			byParam[cp.Parameter] = a
			order = append(order, cp.Parameter)
		}
		a.sum += cp.Coverage
		a.n++
	}
	if len(order) == 0 {
		return ""
	}

	var labels, values []string
	for _, p := range order {
		a := byParam[p]
		labels = append(labels, fmt.Sprintf("\"%s\"", p))
		values = append(values, fmt.Sprintf("%.1f", a.sum/float64(a.n)*100))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Forecast Interval Coverage (Target 95%)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Coverage %\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
