package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"proforma-mcs/internal/forecast"
)

func main() {
	msas := flag.String("msa", "35620", "Comma-separated MSA codes to generate")
	regime := flag.String("regime", "mild", "Regime to generate: mild, boom, stress")
	horizon := flag.Int("horizon", 10, "Forecast horizon in years")
	width := flag.Float64("width", 1, "Interval width multiplier (0 yields point forecasts)")
	drop := flag.String("drop", "", "Comma-separated parameters to leave out, for degraded-mode testing")
	outDir := flag.String("out", "./data/forecasts", "Output directory for forecast documents")
	flag.Parse()

	var dropped []string
	if *drop != "" {
		dropped = strings.Split(*drop, ",")
		for _, name := range dropped {
			if !forecast.IsCanonical(name) {
				fmt.Printf("Unknown parameter %q\n", name)
				os.Exit(1)
			}
		}
	}

	now := time.Now().UTC()
	for _, msa := range strings.Split(*msas, ",") {
		msa = strings.TrimSpace(msa)
		if msa == "" {
			continue
		}
		fmt.Printf("Generating regime '%s' for MSA %s (Horizon: %d, Width: %.2f) to %s...\n", *regime, msa, *horizon, *width, *outDir)

		set := forecast.GenerateSynthetic(forecast.SyntheticConfig{
			MSACode:      msa,
			HorizonYears: *horizon,
			Regime:       *regime,
			WidthScale:   *width,
			Now:          now,
		})
		if len(dropped) > 0 {
			set = set.Without(dropped...)
		}

		path, err := forecast.WriteDocument(*outDir, set)
		if err != nil {
			fmt.Printf("Failed to save forecasts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	}

	fmt.Println("Done.")
}
