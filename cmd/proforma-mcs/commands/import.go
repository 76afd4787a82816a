package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"proforma-mcs/internal/forecast"
)

var importCmd = &cobra.Command{
	Use:   "import <forecast.json>...",
	Short: "Import forecast documents into the database",
	Long: `Reads forecast documents (as written by mockgen or an upstream forecasting job)
and upserts their curves. Cached forecasts of the affected MSAs are invalidated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := wire(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, path := range args {
			doc, err := forecast.ReadDocument(path)
			if err != nil {
				return err
			}
			set, err := forecast.FromDocument(doc)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := app.forecasts.SaveForecastSet(ctx, set); err != nil {
				return err
			}
			if app.cache != nil {
				if err := app.cache.Invalidate(ctx, set.MSACode); err != nil {
					log.Warn().Err(err).Str("msa", set.MSACode).Msg("Failed to invalidate forecast cache")
				}
			}
			log.Info().
				Str("file", path).
				Str("msa", set.MSACode).
				Int("parameters", len(set.Curves)).
				Strs("missing", set.Missing()).
				Msg("Forecasts imported")
			fmt.Printf("%s: imported %d parameters for MSA %s\n", path, len(set.Curves), set.MSACode)
		}
		return nil
	},
}

var msasCmd = &cobra.Command{
	Use:   "msas",
	Short: "List MSAs with stored forecasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := wire(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		codes, err := app.forecasts.MSACodes(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range codes {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd, msasCmd)
}
