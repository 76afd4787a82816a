package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"proforma-mcs/internal/config"
	"proforma-mcs/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "proforma-mcs",
	Short: "Proforma-MCS is a Monte-Carlo scenario generator for real-estate pro formas",
	Long: `An MCP Server that turns per-MSA forecasts of the 11 pro forma parameters
(rates, cap rate, vacancy, growth, lending terms) into correlated Monte-Carlo scenarios,
classifies them into market regimes and stores the runs for later comparison.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Proforma-MCS starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
