package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	showScenarios bool
	showDelete    bool
)

var showCmd = &cobra.Command{
	Use:   "show <simulation-id>",
	Short: "Print a stored simulation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := wire(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if showDelete {
			deleted, err := app.results.DeleteSimulation(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("simulation %s not found", args[0])
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		}

		res, found, err := app.results.GetSimulationResult(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("simulation %s not found", args[0])
		}
		if !showScenarios {
			res.Scenarios = nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showScenarios, "scenarios", false, "include every scenario trajectory")
	showCmd.Flags().BoolVar(&showDelete, "delete", false, "delete the stored simulation instead of printing it")
	rootCmd.AddCommand(showCmd)
}
