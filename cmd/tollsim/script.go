package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukydev/toll-scenario/internal/controller"
	"github.com/ukydev/toll-scenario/internal/models"
	"gopkg.in/yaml.v3"
)

func (a *app) runCmd() *cobra.Command {
	var skipLayers bool

	cmd := &cobra.Command{
		Use:   "run [script.yaml]",
		Short: "Replay a scripted operator session and print the result panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			script, err := controller.LoadScript(f)
			if err != nil {
				return err
			}

			ctrl, rec := a.headless()
			if !skipLayers {
				// Layers are informational; a failure is logged by the controller.
				_ = ctrl.LoadMapLayers(cmd.Context())
			}
			replayErr := ctrl.Replay(cmd.Context(), script)

			out := cmd.OutOrStdout()
			for _, v := range ctrl.Vehicles() {
				fmt.Fprintf(out, "Vehicle %d %q: %d/%d waypoints, planned %.2f km, %d markers\n",
					v.ID, v.Identity, len(v.Waypoints), v.Slots, v.PlannedDistanceKm, len(rec.Markers(v.ID)))
			}
			panel := ctrl.Panel()
			printPanel(out, &panel)
			return replayErr
		},
	}

	cmd.Flags().BoolVar(&skipLayers, "skip-layers", false, "do not fetch toll zones and highways first")
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		vehicles  int
		waypoints int
		seed      int64
		output    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random scenario script inside the default region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if vehicles < 1 || waypoints < 1 {
				return fmt.Errorf("vehicles and waypoints must be positive")
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			script := controller.GenerateScript(rand.New(rand.NewSource(seed)), vehicles, waypoints, models.DefaultRegion)

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(script); err != nil {
				return fmt.Errorf("failed to encode script: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().IntVarP(&vehicles, "vehicles", "n", 3, "number of vehicles")
	cmd.Flags().IntVarP(&waypoints, "waypoints", "w", 4, "waypoints per vehicle")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
