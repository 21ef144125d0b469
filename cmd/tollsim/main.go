package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/toll-scenario/internal/config"
	"github.com/ukydev/toll-scenario/internal/controller"
	"github.com/ukydev/toll-scenario/internal/display"
	"github.com/ukydev/toll-scenario/internal/gateway"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the configuration loaded before any subcommand runs.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "tollsim",
		Short:         "Toll scenario controller: build vehicle routes and run them against the toll backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.SetupLogging(); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(a.serveCmd())
	rootCmd.AddCommand(a.zonesCmd())
	rootCmd.AddCommand(a.highwaysCmd())
	rootCmd.AddCommand(a.runCmd())
	rootCmd.AddCommand(a.uploadCmd())
	rootCmd.AddCommand(a.downloadCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(a.hashPasswordCmd())
	rootCmd.AddCommand(a.operatorCmd())
	return rootCmd
}

func (a *app) backend() *gateway.Client {
	return gateway.New(a.cfg.BackendURL, a.cfg.BackendToken, a.cfg.BackendTimeout)
}

// headless returns a controller drawing into an in-memory surface.
func (a *app) headless() (*controller.Controller, *display.Recorder) {
	rec := display.NewRecorder()
	ctrl := controller.New("cli", a.backend(), rec)
	log.WithField("backend", a.cfg.BackendURL).Debug("Headless controller ready")
	return ctrl, rec
}
