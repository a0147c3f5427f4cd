// Command server runs the plant maintenance API and its companion tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/handler"
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Plant maintenance management API",
	Long:          "Serve the plant maintenance REST API, run the email worker, or manage the database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       handler.Version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newLogger returns a JSON production logger or a console development one.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
