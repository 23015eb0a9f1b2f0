// Command vplay-probe plays a source through the playback controller
// without a terminal UI and logs every state change and progress sample.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/vplay/internal/app"
	"github.com/llehouerou/vplay/internal/config"
	"github.com/llehouerou/vplay/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:          "vplay-probe <file>",
	Short:        "Play a file headlessly and log controller events",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(lo.Must(cmd.Flags().GetString("config")))
		if err != nil {
			return err
		}
		if level := lo.Must(cmd.Flags().GetString("log-level")); level != "" {
			cfg.Log.Level = level
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if timeout := lo.Must(cmd.Flags().GetDuration("timeout")); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		seek := lo.Must(cmd.Flags().GetFloat64("seek"))
		return app.Probe(ctx, cfg, engine.NewBeep(), args[0], seek, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.Flags().Float64("seek", -1, "seek to this fraction (0-1) once the duration is known")
	rootCmd.Flags().Duration("timeout", 0, "stop after this long (0 plays to the end)")
	rootCmd.Flags().String("config", "", "config file (default: ~/.config/vplay/config.toml, ./config.toml)")
	rootCmd.Flags().String("log-level", "", "override the configured log level")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "vplay-probe:", err)
		os.Exit(1)
	}
}
