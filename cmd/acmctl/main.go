// Command acmctl manages the contest and problem libraries from the shell.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/bootstrap"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/config"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/logging"
)

// openApp loads the configuration and wires the libraries. Commands other
// than serve only log warnings unless --verbose is set.
func openApp(ctx context.Context, verbose bool, stderr io.Writer) (*bootstrap.App, error) {
	cfg := config.Load()
	level := zerolog.WarnLevel.String()
	if verbose {
		level = cfg.LogLevel
	}
	logger := logging.SetupWriter(stderr, level, cfg.LogPretty)
	return bootstrap.New(ctx, cfg, logger)
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "acmctl",
		Short:         "Manage the ACM contest and problem libraries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured level")

	withApp := func(run func(cmd *cobra.Command, app *bootstrap.App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), verbose, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			return run(cmd, app, args)
		}
	}

	root.AddCommand(
		newServeCmd(withApp),
		newStatsCmd(withApp),
		newSearchCmd(withApp),
		newExportCmd(withApp),
		newImportCmd(withApp),
		newBackupCmd(withApp),
		newGenerateCmd(withApp),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
