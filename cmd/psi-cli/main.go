// Command psi-cli evaluates claim files against the PSI indicators and
// manages reference bundles from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/psi-indicator-engine/internal/logging"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "psi-cli",
		Short:        "AHRQ Patient Safety Indicator evaluation tools",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text or json)")

	rootCmd.AddCommand(evaluateCmd(opts))
	rootCmd.AddCommand(indicatorsCmd())
	rootCmd.AddCommand(referenceCmd(opts))
	rootCmd.AddCommand(mcpCmd())

	return rootCmd
}

// logger writes to the command's stderr so stdout stays machine readable
func (o *rootOptions) logger(cmd *cobra.Command) *logrus.Logger {
	logger := logging.New(o.logLevel, o.logFormat)
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}
