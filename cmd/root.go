package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bitsight-connector",
	Short: "BitSight to SQL ingestion connector",
	Long: `Pulls BitSight security ratings data over the REST API and reconciles it
into relational tables. Every run ends with one exit code describing its outcome.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Global flags shared by every command.
var (
	configPath  string
	verbose     bool
	jsonLogs    bool
	dryRun      bool
	noProgress  bool
	insecureSSL bool
)

// exitCode is the outcome of a command that finished without error.
var exitCode = status.ExitSuccess

// Execute runs the command tree and terminates the process. It is the only
// place that calls os.Exit.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()

	code := exitCode
	if err != nil {
		code = status.ExitForError(err)
		reportError(err, code)
	}
	os.Exit(code.Int())
}

func reportError(err error, code status.ExitCode) {
	// Console encoding at debug level gives readable ISO8601 timestamps.
	l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fields := []zap.Field{
		zap.Error(err),
		zap.Int(logger.FieldExitCode, code.Int()),
		zap.String(logger.FieldExitName, code.String()),
	}
	if c, ok := status.CodeOf(err); ok {
		fields = append(fields, zap.String(logger.FieldCode, string(c)))
	}
	l.Error("command failed", fields...)
	_ = l.Sync()
}

// exactArgs is cobra.ExactArgs with usage errors classified.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return status.Wrap(err, status.ExecutionInvalidArgument, "")
		}
		return nil
	}
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.bitsight/config.json)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
	flags.BoolVar(&dryRun, "dry-run", false, "fetch and classify without writing to the database")
	flags.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	flags.String("api-key", "", "BitSight API key")
	flags.String("base-url", "", "BitSight API base URL")
	flags.String("proxy-url", "", "outbound proxy URL")
	flags.Int("timeout", 0, "API timeout in seconds")
	flags.BoolVar(&insecureSSL, "insecure-ssl", false, "skip TLS certificate verification")

	flags.String("db-driver", "", "database driver (sqlserver, mysql, sqlite)")
	flags.String("db-host", "", "database host")
	flags.String("db-name", "", "database name")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")

	RootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return status.Wrap(err, status.ExecutionInvalidArgument, "")
	})
}
