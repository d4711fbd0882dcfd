// Command leadctl runs lead maintenance tasks outside the HTTP server:
// applying the schema, bulk imports from a file, and exports to CSV.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/leadbook/internal/config"
	"github.com/JonMunkholm/leadbook/internal/logging"
)

const (
	exitOK         = 0
	exitUsage      = 2
	exitValidation = 3
	exitRuntime    = 4
)

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var ce *codedError
		if errors.As(err, &ce) {
			return ce.code
		}
		return exitRuntime
	}
	return exitOK
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Maintenance commands for the lead book",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file to load before reading the environment")

	root.AddCommand(
		newMigrateCmd(&envFile),
		newImportCmd(&envFile),
		newExportCmd(&envFile),
	)
	return root
}

// loadConfig reads the dotenv file and environment and sets up logging.
// Logs go to stderr so that stdout stays clean for command output.
func loadConfig(envFile string) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, withCode(exitUsage, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}
