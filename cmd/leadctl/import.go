package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/leadbook/internal/application"
	"github.com/JonMunkholm/leadbook/internal/core"
)

type importOptions struct {
	file      string
	userID    string
	userEmail string
	userName  string
}

func newImportCmd(envFile *string) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import leads from a CSV file",
		Long: "Import leads from a CSV file on behalf of a user. Valid rows are committed " +
			"together; invalid rows are listed in the JSON report written to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			app, err := application.New(cmd.Context(), cfg)
			if err != nil {
				return withCode(exitRuntime, err)
			}
			defer app.Close()

			return runImport(cmd, app.Service, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", `CSV file to import, or "-" for stdin (required)`)
	cmd.Flags().StringVar(&opts.userID, "user-id", "", "Owner of the imported leads (required)")
	cmd.Flags().StringVar(&opts.userEmail, "user-email", "", "Owner email (required)")
	cmd.Flags().StringVar(&opts.userName, "user-name", "", "Owner display name")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("user-email")

	return cmd
}

func runImport(cmd *cobra.Command, svc *core.Service, opts importOptions) error {
	actor := core.User{
		ID:       strings.TrimSpace(opts.userID),
		Email:    strings.TrimSpace(opts.userEmail),
		FullName: strings.TrimSpace(opts.userName),
	}
	if actor.ID == "" || actor.Email == "" {
		return withCode(exitUsage, errors.New("--user-id and --user-email must not be blank"))
	}

	var in io.Reader = cmd.InOrStdin()
	if opts.file != "-" {
		f, err := os.Open(opts.file)
		if err != nil {
			return withCode(exitUsage, err)
		}
		defer f.Close()
		in = f
	}

	report, err := svc.ImportCSV(cmd.Context(), actor, in)
	if err != nil {
		return withCode(importExitCode(err), fmt.Errorf("import: %s (%w)", core.FormatUserError(err), err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return withCode(exitRuntime, err)
	}
	if report.Accepted == 0 {
		return withCode(exitValidation, fmt.Errorf("no rows imported, %d rejected", len(report.Rejected)))
	}
	return nil
}

// importExitCode separates bad input from infrastructure failures.
func importExitCode(err error) int {
	var se *core.SystemError
	if errors.As(err, &se) || errors.Is(err, core.ErrTooManyImports) {
		return exitRuntime
	}
	return exitValidation
}
