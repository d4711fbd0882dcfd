package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/leadbook/internal/application"
	"github.com/JonMunkholm/leadbook/internal/core"
)

type exportOptions struct {
	out          string
	city         string
	propertyType string
	status       string
	timeline     string
	search       string
}

func newExportCmd(envFile *string) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export leads to CSV",
		Long:  "Export every lead matching the filters, most recently updated first, in the import column layout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := core.NewFilter(opts.city, opts.propertyType, opts.status, opts.timeline, opts.search)
			if err != nil {
				return withCode(exitUsage, err)
			}

			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			app, err := application.New(cmd.Context(), cfg)
			if err != nil {
				return withCode(exitRuntime, err)
			}
			defer app.Close()

			return runExport(cmd, app.Service, f, opts.out)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "-", `Output file, or "-" for stdout`)
	cmd.Flags().StringVar(&opts.city, "city", "", "Only leads in this city")
	cmd.Flags().StringVar(&opts.propertyType, "property-type", "", "Only leads for this property type")
	cmd.Flags().StringVar(&opts.status, "status", "", "Only leads with this status")
	cmd.Flags().StringVar(&opts.timeline, "timeline", "", "Only leads with this timeline")
	cmd.Flags().StringVar(&opts.search, "search", "", "Substring of name, email, or phone")
	return cmd
}

func runExport(cmd *cobra.Command, svc *core.Service, f core.Filter, out string) error {
	var w io.Writer = cmd.OutOrStdout()
	if out != "-" {
		file, err := os.Create(out)
		if err != nil {
			return withCode(exitUsage, err)
		}
		defer file.Close()
		w = file
	}

	bw := bufio.NewWriter(w)
	rows, err := svc.Export(cmd.Context(), f, bw)
	if err != nil {
		return withCode(exitRuntime, fmt.Errorf("export: %w", err))
	}
	if err := bw.Flush(); err != nil {
		return withCode(exitRuntime, err)
	}
	slog.Info("export written", "rows", rows, "out", out)
	return nil
}
