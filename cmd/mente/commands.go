package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"mentedigital/internal/app"
	"mentedigital/internal/config"
	"mentedigital/internal/exporter"
	"mentedigital/internal/infrastructure"
	"mentedigital/internal/report"
	"mentedigital/internal/services"
	"mentedigital/internal/survey"
)

// options are the persistent flags shared by every command
type options struct {
	url     string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "mente",
		Short:         "Mente Digital survey tool",
		Long:          "Fetch the Mente Digital survey export, print its statistics and write the PDF report or data exports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       app.Version,
		// Each invocation gets one trace id so its log lines can be grouped
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
		},
	}
	root.PersistentFlags().StringVar(&opts.url, "url", "", "CSV export URL (overrides MENTE_SOURCE_URL)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr at debug level")

	root.AddCommand(
		newFetchCmd(opts),
		newStatsCmd(opts),
		newReportCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// newService builds the survey pipeline without the HTTP layer. Logs go to
// stderr so stdout only carries command output.
func newService(opts *options) (*services.SurveyService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.url != "" {
		cfg.Source.Kind = config.SourceCSV
		cfg.Source.URL = opts.url
	}

	cfg.Logging.Output = "console"
	cfg.Logging.Level = "warn"
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := infrastructure.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	src, err := app.NewSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	surveyCfg, err := services.SurveyConfigFrom(cfg.Report)
	if err != nil {
		return nil, err
	}
	cache := app.NewCachedLoader(src, cfg.Source, logger, nil)
	return services.NewSurveyService(cache, report.NewRenderer(logger), surveyCfg, logger), nil
}

// loadTable fetches the survey and fails on a source warning
func loadTable(ctx context.Context, svc *services.SurveyService) (services.DataSnapshot, error) {
	snap := svc.Snapshot(ctx)
	if snap.Warning != "" {
		return snap, errors.New(snap.Warning)
	}
	return snap, nil
}

func newFetchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the survey and print its columns and row count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			snap, err := loadTable(cmd.Context(), svc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:  %s\n", snap.Source)
			fmt.Fprintf(out, "rows:    %d\n", snap.Rows)
			fmt.Fprintf(out, "columns: %d\n", len(snap.Columns))
			for _, c := range snap.Columns {
				fmt.Fprintf(out, "  - %s\n", c)
			}
			return nil
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the frequency table of every reportable field",
		Long: `Print one frequency table per reportable field and the age summary.

Example: mente stats --field "estado civil"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			if _, err := loadTable(cmd.Context(), svc); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if field != "" {
				freq, err := svc.Frequency(cmd.Context(), field)
				if err != nil {
					return err
				}
				writeFrequency(out, freq)
				return nil
			}

			st, err := svc.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			writeStatistics(out, st)
			return nil
		},
	}
	cmd.Flags().StringVarP(&field, "field", "f", "", "Print a single field")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var output, theme string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the PDF report",
		Long: `Write the PDF report with one section per reportable field, the age
histogram and the age pyramid.

Example: mente report -o resumo.pdf --tema escuro`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := report.ThemeByName(theme)
			if !ok {
				return fmt.Errorf("unknown theme %q (use claro or escuro)", theme)
			}
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			if _, err := loadTable(cmd.Context(), svc); err != nil {
				return err
			}

			rendered, err := svc.Report(cmd.Context(), t)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = rendered.Filename
			}
			if err := os.WriteFile(path, rendered.PDF, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %s (%d bytes)\n", path, len(rendered.PDF))
			for _, s := range rendered.Sections {
				if s.Status == report.SectionFailed {
					fmt.Fprintf(out, "  section %q failed: %v\n", s.Title, s.Err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: resumo_em_grafico_<timestamp>.pdf)")
	cmd.Flags().StringVar(&theme, "tema", report.Light().Name, "Theme: claro or escuro")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the cleaned table as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			if _, err := loadTable(cmd.Context(), svc); err != nil {
				return err
			}

			path := output
			if path == "" {
				path = f.Filename(services.ExportBaseName)
			}
			if err := writeExport(cmd.Context(), svc, f, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: dados_pesquisa.<format>)")
	cmd.Flags().StringVar(&format, "format", string(exporter.FormatCSV), "Export format: csv or xlsx")
	return cmd
}

// writeExport writes to a temporary file first so a failed export never
// leaves a truncated file behind
func writeExport(ctx context.Context, svc *services.SurveyService, f exporter.Format, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := svc.Export(ctx, f, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func writeStatistics(w io.Writer, st services.Statistics) {
	fmt.Fprintf(w, "%d respostas\n\n", st.Rows)
	for _, fs := range st.Fields {
		if fs.Frequency == nil {
			fmt.Fprintf(w, "%s\n  %s\n\n", report.Capitalize(fs.Field), fs.Error)
			continue
		}
		writeFrequency(w, *fs.Frequency)
	}

	switch {
	case st.Ages != nil:
		a := st.Ages
		fmt.Fprintf(w, "Idade (%s)\n", a.Field)
		fmt.Fprintf(w, "  n=%d  min=%d  max=%d  média=%.1f  mediana=%.1f  desvio=%.1f\n",
			a.Count, a.Min, a.Max, a.Mean, a.Median, a.StdDev)
	case st.AgeError != "":
		fmt.Fprintf(w, "Idade\n  %s\n", st.AgeError)
	}
	for _, b := range st.Histogram {
		fmt.Fprintf(w, "  %s %d\n", runewidth.FillRight(b.Label, 8), b.Count)
	}
}

func writeFrequency(w io.Writer, freq survey.FieldFrequency) {
	width := runewidth.StringWidth("Valor")
	for _, e := range freq.Entries {
		width = max(width, runewidth.StringWidth(e.Value))
	}

	fmt.Fprintln(w, report.Capitalize(freq.Field))
	fmt.Fprintf(w, "  %s  %6s  %6s\n", runewidth.FillRight("Valor", width), "Qtd", "%")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", width+16))
	for _, e := range freq.Entries {
		fmt.Fprintf(w, "  %s  %6d  %5.1f%%\n", runewidth.FillRight(e.Value, width), e.Count, freq.Percent(e))
	}
	fmt.Fprintf(w, "  %s  %6d\n\n", runewidth.FillRight("Total", width), freq.Total)
}
