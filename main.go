package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
	"github.com/ekaya-inc/ekaya-profiler/pkg/demo"
	"github.com/ekaya-inc/ekaya-profiler/pkg/llm"
	"github.com/ekaya-inc/ekaya-profiler/pkg/logging"
	"github.com/ekaya-inc/ekaya-profiler/pkg/masking"
	"github.com/ekaya-inc/ekaya-profiler/pkg/metrics"
	"github.com/ekaya-inc/ekaya-profiler/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configFile string
	dbURL      string
	skipReport bool
	render     bool

	demoPath string
	demoSeed int64
)

var rootCmd = &cobra.Command{
	Use:   "ekaya-profiler",
	Short: "Profile a relational database and write an engineering brief",
	Long: `ekaya-profiler walks every user table of a database, computes per-column
statistics (samples, null and distinct counts, top values, extremes, text
lengths), masks sensitive values and writes the result to metadata.json.
The document is then handed to an LLM that writes report.md.

With llm.send_samples: false, samples are left out of metadata.json as well,
with or without --skip-report.

Supported URLs: postgres://, sqlserver://, sqlite:///relative.db, sqlite:////absolute.db`,
	Version: Version,
	RunE:    runProfile,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create a small SQLite shop database to profile",
	RunE:  runDemo,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml",
		"Path to configuration file")
	rootCmd.Flags().StringVar(&dbURL, "url", "",
		"Database URL (overrides connection.url and DATABASE_URL)")
	rootCmd.Flags().BoolVar(&skipReport, "skip-report", false,
		"Write metadata.json only; do not call the LLM (llm.send_samples still applies)")
	rootCmd.Flags().BoolVar(&render, "render", false,
		"Print the generated report to stdout as formatted markdown")

	demoCmd.Flags().StringVar(&demoPath, "path", "demo.sqlite",
		"Output SQLite file (replaced if it exists)")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 42,
		"Random seed; the same seed produces the same rows")
	rootCmd.AddCommand(demoCmd)
}

func main() {
	// Usage is shown for flag parse errors only; run functions silence it.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProfile(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFile, Version, config.WithConnectionURL(dbURL))
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return apperrors.NewConfigurationError("log_level", err.Error(), err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ekaya-profiler",
		zap.String("version", cfg.Version),
		zap.String("url", logging.SanitizeConnectionString(cfg.Connection.URL)),
		zap.Int("parallelism", cfg.Profiling.Parallelism))

	// Compile mask rules before connecting so a bad pattern fails fast.
	masker, err := masking.NewMasker(cfg.Mask)
	if err != nil {
		return err
	}

	// Build the generator up front too: a missing API key is a configuration error.
	var generator llm.TextGenerator
	if !skipReport {
		generator, err = llm.NewTextGenerator(cfg.LLM, logger)
		if err != nil {
			return err
		}
	}

	m := metrics.New()

	conn, err := datasource.Open(ctx, cfg.Connection.URL, datasource.Options{
		Schema:   cfg.Connection.Schema,
		MaxConns: cfg.Profiling.Parallelism,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	collector := services.NewColumnStatsCollector(cfg.Sampling, cfg.Profiling.QueryTimeout, masker, m, logger)
	profiler := services.NewTableProfiler(collector, logger)
	walker := services.NewCatalogWalker(profiler, cfg.Profiling, m, logger)

	doc, err := walker.Run(ctx, conn)
	if err != nil {
		return fmt.Errorf("profiling failed: %w", err)
	}

	reportCfg := services.ReportConfig{
		OutputDir:       cfg.Output.Dir,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		SamplesIncluded: cfg.LLM.SendSamples,
	}
	reports := services.NewReportService(generator, reportCfg, nil, logger)

	var artifacts *services.ReportArtifacts
	if skipReport {
		artifacts, err = reports.WriteMetadata(doc)
	} else {
		artifacts, err = reports.Generate(ctx, doc)
	}
	if err != nil {
		return err
	}

	if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
		logger.Warn("Failed to write metrics", zap.String("path", cfg.Output.MetricsFile), zap.Error(err))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", artifacts.MetadataPath)
	if artifacts.ReportPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", artifacts.ReportPath)
	}

	if render && artifacts.Report != "" {
		return printReport(cmd, artifacts.Report)
	}
	return nil
}

func printReport(cmd *cobra.Command, report string) error {
	fd := int(os.Stdout.Fd())
	width := 0
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}

	out, err := services.RenderReport(report, width, term.IsTerminal(fd))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := filepath.Abs(demoPath)
	if err != nil {
		return fmt.Errorf("resolve demo path: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("directory %s does not exist", dir)
		}
	}

	summary, err := demo.Generate(cmd.Context(), path, demoSeed)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Created %s: %d customers, %d products, %d orders, %d order items\n",
		summary.Path, summary.Customers, summary.Products, summary.Orders, summary.OrderItems)
	fmt.Fprintf(cmd.OutOrStdout(), "Profile it with: ekaya-profiler --url sqlite:///%s\n", summary.Path)
	return nil
}
