package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenPecha/translation-workflow/internal/bootstrap"
	"github.com/OpenPecha/translation-workflow/internal/config"
	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/observability/logging"
)

type flags struct {
	input         string
	configFile    string
	batchSize     int
	retries       int
	delay         time.Duration
	output        string
	language      string
	maxIterations int
	glossary      string
	provider      string
	plainMode     string
	debug         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&flags{})
}

func buildRootCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a corpus of documents with tiered batch recovery",
		Long: `Loads documents from a JSON or JSONL corpus, runs each through the
commentary, translation, evaluation and glossary workflow, and appends
results to <output>.jsonl and failures to <output>_fail.jsonl.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, *f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.input, "input", "test.json", "Input JSON or JSONL corpus file")
	fs.StringVar(&f.configFile, "config", "", "YAML config file (default: $CONFIG_FILE)")
	fs.IntVar(&f.batchSize, "batch-size", 2, "Documents per batch")
	fs.IntVar(&f.retries, "retries", 3, "Attempts per recovery tier")
	fs.DurationVar(&f.delay, "delay", 5*time.Second, "Delay between attempts")
	fs.StringVar(&f.output, "output", "batch_results", "Output file prefix")
	fs.StringVar(&f.language, "language", "English", "Default target language")
	fs.IntVar(&f.maxIterations, "max-iterations", 3, "Translation attempts before a forced accept")
	fs.StringVar(&f.glossary, "glossary", "translation_glossary.xlsx", "Glossary workbook path")
	fs.StringVar(&f.provider, "provider", config.ProviderOllama, "Oracle provider: ollama or gemini")
	fs.StringVar(&f.plainMode, "plain-mode", "frozen", "Plain rendering on retries: frozen or regenerate")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	return cmd
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	path := f.configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if fs.Changed("retries") {
		cfg.BatchMaxAttempts = f.retries
	}
	if fs.Changed("delay") {
		cfg.BatchRetryDelay = f.delay
	}
	if fs.Changed("output") {
		cfg.OutputPrefix = f.output
	}
	if fs.Changed("language") {
		cfg.DefaultLanguage = f.language
	}
	if fs.Changed("max-iterations") {
		cfg.MaxIterations = f.maxIterations
	}
	if fs.Changed("glossary") {
		cfg.GlossaryPath = f.glossary
	}
	if fs.Changed("provider") {
		cfg.OracleProvider = f.provider
	}
	if fs.Changed("plain-mode") {
		cfg.PlainMode = f.plainMode
	}
	if f.debug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, out io.Writer, cfg config.Config, f flags) error {
	logger := logging.NewJSONLoggerTo(os.Stderr, "translate", cfg.LogLevel)

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Role: bootstrap.RoleCLI, Logger: logger})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	docs, err := app.Loader.Load(ctx, f.input)
	if err != nil {
		return fmt.Errorf("load %s: %w", f.input, err)
	}
	logger.Info("corpus loaded", "input", f.input, "documents", len(docs))

	summary, runErr := app.Executor.Run(ctx, docs)
	printSummary(out, len(docs), summary, app)
	return runErr
}

func printSummary(out io.Writer, total int, summary domain.RunSummary, app *bootstrap.App) {
	fmt.Fprintf(out, "\nProcessing Summary:\n")
	fmt.Fprintf(out, "Total examples: %d\n", total)
	fmt.Fprintf(out, "Successfully processed: %d (%d forced)\n", summary.Accepted, summary.ForcedAccepted)
	fmt.Fprintf(out, "Failed to process: %d\n", summary.Failed)
	fmt.Fprintf(out, "Batches: %d, grouped recoveries: %d, individual recoveries: %d\n",
		summary.Batches, summary.GroupedRecoveries, summary.IndividualRecoveries)
	if app.Output != nil {
		if summary.Accepted > 0 {
			fmt.Fprintf(out, "Results saved to %s\n", app.Output.SuccessPath())
		}
		if summary.Failed > 0 {
			fmt.Fprintf(out, "Failed items saved to %s\n", app.Output.FailurePath())
		}
	}
}
