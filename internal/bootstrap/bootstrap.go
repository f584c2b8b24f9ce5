package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/OpenPecha/translation-workflow/internal/config"
	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
	"github.com/OpenPecha/translation-workflow/internal/core/usecase"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/glossary/xlsx"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/llm/gemini"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/llm/ollama"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/loader/jsonfile"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/queue/nats"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/repository/postgres"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/resilience"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/storage/jsonl"
)

// Role selects which adapters a process needs.
type Role int

const (
	// RoleCLI runs a corpus file locally. Postgres is used only when a DSN is set.
	RoleCLI Role = iota
	// RoleWorker consumes queued batches and publishes results.
	RoleWorker
	// RoleAPI accepts submissions and serves persisted results.
	RoleAPI
)

type Options struct {
	Role     Role
	Logger   *slog.Logger
	Observer ports.BatchObserver
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Loader    ports.DocumentLoader
	Output    *jsonl.Storage
	Glossary  *xlsx.Store
	Queue     *nats.Queue
	Results   ports.ResultRepository
	Submitter ports.BatchSubmitter

	Workflow *usecase.Workflow
	Executor *usecase.BatchExecutor

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app = &App{
		Config: cfg,
		Logger: logger,
		Loader: jsonfile.New(cfg.DefaultLanguage),
	}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	var db *sql.DB
	if opts.Role != RoleCLI || cfg.PostgresDSN != "" {
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		app.Results = postgres.NewResultRepository(db)
	}

	if opts.Role != RoleCLI {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSBatchSubject, nats.Options{
			ResultSubject:      cfg.NATSResultSubject,
			ResilienceExecutor: resilience.NewExecutorWithLogger(resilience.DefaultConfig(), logger),
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.closers = append(app.closers, queue.Close)
	}

	if opts.Role == RoleAPI {
		app.Submitter = usecase.NewSubmitBatchUseCase(app.Queue, cfg.DefaultLanguage, cfg.MaxBatchDocuments)
		return app, nil
	}

	oracle, err := newOracle(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	plainMode, err := usecase.ParsePlainMode(cfg.PlainMode)
	if err != nil {
		return nil, err
	}

	var sinks []ports.ResultSink
	if cfg.OutputPrefix != "" {
		output, err := jsonl.New(cfg.OutputPrefix)
		if err != nil {
			return nil, fmt.Errorf("init output files: %w", err)
		}
		app.Output = output
		sinks = append(sinks, output)
	}
	if app.Results != nil {
		sinks = append(sinks, app.Results)
	}
	if app.Queue != nil {
		sinks = append(sinks, app.Queue)
	}

	glossaries := glossaryFanout{}
	if cfg.GlossaryPath != "" {
		store, err := xlsx.New(cfg.GlossaryPath)
		if err != nil {
			return nil, fmt.Errorf("init glossary workbook: %w", err)
		}
		app.Glossary = store
		glossaries = append(glossaries, store)
	}
	if db != nil {
		glossaries = append(glossaries, postgres.NewGlossaryRepository(db))
	}

	app.Workflow = usecase.NewWorkflow(oracle, usecase.WorkflowConfig{Policy: policy, PlainMode: plainMode}, logger)
	recorder := usecase.NewRecorder(glossaries, logger, sinks...)
	app.Executor = usecase.NewBatchExecutor(app.Workflow, recorder, opts.Observer, cfg.Batch(), logger)
	return app, nil
}

func newOracle(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.Oracle, error) {
	executor := resilience.NewExecutorWithLogger(cfg.Resilience(), logger)
	switch cfg.OracleProvider {
	case config.ProviderGemini:
		temperature := float32(cfg.OracleTemperature)
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
			BaseURL:            cfg.GeminiBaseURL,
			Temperature:        &temperature,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini oracle: %w", err)
		}
		return client, nil
	default:
		temperature := cfg.OracleTemperature
		return ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			Timeout:            cfg.OracleTimeout,
			Temperature:        &temperature,
			ResilienceExecutor: executor,
		}), nil
	}
}

// glossaryFanout appends to every configured glossary store in order.
type glossaryFanout []ports.GlossaryStore

func (g glossaryFanout) Append(ctx context.Context, entries []domain.GlossaryEntry) error {
	for _, store := range g {
		if err := store.Append(ctx, entries); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
