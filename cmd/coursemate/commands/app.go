// ABOUTME: Builds the shared runtime for commands from configuration
// ABOUTME: Opens the database, picks embedder, chat model and history backend, assembles the RAG system
package commands

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/config"
	"github.com/harper/coursemate/internal/core"
	"github.com/harper/coursemate/internal/history"
	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/logging"
	"github.com/harper/coursemate/internal/metrics"
	"github.com/harper/coursemate/internal/rag"
	"github.com/harper/coursemate/internal/storage"
	"github.com/harper/coursemate/internal/storage/sqlite"
)

type appOptions struct {
	// needChat fails startup when no chat model can be built
	needChat bool
	// serviceLogs uses the configured log level and format instead of the CLI defaults
	serviceLogs bool
}

// app is everything a command needs; Close releases it
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *sqlite.DB
	store   *storage.VectorStore
	system  *rag.System
	metrics *metrics.Metrics

	closers []func() error
}

func openApp(opts appOptions) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, opts.serviceLogs)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	if err := a.build(opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(opts appOptions) error {
	cfg := a.cfg

	var client *llm.OpenAIClient
	if cfg.OpenAIKey != "" {
		c, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		client = c
	} else if opts.needChat || cfg.UsesOpenAIEmbeddings() {
		return cfg.RequireOpenAIKey()
	}

	var embedder llm.Embedder
	if cfg.UsesOpenAIEmbeddings() {
		embedder = client
	} else {
		embedder = llm.NewHashEmbedder(cfg.EmbeddingDimension)
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	policy, err := storage.NewMatchPolicy(cfg.CourseMatchPolicy, cfg.CourseMatchMaxDistance, cfg.CourseMatchMinGap)
	if err != nil {
		return err
	}
	store, err := storage.NewVectorStore(db, embedder, storage.Options{
		MaxResults:  cfg.MaxResults,
		MatchPolicy: policy,
		Logger:      a.logger.Named("store"),
	})
	if err != nil {
		return err
	}
	a.store = store

	engine, err := core.NewChunkEngine(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return err
	}

	var orchestrator *core.Orchestrator
	if client != nil {
		orchestrator, err = core.NewOrchestrator(client, core.OrchestratorOptions{
			MaxRounds: cfg.MaxToolRounds,
			Logger:    a.logger.Named("orchestrator"),
			Metrics:   a.metrics,
		})
		if err != nil {
			return err
		}
	}

	hist, err := a.openHistory()
	if err != nil {
		return err
	}

	system, err := rag.New(rag.Deps{
		Store:        store,
		Parser:       core.NewDocumentParser(engine),
		Orchestrator: orchestrator,
		History:      hist,
		Logger:       a.logger,
		Metrics:      a.metrics,
	})
	if err != nil {
		return err
	}
	a.system = system

	a.logger.Debug("coursemate initialized",
		zap.String("db_path", cfg.DBPath),
		zap.String("embedding_provider", cfg.EmbeddingProvider),
		zap.String("history_backend", cfg.HistoryBackend),
		zap.String("match_policy", policy.Name()),
		zap.Bool("chat", orchestrator != nil))
	return nil
}

func (a *app) openHistory() (history.Store, error) {
	backend, err := history.ParseBackend(a.cfg.HistoryBackend)
	if err != nil {
		return nil, err
	}
	switch backend {
	case history.BackendSQLite:
		return history.NewSQLiteStore(a.db, a.cfg.MaxHistory)
	case history.BackendRedis:
		rs, err := history.NewRedisStore(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.MaxHistory, history.DefaultSessionTTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	default:
		return history.NewMemoryStore(a.cfg.MaxHistory)
	}
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLogger(cfg *config.Config, service bool) (*zap.Logger, error) {
	if !service {
		return logging.ForCLI(verbose, quiet, "console")
	}
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(level, cfg.LogFormat)
}
