package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"todod/internals/assert"
	"todod/internals/conf"
	"todod/internals/engine"
	"todod/internals/env"
	"todod/internals/oracle"
	"todod/internals/store"
)

// App bundles everything the daemon needs: config, env, logger, the
// session store and the execution engine.
type App struct {
	Config      *conf.Config
	Env         *env.EnvStruct
	Logger      *slog.Logger
	Store       store.Store
	Engine      *engine.Engine
	StepTimeout time.Duration

	apiKey  string
	baseURL string
	logFile *os.File
}

func New() *App {
	envs := env.Get()
	config := conf.GetConfig()
	if config.Server.DataDir != "" {
		config.Server.DataDir = filepath.Clean(config.Server.DataDir)
	}

	logger, logFile := InitLogger(config)

	sessionStore := InitStore(config, logger)

	model := config.Agent.DefaultModel
	if envs.MODEL != "" {
		model = envs.MODEL
	}
	oracleClient, err := oracle.NewOpenAIClient(envs.OPENAI_API_KEY, config.Agent.BaseURL, logger, oracle.WithModel(model))
	assert.AssertNil(err, "[CORE] Failed to initialize oracle client: ", err)

	stepTimeout, err := time.ParseDuration(config.Session.StepTimeout)
	if err != nil {
		logger.Warn("invalid step_timeout in config, using 2m", slog.String("value", config.Session.StepTimeout))
		stepTimeout = 2 * time.Minute
	}

	return &App{
		Config:      config,
		Env:         envs,
		Logger:      logger,
		Store:       sessionStore,
		Engine:      engine.New(oracleClient, logger),
		StepTimeout: stepTimeout,
		apiKey:      envs.OPENAI_API_KEY,
		baseURL:     config.Agent.BaseURL,
		logFile:     logFile,
	}
}

// EngineFor returns an engine bound to the requested model, falling back
// to the default engine when no override is given.
func (a *App) EngineFor(model string) (*engine.Engine, error) {
	if model == "" {
		return a.Engine, nil
	}
	client, err := oracle.NewOpenAIClient(a.apiKey, a.baseURL, a.Logger, oracle.WithModel(model))
	if err != nil {
		return nil, err
	}
	return engine.New(client, a.Logger), nil
}

func InitStore(config *conf.Config, logger *slog.Logger) store.Store {
	switch config.Store.Backend {
	case conf.StoreBackendSQLite:
		dbPath := filepath.Join(config.Server.DataDir, "sessions.db")
		err := os.MkdirAll(filepath.Dir(dbPath), 0o755)
		assert.AssertNil(err, "[CORE] Failed to create data directory: ", err)
		s, err := store.NewSQLiteStore(dbPath, logger)
		assert.AssertNil(err, "[CORE] Failed to initialize sqlite store: ", err)
		return s
	default:
		s, err := store.NewFileStore(filepath.Join(config.Server.DataDir, "sessions"), logger)
		assert.AssertNil(err, "[CORE] Failed to initialize file store: ", err)
		return s
	}
}

func (a *App) Close() {
	if closer, ok := a.Store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}
