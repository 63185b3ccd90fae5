package main

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/config"
	logpkg "github.com/kailas-cloud/vectro/internal/logger"
	"github.com/kailas-cloud/vectro/internal/metrics"
	"github.com/kailas-cloud/vectro/internal/probe"
	"github.com/kailas-cloud/vectro/internal/state"
	"github.com/kailas-cloud/vectro/internal/task"
	"github.com/kailas-cloud/vectro/internal/telemetry"
	healthuc "github.com/kailas-cloud/vectro/internal/usecase/health"
	"github.com/kailas-cloud/vectro/internal/vectorstore"
)

// app is the composition root: every component is built here from one Config.
type app struct {
	env       string
	cfg       config.Config
	logger    *zap.Logger
	state     *state.Store
	telemetry *telemetry.Log
	driver    vectorstore.Driver
	gateway   *vectorstore.Gateway
	embedders *embedderSet
	out       io.Writer
}

func newApp(env string, cfg config.Config, out io.Writer) (*app, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterTaskMetrics()

	driver, err := newDriver(cfg, logger)
	if err != nil {
		return nil, err
	}
	prober := probe.New(time.Duration(cfg.Store.ProbeTimeoutSec)*time.Second, logger)

	a := &app{
		env:       env,
		cfg:       cfg,
		logger:    logger,
		state:     state.NewStore(cfg.Paths.StateDir),
		telemetry: telemetry.New(cfg.Paths.Telemetry, logger),
		driver:    driver,
		gateway:   vectorstore.New(driver, prober, logger),
		out:       out,
	}
	a.embedders = newEmbedderSet(cfg, driver, logger)

	logger.Debug("Configured vectro",
		zap.String("env", env),
		zap.String("driver", driver.Name()),
		zap.String("store_url", cfg.Store.URL),
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.String("collection", cfg.Collection.Name),
	)
	return a, nil
}

func newDriver(cfg config.Config, logger *zap.Logger) (vectorstore.Driver, error) {
	switch cfg.Store.Driver {
	case config.DriverQdrant:
		return vectorstore.NewQdrant(cfg.Store.URL, cfg.Store.GRPCPort, cfg.Store.APIKey, logger), nil
	case config.DriverValkey:
		return vectorstore.NewValkey(vectorstore.ValkeyOptions{
			URL:         cfg.Store.URL,
			Password:    cfg.Store.Password,
			M:           cfg.Store.HNSWM,
			EFConstruct: cfg.Store.HNSWEFConstruct,
		}, logger), nil
	case config.DriverEmbedded:
		return vectorstore.NewEmbedded(cfg.Store.Path, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// registry wires the task handlers to the live components.
func (a *app) registry() *task.Registry {
	return task.NewRegistry(
		task.Settings{
			Collection: a.cfg.Collection.Name,
			Query:      a.cfg.Query.Input,
			Limit:      a.cfg.Query.Limit,
			Dimensions: a.cfg.Embedding.Dimensions,
		},
		task.Deps{
			Store:         a.gateway,
			State:         a.state,
			Embedder:      a.embedders.document(),
			QueryEmbedder: a.embedders.query(),
			Logger:        a.logger,
		},
		a.telemetry,
		a.out,
	)
}

func (a *app) health() *healthuc.Service {
	return healthuc.New(a.gateway, a.embedders.document(), a.logger)
}

// flushMetrics writes the textfile export when configured.
func (a *app) flushMetrics() {
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("Failed to write metrics textfile", zap.Error(err))
	}
}

// Close releases long-lived clients.
func (a *app) Close() {
	a.embedders.Close()
	_ = a.logger.Sync()
}
