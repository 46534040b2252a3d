package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/catalog"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/delivery"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/fetch"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/generation"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/http/handlers"
	httpapi "github.com/poncianopadolcg658-byte/maimaidoubao/internal/http/httpapi"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/infra"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/models"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/providers/ark"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/storage"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// Storage layout first: everything else hangs off the video directory.
	files, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.StorageDir).Msg("failed to prepare storage directory")
	}

	store, err := catalog.Load(files.MetadataPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load video catalog")
	}
	resolver := catalog.NewResolver(store)

	registry, err := models.Load(files.SettingsPath(), cfg.DefaultModelID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load model settings")
	}

	arkClient, err := ark.NewClient(ark.Options{
		APIKey:  cfg.ArkKey,
		BaseURL: cfg.ArkBase,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build ark client")
	}

	poller := generation.NewPoller(arkClient, generation.PollerConfig{
		Interval: cfg.PollInterval,
		MaxWait:  cfg.MaxWait,
	}, &logger)
	fetcher := fetch.New(fetch.Options{Logger: &logger})
	orchestrator := generation.NewOrchestrator(poller, fetcher, store, files, registry, &logger)

	sink := delivery.New(delivery.Options{
		BaseURL: "http://localhost:" + cfg.NapcatPort,
		Token:   cfg.NapcatToken,
		Logger:  &logger,
	})

	app := &handlers.App{
		Logger:    logger,
		Generator: orchestrator,
		Catalog:   store,
		Resolver:  resolver,
		Sink:      sink,
		Models:    registry,
		Assets:    assetRemover{files: files, keep: cfg.KeepVideoFiles},
		Cfg:       cfg,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("doubaod listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// assetRemover deletes stored files for retired catalog entries, unless the
// operator configured the files to be kept on disk.
type assetRemover struct {
	files *storage.FileStore
	keep  bool
}

func (a assetRemover) Remove(id int64) error {
	if a.keep {
		return nil
	}
	return a.files.Remove(id)
}
