package main

import (
	"context"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	httpHandler "github.com/dkotelnikov/go-sync-ledger/internal/handler/http"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/server"
	"github.com/dkotelnikov/go-sync-ledger/internal/service"
	"github.com/dkotelnikov/go-sync-ledger/internal/store"
	"github.com/dkotelnikov/go-sync-ledger/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("sync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if cfg.App.Version == "" {
		cfg.App.Version = buildVersion
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	storages, err := store.NewStorages(context.Background(), cfg.Storage, cfg.Sync.Collections, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	services := service.NewServices(storages, cfg, log)
	handler := httpHandler.NewHandler(services, log)
	bgWorkers := workers.NewWorkers(cfg.Workers, services, log)

	srv, err := server.NewServer(handler.Init(), bgWorkers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
