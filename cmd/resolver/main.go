package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/internal/adapter"
	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/tui"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewConsoleLogger("resolver")
	cfg, err := config.GetResolverConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	client, err := adapter.NewHTTPEngineClient(adapter.HTTPClientConfig{
		BaseURL: cfg.EngineAddress,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create engine client")
	}

	console := tui.New(client, cfg.Operator, log)
	if err = console.Run(context.Background()); err != nil && !errors.Is(err, tui.ErrUserQuit) {
		log.Fatal().Err(err).Msg("console run error")
	}
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
