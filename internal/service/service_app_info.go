package service

import (
	"context"

	"github.com/dkotelnikov/go-sync-ledger/internal/config"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
)

type appInfoService struct {
	version string

	logger *logger.Logger
}

// NewAppInfoService constructs an [AppInfoService] from the app config.
func NewAppInfoService(cfg *config.StructuredConfig, logger *logger.Logger) AppInfoService {
	return &appInfoService{
		version: cfg.App.Version,
		logger:  logger,
	}
}

func (s *appInfoService) GetAppVersion(_ context.Context) string {
	return s.version
}
