package tui

import (
	"github.com/dkotelnikov/go-sync-ledger/models"
)

type conflictsLoadedMsg struct {
	conflicts []models.PendingConflict
	err       error
}

type resolveDoneMsg struct {
	result models.ResolveResult
	err    error
}

type versionLoadedMsg struct {
	version string
}
