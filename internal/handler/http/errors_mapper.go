package http

import (
	"errors"
	"net/http"

	"github.com/dkotelnikov/go-sync-ledger/internal/service"
	"github.com/dkotelnikov/go-sync-ledger/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrDeviceNotRegistered:     http.StatusUnauthorized,
	service.ErrNoDeviceIDProvided:      http.StatusBadRequest,
	service.ErrUnsupportedStrategy:     http.StatusBadRequest,
	service.ErrConflictAlreadyResolved: http.StatusConflict,

	store.ErrDeviceNotFound:        http.StatusNotFound,
	store.ErrRecordNotFound:        http.StatusNotFound,
	store.ErrVersionNotFound:       http.StatusNotFound,
	store.ErrPendingChangeNotFound: http.StatusNotFound,
	store.ErrVersionConflict:       http.StatusConflict,
	store.ErrUnknownCollection:     http.StatusBadRequest,

	store.ErrBuildingSQLQuery: http.StatusInternalServerError,
	store.ErrExecutingQuery:   http.StatusInternalServerError,
	store.ErrScanningRow:      http.StatusInternalServerError,
	store.ErrScanningRows:     http.StatusInternalServerError,
	store.ErrEncodingSnapshot: http.StatusInternalServerError,
	store.ErrDecodingSnapshot: http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
