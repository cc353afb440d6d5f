package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/utils"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

func (h *Handler) listConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	deviceID := r.URL.Query().Get("device_id")

	conflicts, err := h.services.ConflictService.ListPendingConflicts(ctx, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listConflicts").Msg("listing conflicts failed")
		http.Error(w, "listing conflicts failed", statusFromError(err))
		return
	}

	response := models.ConflictListResponse{
		Conflicts: conflicts,
		Length:    len(conflicts),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	conflictID, err := strconv.ParseInt(chi.URLParam(r, "conflictID"), 10, 64)
	if err != nil {
		log.Err(err).Msg("invalid conflict id")
		http.Error(w, "invalid conflict id", http.StatusBadRequest)
		return
	}

	var request models.ResolveConflictRequest
	if err = json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.ConflictService.Resolve(ctx, conflictID, request.Strategy, request.ResolvedBy, request.MergedData)
	if err != nil {
		log.Err(err).
			Str("func", "*Handler.resolveConflict").
			Int64("conflict_id", conflictID).
			Msg("conflict resolution failed")
		http.Error(w, "conflict resolution failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}
