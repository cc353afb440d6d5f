package http

import (
	"encoding/json"
	"net/http"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/utils"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request models.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.SyncService.Pull(ctx, request.DeviceID, request.Since, request.Collections)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("pull failed")
		http.Error(w, "pull failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.SyncService.Push(ctx, request.DeviceID, request.Changes)
	if err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("push failed")
		http.Error(w, "push failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.SyncService.Sync(ctx, request.DeviceID, request.Info, request.Since, request.Changes)
	if err != nil {
		log.Err(err).Str("func", "*Handler.sync").Msg("sync cycle failed")
		http.Error(w, "sync cycle failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}
