package http

import (
	"encoding/json"
	"net/http"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/utils"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

func (h *Handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request models.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	device, err := h.services.DeviceService.Register(ctx, request.DeviceID, request.Info)
	if err != nil {
		log.Err(err).Str("func", "*Handler.registerDevice").Msg("device registration failed")
		http.Error(w, "device registration failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, device, http.StatusOK)
}
