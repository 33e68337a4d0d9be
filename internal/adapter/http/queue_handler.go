package http

import (
	"net/http"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type QueueHandler struct {
	service interfaces.QueueService
	logger  logger.Logger
}

func NewQueueHandler(service interfaces.QueueService, logger logger.Logger) *QueueHandler {
	return &QueueHandler{
		service: service,
		logger:  logger,
	}
}

// GetQueue serves GET /shops/{id}/queue. ?refresh=true bypasses the cache.
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("id")

	var (
		snap *interfaces.QueueSnapshot
		err  error
	)
	if r.URL.Query().Get("refresh") == "true" {
		snap, err = h.service.Refresh(r.Context(), shopID)
	} else {
		snap, err = h.service.GetQueue(r.Context(), shopID)
	}
	if err != nil {
		h.logger.Error("queue_failed", "Failed to build queue", r.Header.Get(requestIDHeader), map[string]interface{}{
			"shop_id": shopID,
		}, err)
		respondError(w, "Failed to build queue", statusFor(err), nil)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// Next serves GET /shops/{id}/queue/next.
func (h *QueueHandler) Next(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("id")

	entry, err := h.service.Next(r.Context(), shopID)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("queue_failed", "Failed to pick next order", r.Header.Get(requestIDHeader), map[string]interface{}{
				"shop_id": shopID,
			}, err)
		}
		respondError(w, err.Error(), code, nil)
		return
	}

	respondJSON(w, http.StatusOK, entry)
}
