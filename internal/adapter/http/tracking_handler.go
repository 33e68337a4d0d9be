package http

import (
	"net/http"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

// GetOrderStatus serves GET /orders/{id}/status.
func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrderStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"order_id":           result.OrderID,
		"shop_id":            result.ShopID,
		"current_status":     result.CurrentStatus,
		"updated_at":         result.UpdatedAt,
		"estimated_ready_at": result.EstimatedReadyAt,
		"processed_by":       result.ProcessedBy,
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetOrderHistory serves GET /orders/{id}/history.
func (h *TrackingHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetOrderHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := make([]map[string]interface{}, len(history))
	for i, log := range history {
		resp[i] = map[string]interface{}{
			"status":     log.Status,
			"timestamp":  log.ChangedAt,
			"changed_by": log.ChangedBy,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusNotFound {
		respondError(w, "Order not found", code, nil)
		return
	}
	h.logger.Error("tracking_failed", "Failed to load order", r.Header.Get(requestIDHeader), map[string]interface{}{
		"order_id": r.PathValue("id"),
	}, err)
	respondError(w, "Internal server error", code, nil)
}
