package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.PipelineService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.PipelineService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type UpdateStatusRequest struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
}

type OrderResponse struct {
	OrderID     string        `json:"order_id"`
	ShopID      string        `json:"shop_id"`
	Status      domain.Status `json:"status"`
	ProcessedBy *string       `json:"processed_by,omitempty"`
	UpdatedAt   string        `json:"updated_at"`
}

// UpdateStatus serves POST /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	// Валидация входных данных
	if validationErrors := validateUpdateStatusRequest(req); len(validationErrors) > 0 {
		h.logger.Warn("validation_failed", "Status update validation failed", r.Header.Get(requestIDHeader), map[string]interface{}{
			"errors": validationErrors,
		})
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), interfaces.UpdateStatusCommand{
		OrderID:   r.PathValue("id"),
		Status:    domain.Status(req.Status),
		ChangedBy: strings.TrimSpace(req.ChangedBy),
	})
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("status_update_failed", "Failed to update order status", r.Header.Get(requestIDHeader), nil, err)
			respondError(w, "Internal server error", code, nil)
			return
		}
		respondError(w, err.Error(), code, nil)
		return
	}

	respondJSON(w, http.StatusOK, OrderResponse{
		OrderID:     order.ID,
		ShopID:      order.ShopID,
		Status:      order.Status,
		ProcessedBy: order.ProcessedBy,
		UpdatedAt:   order.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func validateUpdateStatusRequest(req UpdateStatusRequest) []ValidationError {
	var errors []ValidationError

	if req.Status == "" {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "status is required",
		})
	} else if !domain.Status(req.Status).Valid() {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of: %s, %s, %s, %s, %s",
				domain.StatusPending, domain.StatusProcessing, domain.StatusCompleted, domain.StatusCancelled, domain.StatusPickedUp),
		})
	}

	changedBy := strings.TrimSpace(req.ChangedBy)
	if changedBy == "" {
		errors = append(errors, ValidationError{
			Field:   "changed_by",
			Message: "changed_by is required",
		})
	} else if len(changedBy) > 100 {
		errors = append(errors, ValidationError{
			Field:   "changed_by",
			Message: "changed_by must not exceed 100 characters",
		})
	}

	return errors
}
