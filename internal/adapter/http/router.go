package http

import (
	"net/http"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
)

// NewRouter registers every vendor route behind the logging and recovery
// middleware.
func NewRouter(queue *QueueHandler, orders *OrderHandler, tracking *TrackingHandler, logger logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /shops/{id}/queue", queue.GetQueue)
	mux.HandleFunc("GET /shops/{id}/queue/next", queue.Next)
	mux.HandleFunc("POST /orders/{id}/status", orders.UpdateStatus)
	mux.HandleFunc("GET /orders/{id}/status", tracking.GetOrderStatus)
	mux.HandleFunc("GET /orders/{id}/history", tracking.GetOrderHistory)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var handler http.Handler = mux
	handler = LoggingMiddleware(logger)(handler)
	handler = RecoveryMiddleware(logger)(handler)
	return handler
}
