package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the gateway on router. Paths are matched in their
// escaped form so a customer name such as "M/s Sharma Seeds" can travel as
// one segment ("M%2Fs%20Sharma%20Seeds").
func RegisterRoutes(router *mux.Router, h *Handler) http.Handler {
	router.UseEncodedPath()

	// Customers and ledger
	router.HandleFunc("/customers", h.ListCustomers).Methods(http.MethodGet)
	router.HandleFunc("/customers/{name}/ledger", h.GetLedger).Methods(http.MethodGet)
	router.HandleFunc("/customers/{name}/ledger.xlsx", h.ExportLedger).Methods(http.MethodGet)
	router.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)

	// Orders
	router.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	router.HandleFunc("/orders", h.SubmitOrder).Methods(http.MethodPost)
	router.HandleFunc("/orders/pending", h.PendingOrders).Methods(http.MethodGet)
	router.HandleFunc("/orders/approved", h.ApprovedOrders).Methods(http.MethodGet)
	router.HandleFunc("/orders/{id}/approve", h.ApproveOrder).Methods(http.MethodPost)
	router.HandleFunc("/orders/{id}/reject", h.RejectOrder).Methods(http.MethodPost)
	router.HandleFunc("/orders/{id}/dispatch", h.DispatchOrder).Methods(http.MethodPost)
	router.HandleFunc("/session", h.GetSession).Methods(http.MethodGet)
	router.HandleFunc("/session", h.PutSession).Methods(http.MethodPut)
	router.HandleFunc("/session", h.DeleteSession).Methods(http.MethodDelete)
	router.HandleFunc("/dashboard", h.GetDashboard).Methods(http.MethodGet)

	// Observability
	router.HandleFunc("/metrics", h.GetMetrics).Methods(http.MethodGet)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)

	// Admin
	router.HandleFunc("/admin/logs", h.GetLogs).Methods(http.MethodGet)
	router.HandleFunc("/admin/cache", h.ListCache).Methods(http.MethodGet)
	router.HandleFunc("/admin/cache", h.ClearCache).Methods(http.MethodDelete)
	router.HandleFunc("/admin/cache/{key}", h.InvalidateKey).Methods(http.MethodDelete)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return Chain(
		router,
		RecoveryMiddleware(h.logger),
		LoggingMiddleware(h.logger),
	)
}
