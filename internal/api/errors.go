package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"oma-gateway/internal/fetch"
	"oma-gateway/internal/orders"
	"oma-gateway/internal/session"
	"oma-gateway/internal/sheets"
)

var (
	errMissingRole = errors.New("missing X-User-Role header")
	errForbidden   = errors.New("only a manager can decide orders")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// classify maps a service error to a status and a message that never
// carries a backend response body.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, orders.ErrInvalidOrder), errors.Is(err, session.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, orders.ErrNoItemsUpdated):
		return http.StatusBadGateway, "no items were updated"
	case errors.Is(err, sheets.ErrNotAppended):
		return http.StatusBadGateway, "backend did not store the order"
	case fetch.IsClientError(err):
		var he *fetch.HTTPError
		errors.As(err, &he)
		return http.StatusBadGateway, fmt.Sprintf("backend rejected the request (%d)", he.StatusCode)
	case fetch.IsExhausted(err):
		return http.StatusServiceUnavailable, "backend unavailable, try again later"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	}
	return http.StatusInternalServerError, "internal error"
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		h.logger.Warnf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, msg)
}
