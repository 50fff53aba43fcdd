// Package api is the local JSON gateway over the order, ledger and
// catalog services.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"oma-gateway/internal/backend"
	"oma-gateway/internal/catalog"
	"oma-gateway/internal/health"
	"oma-gateway/internal/ledger"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
	"oma-gateway/internal/orders"
	"oma-gateway/internal/session"
	"oma-gateway/internal/store"
)

// pathVar returns the unescaped route variable. A value that does not
// unescape is returned as matched.
func pathVar(r *http.Request, name string) string {
	v := mux.Vars(r)[name]
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// RoleHeader carries the signed-in user's role.
const RoleHeader = "X-User-Role"

// Services are the handler dependencies.
type Services struct {
	Cache   *store.Cache
	Ledger  *ledger.Service
	Orders  *orders.Service
	Catalog *catalog.Service
	Session *session.Store
	Monitor *backend.Monitor
	Metrics *metrics.Registry
	Logger  *logs.Logger
}

type Handler struct {
	cache    *store.Cache
	ledger   *ledger.Service
	orders   *orders.Service
	catalog  *catalog.Service
	session  *session.Store
	monitor  *backend.Monitor
	metrics  *metrics.Registry
	logger   *logs.Logger
	analyzer *health.Analyzer
}

func NewHandler(s Services) *Handler {
	return &Handler{
		cache:    s.Cache,
		ledger:   s.Ledger,
		orders:   s.Orders,
		catalog:  s.Catalog,
		session:  s.Session,
		monitor:  s.Monitor,
		metrics:  s.Metrics,
		logger:   s.Logger.With("api"),
		analyzer: health.NewAnalyzer(s.Metrics, s.Logger),
	}
}

/* ---------------- customers and ledger ---------------- */

// GET /customers?q=
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	var (
		out []catalog.Customer
		err error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		out, err = h.catalog.SearchCustomers(r.Context(), q)
	} else {
		out, err = h.catalog.Customers(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /customers/{name}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ledger.Summary(r.Context(), pathVar(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /customers/{name}/ledger.xlsx
func (h *Handler) ExportLedger(w http.ResponseWriter, r *http.Request) {
	name := pathVar(r, "name")
	sum, err := h.ledger.Summary(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := ledger.WriteXLSX(&buf, sum); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''`+url.PathEscape(name+"_ledger.xlsx"))
	_, _ = w.Write(buf.Bytes())
}

/* ---------------- products ---------------- */

type productsResponse struct {
	Products   []catalog.Product `json:"products"`
	Categories []string          `json:"categories"`
}

// GET /products?category=&q=
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	all, err := h.catalog.Products(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, productsResponse{
		Products:   catalog.FilterProducts(all, q.Get("category"), q.Get("q")),
		Categories: catalog.Categories(all),
	})
}

/* ---------------- orders ---------------- */

func role(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(RoleHeader))
}

// GET /orders?sort=&dir=&q=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userRole := role(r)
	if userRole == "" {
		writeError(w, http.StatusBadRequest, errMissingRole.Error())
		return
	}
	out, err := h.orders.Orders(r.Context(), userRole)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	if s := q.Get("q"); s != "" {
		out = orders.Search(out, s)
	}
	if key := q.Get("sort"); key != "" || q.Get("dir") != "" {
		orders.SortOrders(out, key, q.Get("dir") != "asc")
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /orders/pending
func (h *Handler) PendingOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.Pending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /orders/approved
func (h *Handler) ApprovedOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.Approved(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /orders
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.NewOrder
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if userRole := role(r); userRole != "" {
		req.Role = userRole
	}

	id, err := h.orders.Submit(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"orderId": id})
}

type decisionRequest struct {
	Rows   []int  `json:"rows"`
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// decode reads an optional JSON body into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// POST /orders/{id}/approve
func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// POST /orders/{id}/reject
func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

// decide approves or rejects the listed rows of the order, or every
// undecided line when no rows are given.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	if role(r) != orders.ManagerRole {
		writeError(w, http.StatusForbidden, errForbidden.Error())
		return
	}
	var req decisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := pathVar(r, "id")
	ctx := r.Context()

	var (
		res orders.WriteResult
		err error
	)
	if approve {
		res, err = h.orders.ApproveOrder(ctx, id, req.Rows, req.Note)
	} else {
		res, err = h.orders.RejectOrder(ctx, id, req.Rows, req.Reason)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type dispatchRequest struct {
	Rows   []int  `json:"rows"`
	Remark string `json:"remark"`
}

// POST /orders/{id}/dispatch
func (h *Handler) DispatchOrder(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.orders.DispatchOrder(r.Context(), pathVar(r, "id"), req.Rows, req.Remark)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /dashboard?force=true
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	d, err := h.orders.Dashboard(r.Context(), force)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

/* ---------------- observability ---------------- */

// GET /metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

type healthResponse struct {
	health.Report
	Backend backend.Status `json:"backend"`
}

// GET /health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Report:  h.analyzer.Analyze(),
		Backend: h.monitor.Status(),
	})
}

// GET /admin/logs?n=
func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n <= 0 {
		n = 100
	}
	writeJSON(w, http.StatusOK, h.logger.GetLast(n))
}

/* ---------------- cache admin ---------------- */

// GET /admin/cache
func (h *Handler) ListCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Keys())
}

// DELETE /admin/cache
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /admin/cache/{key}
func (h *Handler) InvalidateKey(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate(r.Context(), pathVar(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}

/* ---------------- session ---------------- */

// GET /session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session.Current(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type signInRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Remember bool   `json:"remember"`
}

// PUT /session records who is signed in. Credentials are checked by the
// client; the gateway only persists the outcome.
func (h *Handler) PutSession(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, err := h.session.SignIn(r.Context(), req.Username, req.Role, req.Remember)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Infof("signed in %s as %s", sess.Username, sess.Role)
	writeJSON(w, http.StatusOK, sess)
}

// DELETE /session
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SignOut(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
