package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"oma-gateway/internal/fetch"
	"oma-gateway/internal/format"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/sheets"
	"oma-gateway/internal/store"
)

// Cache keys owned by this package.
const (
	KeyMyOrders        = "myOrders"
	KeyPendingApproval = "pendingApprovalOrders"
	KeyApproved        = "approvedOrders"
	KeyDashboard       = "dashboardStats"
)

// DashboardRefreshInterval throttles non-forced dashboard refreshes.
const DashboardRefreshInterval = 60 * time.Second

const (
	linesRange    = "A2:Q"
	statsRange    = "A2:P"
	orderIDRange  = "A1:F"
	defaultReject = "No reason provided"
	writeWorkers  = 4
)

var (
	ErrNoItemsUpdated = errors.New("orders: no items were updated")
	ErrOrderNotFound  = errors.New("orders: order not found")
	ErrInvalidOrder   = errors.New("orders: invalid order")
)

type Service struct {
	sheets *sheets.Client
	cache  *store.Cache
	logger *logs.Logger
	now    func() time.Time
}

func NewService(sc *sheets.Client, cache *store.Cache, logger *logs.Logger) *Service {
	return &Service{
		sheets: sc,
		cache:  cache,
		logger: logger.With("orders"),
		now:    time.Now,
	}
}

// SetClock replaces the time source used for ids, timestamps and throttling.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) readLines(ctx context.Context, rng string) ([]Line, error) {
	tbl, err := s.sheets.Values(ctx, sheets.OrderSheet, rng, fetch.WithRetries(2, 1500*time.Millisecond))
	if errors.Is(err, sheets.ErrNoValues) {
		s.logger.Warn("order sheet returned no values")
		return []Line{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseLines(tbl), nil
}

// Lines returns every order line, cached under myOrders.
func (s *Service) Lines(ctx context.Context) ([]Line, error) {
	return store.Fetch(ctx, s.cache, KeyMyOrders, func(ctx context.Context) ([]Line, error) {
		return s.readLines(ctx, linesRange)
	})
}

// Orders returns the orders visible to role, newest first.
func (s *Service) Orders(ctx context.Context, role string) ([]Order, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return nil, err
	}
	out := Group(ForRole(lines, role))
	SortByDate(out)
	return out, nil
}

// Pending returns orders with lines awaiting a manager decision.
func (s *Service) Pending(ctx context.Context) ([]Order, error) {
	return store.Fetch(ctx, s.cache, KeyPendingApproval, func(ctx context.Context) ([]Order, error) {
		lines, err := s.readLines(ctx, linesRange)
		if err != nil {
			return nil, err
		}
		out := PendingApproval(lines)
		SortByDate(out)
		return out, nil
	})
}

// Approved returns orders with approved lines still to dispatch.
func (s *Service) Approved(ctx context.Context) ([]Order, error) {
	return store.Fetch(ctx, s.cache, KeyApproved, func(ctx context.Context) ([]Order, error) {
		lines, err := s.readLines(ctx, linesRange)
		if err != nil {
			return nil, err
		}
		out := AwaitingDispatch(lines)
		SortByDate(out)
		return out, nil
	})
}

// NextOrderID returns the next id of the fiscal year containing now:
// the highest existing number with that prefix plus one.
func (s *Service) NextOrderID(ctx context.Context, now time.Time) (string, error) {
	prefix := format.FiscalYear(now)

	tbl, err := s.sheets.Values(ctx, sheets.OrderSheet, orderIDRange, fetch.WithRetries(2, 1500*time.Millisecond))
	if err != nil && !errors.Is(err, sheets.ErrNoValues) {
		return "", fmt.Errorf("next order id: %w", err)
	}

	maxN := 0
	for _, row := range tbl {
		fy, n, ok := SplitOrderID(sheets.Cell(row, ColOrderID))
		if ok && fy == prefix && n > maxN {
			maxN = n
		}
	}
	id := FormatOrderID(prefix, maxN+1)
	s.logger.Debugf("generated order id %s", id)
	return id, nil
}

// NewItem is one product of a submitted order.
type NewItem struct {
	ProductName string `json:"productName"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

// NewOrder is an order as entered. OrderID is generated when empty and
// OrderTime defaults to the submission time.
type NewOrder struct {
	OrderID      string    `json:"orderId"`
	Role         string    `json:"role"`
	CustomerName string    `json:"customerName"`
	OrderTime    time.Time `json:"orderTime"`
	Comments     string    `json:"comments"`
	Source       string    `json:"source"`
	Items        []NewItem `json:"items"`
}

func (o NewOrder) validate() error {
	switch {
	case strings.TrimSpace(o.Role) == "":
		return fmt.Errorf("%w: user not logged in", ErrInvalidOrder)
	case strings.TrimSpace(o.CustomerName) == "":
		return fmt.Errorf("%w: customer is required", ErrInvalidOrder)
	case len(o.Items) == 0:
		return fmt.Errorf("%w: at least one product is required", ErrInvalidOrder)
	}
	return nil
}

// Rows renders the order as sheet rows A..P, one per item. Orders placed
// by a manager are approved on entry.
func (o NewOrder) Rows(now time.Time) [][]string {
	approval := FlagRequested
	if o.Role == ManagerRole {
		approval = FlagYes
	}
	orderTime := o.OrderTime
	if orderTime.IsZero() {
		orderTime = now
	}
	rows := make([][]string, 0, len(o.Items))
	for _, it := range o.Items {
		rows = append(rows, []string{
			format.FormatTimestamp(now),
			format.FormatTimestamp(orderTime),
			o.Role,
			o.Comments,
			o.CustomerName,
			o.OrderID,
			it.ProductName,
			it.Quantity,
			it.Unit,
			it.Rate,
			it.Amount,
			o.Source,
			approval,
			"",
			"",
			"",
		})
	}
	return rows
}

// Submit appends the order and returns its id.
func (s *Service) Submit(ctx context.Context, o NewOrder) (string, error) {
	if err := o.validate(); err != nil {
		return "", err
	}
	now := s.now()
	if o.OrderID == "" {
		id, err := s.NextOrderID(ctx, now)
		if err != nil {
			return "", err
		}
		o.OrderID = id
	}

	if _, err := s.sheets.Append(ctx, sheets.OrderSheet, o.Rows(now)); err != nil {
		return "", fmt.Errorf("submit %s: %w", o.OrderID, err)
	}
	s.cache.Invalidate(ctx, KeyMyOrders, KeyPendingApproval, KeyDashboard)
	s.logger.Infof("order %s submitted with %d items", o.OrderID, len(o.Items))
	return o.OrderID, nil
}

// WriteResult counts per-row outcomes of a multi-row write.
type WriteResult struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Approve marks rows approved with note as the manager comment.
func (s *Service) Approve(ctx context.Context, rows []int, note string) (WriteResult, error) {
	return s.decide(ctx, rows, FlagYes, note)
}

// Reject marks rows rejected. An empty reason is recorded as
// "No reason provided".
func (s *Service) Reject(ctx context.Context, rows []int, reason string) (WriteResult, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultReject
	}
	return s.decide(ctx, rows, FlagNo, reason)
}

// decide writes [flag, note] into M{r}:N{r} for every row in parallel.
// One successful row is enough for the decision to stand. Rows above the
// first data row are refused without a write.
func (s *Service) decide(ctx context.Context, rows []int, flag, note string) (WriteResult, error) {
	var (
		mu  sync.Mutex
		res WriteResult
		g   errgroup.Group
	)
	g.SetLimit(writeWorkers)

	for _, r := range rows {
		if r < firstDataRow {
			mu.Lock()
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: not an order line", r))
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			err := s.sheets.Update(ctx, sheets.OrderSheet, cellRange("M", "N", r),
				[][]string{{flag, note}}, fetch.WithRetries(2, time.Second))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", r, err))
				s.logger.Warnf("set row %d to %s: %v", r, flag, err)
				return nil
			}
			res.Updated++
			return nil
		})
	}
	_ = g.Wait()

	if res.Updated == 0 {
		return res, ErrNoItemsUpdated
	}
	s.cache.Invalidate(ctx, KeyPendingApproval, KeyApproved, KeyMyOrders, KeyDashboard)
	s.logger.Infof("%d rows set to %s, %d failed", res.Updated, flag, res.Failed)
	return res, nil
}

// Dispatch marks one row dispatched, stores a trimmed non-empty remark and
// stamps the dispatch time.
func (s *Service) Dispatch(ctx context.Context, row int, remark string, now time.Time) error {
	opt := fetch.WithRetries(3, time.Second)

	if err := s.sheets.Update(ctx, sheets.OrderSheet, cellRange("O", "", row), [][]string{{FlagYes}}, opt); err != nil {
		return fmt.Errorf("dispatch row %d: %w", row, err)
	}
	if remark = strings.TrimSpace(remark); remark != "" {
		if err := s.sheets.Update(ctx, sheets.OrderSheet, cellRange("P", "", row), [][]string{{remark}}, opt); err != nil {
			return fmt.Errorf("dispatch remark row %d: %w", row, err)
		}
	}
	if err := s.sheets.Update(ctx, sheets.OrderSheet, cellRange("Q", "", row),
		[][]string{{format.FormatTimestamp(now)}}, opt); err != nil {
		return fmt.Errorf("dispatch time row %d: %w", row, err)
	}

	s.cache.Invalidate(ctx, KeyApproved, KeyMyOrders, KeyDashboard)
	s.logger.Infof("row %d dispatched", row)
	return nil
}

// linesOf returns the lines of orderID that satisfy keep.
func (s *Service) linesOf(ctx context.Context, orderID string, keep func(Line) bool) ([]int, error) {
	lines, err := s.readLines(ctx, linesRange)
	if err != nil {
		return nil, err
	}
	var rows []int
	for _, l := range lines {
		if l.OrderID == orderID && keep(l) {
			rows = append(rows, l.SheetRow)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return rows, nil
}

// restrict keeps the rows listed in eligible, or all of eligible when rows
// is empty. Every other row is reported as a failure.
func restrict(rows, eligible []int, why string) ([]int, WriteResult) {
	if len(rows) == 0 {
		return eligible, WriteResult{}
	}
	allowed := make(map[int]bool, len(eligible))
	for _, r := range eligible {
		allowed[r] = true
	}
	var (
		keep    []int
		refused WriteResult
	)
	for _, r := range rows {
		if !allowed[r] {
			refused.Failed++
			refused.Errors = append(refused.Errors, fmt.Sprintf("row %d: %s", r, why))
			continue
		}
		keep = append(keep, r)
	}
	return keep, refused
}

// ApproveOrder approves the given rows of orderID, or every undecided line
// when rows is empty. Rows that are not undecided lines of the order are
// refused.
func (s *Service) ApproveOrder(ctx context.Context, orderID string, rows []int, note string) (WriteResult, error) {
	return s.decideOrder(ctx, orderID, rows, FlagYes, note)
}

// RejectOrder is ApproveOrder for rejections.
func (s *Service) RejectOrder(ctx context.Context, orderID string, rows []int, reason string) (WriteResult, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultReject
	}
	return s.decideOrder(ctx, orderID, rows, FlagNo, reason)
}

func (s *Service) decideOrder(ctx context.Context, orderID string, rows []int, flag, note string) (WriteResult, error) {
	eligible, err := s.linesOf(ctx, orderID, Line.IsPendingApproval)
	if err != nil {
		return WriteResult{}, err
	}
	own, refused := restrict(rows, eligible, "not pending approval in "+orderID)

	res := WriteResult{}
	if len(own) > 0 {
		res, err = s.decide(ctx, own, flag, note)
	} else {
		err = ErrNoItemsUpdated
	}
	res.Failed += refused.Failed
	res.Errors = append(refused.Errors, res.Errors...)
	return res, err
}

// DispatchOrder dispatches the given rows of orderID, or every approved
// undispatched line when rows is empty. Rows not belonging to the order
// are refused.
func (s *Service) DispatchOrder(ctx context.Context, orderID string, rows []int, remark string) (WriteResult, error) {
	eligible, err := s.linesOf(ctx, orderID, Line.IsAwaitingDispatch)
	if err != nil {
		return WriteResult{}, err
	}
	rows, res := restrict(rows, eligible, "not awaiting dispatch in "+orderID)

	now := s.now()
	for _, r := range rows {
		if err := s.Dispatch(ctx, r, remark, now); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		res.Updated++
	}
	if res.Updated == 0 {
		return res, ErrNoItemsUpdated
	}
	return res, nil
}

// dashboardEntry is the cached dashboard with its computation time.
type dashboardEntry struct {
	Data      Dashboard `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

// Dashboard returns the summary counts. Without force a result computed
// less than DashboardRefreshInterval ago is reused.
func (s *Service) Dashboard(ctx context.Context, force bool) (Dashboard, error) {
	now := s.now()
	if !force {
		if cached, ok := store.GetAs[dashboardEntry](s.cache, KeyDashboard); ok &&
			now.UnixMilli()-cached.Timestamp < DashboardRefreshInterval.Milliseconds() {
			return cached.Data, nil
		}
	}

	lines, err := s.readLines(ctx, statsRange)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	d := ComputeDashboard(lines, now)
	s.cache.Set(ctx, KeyDashboard, dashboardEntry{Data: d, Timestamp: now.UnixMilli()})
	return d, nil
}
