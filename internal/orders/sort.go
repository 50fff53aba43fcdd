package orders

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"oma-gateway/internal/format"
)

// SplitOrderID splits "2024-2025_00001" into its fiscal year and number.
// ok is false when the id has no "_" or no leading digits after it.
func SplitOrderID(id string) (fiscalYear string, n int, ok bool) {
	fy, rest, found := strings.Cut(id, "_")
	if !found {
		return "", 0, false
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return fy, 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return fy, 0, false
	}
	return fy, n, true
}

// FormatOrderID is the inverse of SplitOrderID, padding to five digits.
func FormatOrderID(fiscalYear string, n int) string {
	s := strconv.Itoa(n)
	if len(s) < 5 {
		s = strings.Repeat("0", 5-len(s)) + s
	}
	return fiscalYear + "_" + s
}

// Sort keys accepted by SortOrders.
const (
	SortDate     = "date"
	SortOrderID  = "orderId"
	SortAmount   = "amount"
	SortCustomer = "customer"
)

// SortOrders sorts in place by key. Unknown keys sort by date. Ties keep
// their current order.
func SortOrders(orders []Order, key string, desc bool) {
	var less func(a, b Order) bool
	switch key {
	case SortOrderID:
		less = orderIDLess
	case SortAmount:
		less = func(a, b Order) bool { return a.TotalAmount.LessThan(b.TotalAmount) }
	case SortCustomer:
		less = func(a, b Order) bool {
			return strings.ToLower(a.CustomerName) < strings.ToLower(b.CustomerName)
		}
	default:
		now := time.Now()
		less = func(a, b Order) bool {
			return format.ParseTimestampAt(a.Date, now) < format.ParseTimestampAt(b.Date, now)
		}
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if desc {
			return less(orders[j], orders[i])
		}
		return less(orders[i], orders[j])
	})
}

// SortByDate sorts newest first; unparseable dates go last.
func SortByDate(orders []Order) { SortOrders(orders, SortDate, true) }

// SortByOrderID sorts by fiscal year, then number, highest first.
func SortByOrderID(orders []Order) { SortOrders(orders, SortOrderID, true) }

func orderIDLess(a, b Order) bool {
	fa, na, _ := SplitOrderID(a.OrderID)
	fb, nb, _ := SplitOrderID(b.OrderID)
	if fa != fb {
		return fa < fb
	}
	return na < nb
}

// Search keeps orders whose id, customer or any product name contains q,
// case-insensitively. An empty query keeps everything.
func Search(orders []Order, q string) []Order {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return orders
	}
	out := make([]Order, 0)
	for _, o := range orders {
		if matches(o, q) {
			out = append(out, o)
		}
	}
	return out
}

func matches(o Order, q string) bool {
	if strings.Contains(strings.ToLower(o.OrderID), q) ||
		strings.Contains(strings.ToLower(o.CustomerName), q) {
		return true
	}
	for _, it := range o.Items {
		if strings.Contains(strings.ToLower(it.ProductName), q) {
			return true
		}
	}
	return false
}
