package orders

import (
	"github.com/shopspring/decimal"

	"oma-gateway/internal/format"
)

// Status of a whole order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusDispatched Status = "dispatched"
)

// ManagerRole sees every order; any other role sees the orders it placed.
const ManagerRole = "Manager"

// Item is one product line of an order.
type Item struct {
	SheetRow         int    `json:"sheetRow"`
	ProductName      string `json:"productName"`
	Quantity         string `json:"quantity"`
	Unit             string `json:"unit"`
	Rate             string `json:"rate"`
	Amount           string `json:"amount"`
	Approved         string `json:"approved"`
	Rejected         bool   `json:"rejected"`
	Dispatched       bool   `json:"dispatched"`
	ManagerComments  string `json:"managerComments"`
	DispatchComments string `json:"dispatchComments"`
	DispatchTime     string `json:"dispatchTime"`
}

// Order is the lines sharing one order id.
type Order struct {
	OrderID         string          `json:"orderId"`
	FiscalYear      string          `json:"fiscalYear"`
	Date            string          `json:"date"`
	CustomerName    string          `json:"customerName"`
	User            string          `json:"user"`
	Source          string          `json:"source"`
	OrderComments   string          `json:"orderComments"`
	ManagerComments string          `json:"managerComments"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalFormatted  string          `json:"totalFormatted"`
	Status          Status          `json:"status"`
}

// Group collects lines into orders in first-seen order. Lines without an
// order id are grouped under "".
func Group(lines []Line) []Order {
	index := make(map[string]int)
	var out []Order

	for _, l := range lines {
		i, ok := index[l.OrderID]
		if !ok {
			date := l.OrderTime
			if date == "" {
				date = l.SysTime
			}
			fy, _, _ := SplitOrderID(l.OrderID)
			out = append(out, Order{
				OrderID:         l.OrderID,
				FiscalYear:      fy,
				Date:            date,
				CustomerName:    l.CustomerName,
				User:            l.User,
				Source:          l.Source,
				OrderComments:   l.OrderComments,
				ManagerComments: l.ManagerComments,
				Items:           []Item{},
			})
			i = len(out) - 1
			index[l.OrderID] = i
		}

		o := &out[i]
		o.Items = append(o.Items, Item{
			SheetRow:         l.SheetRow,
			ProductName:      l.ProductName,
			Quantity:         l.Quantity,
			Unit:             l.Unit,
			Rate:             l.Rate,
			Amount:           l.Amount,
			Approved:         l.Approved,
			Rejected:         l.Approved == FlagNo,
			Dispatched:       l.Dispatched == FlagYes,
			ManagerComments:  l.ManagerComments,
			DispatchComments: l.DispatchComments,
			DispatchTime:     l.DispatchTime,
		})
		o.TotalAmount = o.TotalAmount.Add(format.ParseAmount(l.Amount))
	}

	for i := range out {
		out[i].Status = deriveStatus(out[i].Items)
		out[i].TotalFormatted = format.IndianDecimal(out[i].TotalAmount)
	}
	return out
}

// deriveStatus: any rejected line rejects the order; otherwise it is
// dispatched when every line is, approved when every line is, else pending.
func deriveStatus(items []Item) Status {
	allDispatched := len(items) > 0
	allApproved := len(items) > 0
	for _, it := range items {
		if it.Rejected {
			return StatusRejected
		}
		if !it.Dispatched {
			allDispatched = false
		}
		if it.Approved != FlagYes {
			allApproved = false
		}
	}
	switch {
	case allDispatched:
		return StatusDispatched
	case allApproved:
		return StatusApproved
	default:
		return StatusPending
	}
}

func filterLines(lines []Line, keep func(Line) bool) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// ForRole returns every line for a manager and the role's own lines
// otherwise.
func ForRole(lines []Line, role string) []Line {
	if role == ManagerRole {
		return lines
	}
	return filterLines(lines, func(l Line) bool { return l.User == role })
}

// PendingApproval groups the lines a manager has not decided yet.
func PendingApproval(lines []Line) []Order {
	return Group(filterLines(lines, func(l Line) bool {
		return l.OrderID != "" && l.IsPendingApproval()
	}))
}

// AwaitingDispatch groups approved lines that have not shipped.
func AwaitingDispatch(lines []Line) []Order {
	return Group(filterLines(lines, func(l Line) bool {
		return l.OrderID != "" && l.IsAwaitingDispatch()
	}))
}
