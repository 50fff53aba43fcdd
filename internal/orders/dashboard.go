package orders

import (
	"time"

	"oma-gateway/internal/format"
)

// recentWindow is how far back an order counts as recent, measured from
// local midnight.
const recentWindow = 7 * 24 * time.Hour

// minStatsWidth is the narrowest row that still carries the approval flag.
const minStatsWidth = ColApproved + 1

// Dashboard is the home screen summary.
type Dashboard struct {
	PendingApprovals  int       `json:"pendingApprovals"`
	PendingDispatches int       `json:"pendingDispatches"`
	RecentOrders      int       `json:"recentOrders"`
	TotalCustomers    int       `json:"totalCustomers"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type orderFlags struct {
	firstSeen    string
	pending      bool
	approved     bool
	undispatched bool
}

// ComputeDashboard counts distinct customers and orders:
// an order is pending approval when any line is "R" or blank, pending
// dispatch when it has an approved line not yet dispatched, and recent
// when its first line's SYS-TIME is on or after local midnight seven days
// ago. Rows too short to carry the approval column are skipped.
func ComputeDashboard(lines []Line, now time.Time) Dashboard {
	customers := make(map[string]struct{})
	flags := make(map[string]*orderFlags)
	var ids []string

	for _, l := range lines {
		if l.Width < minStatsWidth || l.OrderID == "" {
			continue
		}
		if l.CustomerName != "" {
			customers[l.CustomerName] = struct{}{}
		}
		f, ok := flags[l.OrderID]
		if !ok {
			f = &orderFlags{firstSeen: l.SysTime}
			flags[l.OrderID] = f
			ids = append(ids, l.OrderID)
		}
		if l.IsPendingApproval() {
			f.pending = true
		}
		if l.Approved == FlagYes {
			f.approved = true
		}
	}

	// dispatch state is read from every row of a known order, short or not
	for _, l := range lines {
		if f, ok := flags[l.OrderID]; ok && l.IsAwaitingDispatch() {
			f.undispatched = true
		}
	}

	local := now.In(format.IST)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, format.IST)
	since := midnight.Add(-recentWindow).UnixMilli()

	d := Dashboard{TotalCustomers: len(customers), UpdatedAt: now}
	for _, id := range ids {
		f := flags[id]
		if f.pending {
			d.PendingApprovals++
		}
		if f.approved && f.undispatched {
			d.PendingDispatches++
		}
		if ts := format.ParseTimestampAt(f.firstSeen, now); ts > 0 && ts >= since {
			d.RecentOrders++
		}
	}
	return d
}
