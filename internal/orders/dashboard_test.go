package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"oma-gateway/internal/format"
)

func TestComputeDashboard(t *testing.T) {
	now := time.Date(2025, time.April, 15, 18, 30, 0, 0, format.IST)

	lines := ParseLines([][]string{
		// recent, one line still requested
		row("14/04/2025 10:00 AM", "u", "Acme", "A", "p1", "1", "R", ""),
		row("14/04/2025 10:00 AM", "u", "Acme", "A", "p2", "1", "Y", ""),
		// exactly at the window start: midnight seven days ago
		row("08/04/2025 12:00 AM", "u", "Kisan", "B", "p1", "1", "Y", "Y"),
		// old and awaiting dispatch
		row("01/03/2025", "u", "Kisan", "C", "p1", "1", "Y", ""),
		// just before the window
		row("07/04/2025 11:59 PM", "u", "Patel", "D", "p1", "1", "", ""),
		// rejected, unparseable date
		row("not a date", "u", "Patel", "E", "p1", "1", "N", ""),
		// too short to count
		{"14/04/2025", "", "", "", "Ghost", "F"},
	})

	d := ComputeDashboard(lines, now)
	assert.Equal(t, 3, d.TotalCustomers)
	assert.Equal(t, 2, d.PendingApprovals, "A and D")
	assert.Equal(t, 2, d.PendingDispatches, "A and C")
	assert.Equal(t, 2, d.RecentOrders, "A and B")
	assert.Equal(t, now, d.UpdatedAt)
}

func TestComputeDashboardEmpty(t *testing.T) {
	d := ComputeDashboard(nil, time.Now())
	assert.Zero(t, d.TotalCustomers)
	assert.Zero(t, d.PendingApprovals)
	assert.Zero(t, d.PendingDispatches)
	assert.Zero(t, d.RecentOrders)
}
