// Package orders reads and writes the order sheet: one row per ordered
// product, grouped into orders by order id.
package orders

import (
	"strconv"

	"oma-gateway/internal/sheets"
)

// Column indexes of New_Order_Table, A..Q.
const (
	ColSysTime = iota
	ColOrderTime
	ColUser
	ColOrderComments
	ColCustomerName
	ColOrderID
	ColProductName
	ColQuantity
	ColUnit
	ColRate
	ColAmount
	ColSource
	ColApproved
	ColManagerComments
	ColDispatched
	ColDispatchComments
	ColDispatchTime
)

// Approval and dispatch flags as written in columns M and O.
const (
	FlagYes       = "Y"
	FlagNo        = "N"
	FlagRequested = "R"
	FlagPartial   = "P"
)

// firstDataRow is the sheet row number of the first line under the header.
const firstDataRow = 2

// Line is one row of the order sheet.
type Line struct {
	SheetRow         int    `json:"sheetRow"`
	SysTime          string `json:"sysTime"`
	OrderTime        string `json:"orderTime"`
	User             string `json:"user"`
	OrderComments    string `json:"orderComments"`
	CustomerName     string `json:"customerName"`
	OrderID          string `json:"orderId"`
	ProductName      string `json:"productName"`
	Quantity         string `json:"quantity"`
	Unit             string `json:"unit"`
	Rate             string `json:"rate"`
	Amount           string `json:"amount"`
	Source           string `json:"source"`
	Approved         string `json:"approved"`
	ManagerComments  string `json:"managerComments"`
	Dispatched       string `json:"dispatched"`
	DispatchComments string `json:"dispatchComments"`
	DispatchTime     string `json:"dispatchTime"`

	// Width is the number of cells the backend returned for the row.
	Width int `json:"width"`
}

// ParseLines maps rows read from A2 onwards. Row i lives on sheet row i+2.
func ParseLines(rows [][]string) []Line {
	out := make([]Line, 0, len(rows))
	for i, row := range rows {
		c := func(col int) string { return sheets.Cell(row, col) }
		out = append(out, Line{
			SheetRow:         i + firstDataRow,
			SysTime:          c(ColSysTime),
			OrderTime:        c(ColOrderTime),
			User:             c(ColUser),
			OrderComments:    c(ColOrderComments),
			CustomerName:     c(ColCustomerName),
			OrderID:          c(ColOrderID),
			ProductName:      c(ColProductName),
			Quantity:         c(ColQuantity),
			Unit:             c(ColUnit),
			Rate:             c(ColRate),
			Amount:           c(ColAmount),
			Source:           c(ColSource),
			Approved:         c(ColApproved),
			ManagerComments:  c(ColManagerComments),
			Dispatched:       c(ColDispatched),
			DispatchComments: c(ColDispatchComments),
			DispatchTime:     c(ColDispatchTime),
			Width:            len(row),
		})
	}
	return out
}

// IsPendingApproval reports whether a manager still has to decide the line.
func (l Line) IsPendingApproval() bool {
	return l.Approved == FlagRequested || l.Approved == ""
}

// IsAwaitingDispatch reports whether the line is approved but not shipped.
func (l Line) IsAwaitingDispatch() bool {
	return l.Approved == FlagYes && l.Dispatched != FlagYes
}

// cellRange names columns from..to on one sheet row, e.g. "M7:N7".
func cellRange(from, to string, row int) string {
	r := strconv.Itoa(row)
	if to == "" {
		return from + r
	}
	return from + r + ":" + to + r
}
