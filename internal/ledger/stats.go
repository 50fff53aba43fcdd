// Package ledger turns a customer's ledger rows into credit and debit
// totals per transaction type and a signed balance.
package ledger

import (
	"github.com/shopspring/decimal"

	"oma-gateway/internal/format"
)

// OtherTransactions labels rows without a description.
const OtherTransactions = "Other Transactions"

// CanonicalTypes are always present in Stats.TransactionTypes, with zero
// sums when a customer has no such transactions.
var CanonicalTypes = []string{
	"Default Bank Payment Voucher",
	"Default Bank Receipt Voucher",
	"Default Cash Receipt Voucher",
	"Default Credit Note",
	"Default Sales Invoice",
	"Default Sales Return Invoice",
	"Default Debit Note",
	"Default Journal Voucher",
}

const (
	Credit = "C"
	Debit  = "D"
)

// TypeTotals are the sums for one transaction type.
type TypeTotals struct {
	Credit decimal.Decimal `json:"C"`
	Debit  decimal.Decimal `json:"D"`
}

// Stats is derived from a full entry list on every call.
type Stats struct {
	TotalCredit      string                `json:"totalCredit"`
	TotalDebit       string                `json:"totalDebit"`
	TotalCreditRaw   decimal.Decimal       `json:"totalCreditRaw"`
	TotalDebitRaw    decimal.Decimal       `json:"totalDebitRaw"`
	HasCredit        bool                  `json:"hasCredit"`
	TransactionTypes map[string]TypeTotals `json:"transactionTypes"`

	// Ignored counts rows whose DC flag was neither "C" nor "D".
	Ignored int `json:"ignored"`
}

// Balance is |credit - debit|.
func (s Stats) Balance() decimal.Decimal {
	return s.TotalCreditRaw.Sub(s.TotalDebitRaw).Abs()
}

// BalanceLabel names the balance direction. Ties read as an advance.
func (s Stats) BalanceLabel() string {
	if s.HasCredit {
		return "Advance Payment"
	}
	return "Outstanding"
}

func (s Stats) BalanceFormatted() string {
	return format.IndianDecimal(s.Balance())
}

func seededTypes() map[string]TypeTotals {
	m := make(map[string]TypeTotals, len(CanonicalTypes))
	for _, t := range CanonicalTypes {
		m[t] = TypeTotals{}
	}
	return m
}

// CalculateStats aggregates entries. Amounts are read without their sign:
// direction comes only from the DC flag, and rows with any other flag
// contribute to neither total.
func CalculateStats(entries []Entry) Stats {
	types := seededTypes()
	credit, debit := decimal.Zero, decimal.Zero
	ignored := 0

	for _, e := range entries {
		amount := format.ParseAmount(e.amountText()).Abs()

		label := e.Description
		if label == "" {
			label = OtherTransactions
		}

		switch e.DC {
		case Debit:
			tt := types[label]
			tt.Debit = tt.Debit.Add(amount)
			types[label] = tt
			debit = debit.Add(amount)
		case Credit:
			tt := types[label]
			tt.Credit = tt.Credit.Add(amount)
			types[label] = tt
			credit = credit.Add(amount)
		default:
			ignored++
			if _, ok := types[label]; !ok {
				types[label] = TypeTotals{}
			}
		}
	}

	return Stats{
		TotalCredit:      format.IndianDecimal(credit),
		TotalDebit:       format.IndianDecimal(debit),
		TotalCreditRaw:   credit,
		TotalDebitRaw:    debit,
		HasCredit:        credit.GreaterThanOrEqual(debit),
		TransactionTypes: types,
		Ignored:          ignored,
	}
}
