package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateStats(t *testing.T) {
	t.Run("sign comes from the DC flag only", func(t *testing.T) {
		stats := CalculateStats([]Entry{
			{Amount: T("1,000"), DC: "C"},
			{Amount: T("400"), DC: "D"},
			{Amount: T("-50"), DC: "C"},
		})

		assert.True(t, stats.TotalCreditRaw.Equal(dec("1050")))
		assert.True(t, stats.TotalDebitRaw.Equal(dec("400")))
		assert.True(t, stats.HasCredit)
		assert.True(t, stats.Balance().Equal(dec("650")))
		assert.Equal(t, "650.00", stats.BalanceFormatted())
		assert.Equal(t, "1,050.00", stats.TotalCredit)
		assert.Equal(t, "400.00", stats.TotalDebit)
		assert.Equal(t, "Advance Payment", stats.BalanceLabel())

		other := stats.TransactionTypes[OtherTransactions]
		assert.True(t, other.Credit.Equal(dec("1050")))
		assert.True(t, other.Debit.Equal(dec("400")))
	})

	t.Run("malformed row leaves totals untouched", func(t *testing.T) {
		valid := []Entry{
			{Amount: T("1,000"), DC: "C", Description: "Default Sales Invoice"},
			{Amount: T("400"), DC: "D", Description: "Default Bank Receipt Voucher"},
		}
		base := CalculateStats(valid)

		withBad := append([]Entry{{}}, valid...)
		var got Stats
		assert.NotPanics(t, func() { got = CalculateStats(withBad) })

		assert.True(t, got.TotalCreditRaw.Equal(base.TotalCreditRaw))
		assert.True(t, got.TotalDebitRaw.Equal(base.TotalDebitRaw))
		assert.Equal(t, 1, got.Ignored)
	})

	t.Run("empty input", func(t *testing.T) {
		stats := CalculateStats(nil)

		assert.Equal(t, "0.00", stats.TotalCredit)
		assert.Equal(t, "0.00", stats.TotalDebit)
		assert.True(t, stats.TotalCreditRaw.IsZero())
		assert.True(t, stats.HasCredit, "0 >= 0")
		require.Len(t, stats.TransactionTypes, len(CanonicalTypes))
		for _, label := range CanonicalTypes {
			tt, ok := stats.TransactionTypes[label]
			require.True(t, ok, label)
			assert.True(t, tt.Credit.IsZero())
			assert.True(t, tt.Debit.IsZero())
		}
	})

	t.Run("debit heavy customer is outstanding", func(t *testing.T) {
		stats := CalculateStats([]Entry{
			{Amount: T("100"), DC: "C"},
			{Amount: T("12,34,567.50"), DC: "D", Description: "Default Sales Invoice"},
		})

		assert.False(t, stats.HasCredit)
		assert.Equal(t, "Outstanding", stats.BalanceLabel())
		assert.Equal(t, "12,34,467.50", stats.BalanceFormatted())
		assert.True(t, stats.TransactionTypes["Default Sales Invoice"].Debit.Equal(dec("1234567.5")))
	})

	t.Run("ties favor credit", func(t *testing.T) {
		stats := CalculateStats([]Entry{
			{Amount: T("500"), DC: "C"},
			{Amount: T("500"), DC: "D"},
		})
		assert.True(t, stats.HasCredit)
		assert.True(t, stats.Balance().IsZero())
	})

	t.Run("unknown flags are ignored but counted", func(t *testing.T) {
		stats := CalculateStats([]Entry{
			{Amount: T("900"), DC: "c", Description: "Opening Balance"},
			{Amount: T("100"), DC: "X"},
			{Amount: T("10"), DC: "D"},
		})

		assert.True(t, stats.TotalCreditRaw.IsZero())
		assert.True(t, stats.TotalDebitRaw.Equal(dec("10")))
		assert.Equal(t, 2, stats.Ignored)
		assert.Contains(t, stats.TransactionTypes, "Opening Balance")
	})

	t.Run("amount fallbacks", func(t *testing.T) {
		stats := CalculateStats([]Entry{
			{AmountSigned: T("-2,500"), DC: "D"},
			{Amount: T(""), AmountSigned: T("999"), DC: "D"},
			{Amount: T("abc"), DC: "C"},
			{Amount: T("75.5 Cr"), DC: "C"},
		})

		assert.True(t, stats.TotalDebitRaw.Equal(dec("2500")), "empty Amount does not fall back")
		assert.True(t, stats.TotalCreditRaw.Equal(dec("75.5")))
	})

	t.Run("huge exponent amount reads as zero", func(t *testing.T) {
		start := time.Now()
		stats := CalculateStats([]Entry{
			{Amount: T("1e200000"), DC: "C", Description: "Default Sales Invoice"},
			{Amount: T("300"), DC: "C"},
		})
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, "300.00", stats.TotalCredit)
		assert.True(t, stats.TransactionTypes["Default Sales Invoice"].Credit.IsZero())
	})

	t.Run("unseen labels are added", func(t *testing.T) {
		stats := CalculateStats([]Entry{{Amount: T("1"), DC: "C", Description: "Cash Discount"}})
		assert.Len(t, stats.TransactionTypes, len(CanonicalTypes)+1)
	})
}

func TestEntryJSON(t *testing.T) {
	t.Run("amount accepts strings numbers and null", func(t *testing.T) {
		var entries []Entry
		require.NoError(t, json.Unmarshal([]byte(`[
			{"Amount":"1,000","DC":"C"},
			{"Amount":400,"DC":"D"},
			{"Amount":null,"Amount (+-)":-50,"DC":"C"}
		]`), &entries))

		assert.Equal(t, T("1,000"), entries[0].Amount)
		assert.Equal(t, T("400"), entries[1].Amount)
		assert.False(t, entries[2].Amount.Valid)
		assert.Equal(t, T("-50"), entries[2].AmountSigned)

		stats := CalculateStats(entries)
		assert.True(t, stats.TotalCreditRaw.Equal(dec("1050")))
	})

	t.Run("round trip keeps field names", func(t *testing.T) {
		b, err := json.Marshal(Entry{Date: "01/04/2024", Amount: T("10"), DC: "D", VoucherNumber: "V1"})
		require.NoError(t, err)
		s := string(b)
		assert.Contains(t, s, `"VOUCHER_NUMBER":"V1"`)
		assert.Contains(t, s, `"Amount":"10"`)
		assert.NotContains(t, s, "Amount (+-)")
	})
}
