package ledger

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"oma-gateway/internal/fetch"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
	"oma-gateway/internal/sheets"
	"oma-gateway/internal/storage"
	"oma-gateway/internal/store"
)

const ledgerPayload = `{"data":{"values":[
	["Date","Amount","DC","Company_Year","Description","Customer_CODE","Customer_Group","VOUCHER_NUMBER","Customer_NAME","Customer_City","GST_Number","Mobile"],
	["01/04/2024","1,000","C","2024-2025","Default Bank Receipt Voucher","C001","North","V1","Acme Seeds","Indore","GSTX","98"],
	["15/05/2024","400","D","2024-2025","Default Sales Invoice","C001","North","V2","Acme Seeds","Indore","GSTX","98"],
	["10/03/2024","-50","C","2023-2024","","C001","North","V0","Acme Seeds"],
	["02/04/2024","7","D","2024-2025","Default Sales Invoice","C002","South","V9","Other Farm","Bhopal","",""]
]}}`

func newTestService(t *testing.T, calls *atomic.Int32) (*Service, *metrics.Registry) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/sheets/Customer_Ledger_2!A1:L", r.URL.Path)
		_, _ = w.Write([]byte(ledgerPayload))
	}))
	t.Cleanup(srv.Close)

	logger := logs.NewLogger(100, logs.DEBUG)
	reg := metrics.NewRegistry()
	hc := fetch.NewClient(fetch.DefaultConfig(), logger, reg)
	cache := store.New(storage.NewMemory(), store.DefaultTTL, logger, reg)
	return NewService(sheets.New(srv.URL, hc, logger), cache, logger, reg), reg
}

func TestServiceEntries(t *testing.T) {
	var calls atomic.Int32
	svc, _ := newTestService(t, &calls)
	ctx := context.Background()

	entries, err := svc.Entries(ctx, "Acme Seeds")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "V1", entries[0].VoucherNumber)
	assert.Equal(t, "Indore", entries[0].CustomerCity)
	assert.Equal(t, "", entries[2].CustomerCity, "short rows pad with empty strings")

	_, err = svc.Entries(ctx, "Acme Seeds")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second read is served from the cache")

	none, err := svc.Entries(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, int32(2), calls.Load(), "cache is keyed per customer")
}

func TestServiceSummary(t *testing.T) {
	var calls atomic.Int32
	svc, _ := newTestService(t, &calls)

	sum, err := svc.Summary(context.Background(), "Acme Seeds")
	require.NoError(t, err)

	require.Len(t, sum.Entries, 3)
	assert.Equal(t, "15/05/2024", sum.Entries[0].Date)
	assert.Equal(t, "10/03/2024", sum.Entries[2].Date)
	assert.Equal(t, "1,050.00", sum.Stats.TotalCredit)
	assert.Equal(t, "400.00", sum.Stats.TotalDebit)
	assert.Equal(t, "650.00", sum.Balance)
	assert.Equal(t, "Advance Payment", sum.BalanceLabel)
}

func TestFromRows(t *testing.T) {
	entries := FromRows([][]string{
		{"01/01/2025", "", "D", "", "", "", "", "", "Acme"},
		{"01/01/2025"},
	}, "Acme")

	require.Len(t, entries, 1)
	assert.Equal(t, T("0"), entries[0].Amount)
}

func TestSortNewestFirst(t *testing.T) {
	entries := []Entry{
		{Date: "No date"},
		{Date: "01/01/2024"},
		{Date: "31/12/2024 11:59 PM"},
		{Date: "31/12/2024 12:00 AM"},
	}
	SortNewestFirst(entries)

	assert.Equal(t, []string{"31/12/2024 11:59 PM", "31/12/2024 12:00 AM", "01/01/2024", "No date"},
		[]string{entries[0].Date, entries[1].Date, entries[2].Date, entries[3].Date})
}

func TestWriteXLSX(t *testing.T) {
	entries := []Entry{
		{Date: "15/05/2024", Amount: T("400"), DC: "D", Description: "Default Sales Invoice", VoucherNumber: "V2"},
		{Date: "01/04/2024", Amount: T("1000"), DC: "C", Description: "Default Bank Receipt Voucher", VoucherNumber: "V1"},
	}
	stats := CalculateStats(entries)
	sum := Summary{
		Customer:     "Acme Seeds",
		Entries:      entries,
		Stats:        stats,
		Balance:      stats.BalanceFormatted(),
		BalanceLabel: stats.BalanceLabel(),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sum))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Ledger", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Ledger")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, []string{"15/05/2024", "V2", "Default Sales Invoice", "D", "400.00"}, rows[1])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer", "Acme Seeds"}, summary[0])
	assert.Equal(t, []string{"Advance Payment", "600.00"}, summary[3])
	assert.Len(t, summary, 6+len(stats.TransactionTypes))

	for sheet, cell := range map[string]string{"Ledger": "A1", "Summary": "A6"} {
		style, err := f.GetCellStyle(sheet, cell)
		require.NoError(t, err)
		assert.NotZero(t, style, "%s!%s is styled", sheet, cell)
	}
	width, err := f.GetColWidth("Ledger", "F")
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)
	width, err = f.GetColWidth("Summary", "A")
	require.NoError(t, err)
	assert.Equal(t, 32.0, width)
}
