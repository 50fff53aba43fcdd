package ledger

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"oma-gateway/internal/format"
)

const (
	entriesSheet = "Ledger"
	summarySheet = "Summary"
)

var entryHeader = []any{
	"Date", "Voucher", "Description", "DC", "Amount", "Company Year",
}

// WriteXLSX writes a statement workbook for one customer: the entries on
// one sheet and the per-type totals with the balance on another.
func WriteXLSX(w io.Writer, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(entriesSheet, "A1", &entryHeader); err != nil {
		return fmt.Errorf("write entry header: %w", err)
	}
	if err := f.SetCellStyle(entriesSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style entry header: %w", err)
	}
	for i, e := range s.Entries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			e.Date,
			e.VoucherNumber,
			e.Description,
			e.DC,
			format.Indian(e.amountText()),
			e.CompanyYear,
		}
		if err := f.SetSheetRow(entriesSheet, cell, &row); err != nil {
			return fmt.Errorf("write entry row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(entriesSheet, "A", "F", 20); err != nil {
		return fmt.Errorf("size entry columns: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	rows := [][]any{
		{"Customer", s.Customer},
		{"Total Credit", s.Stats.TotalCredit},
		{"Total Debit", s.Stats.TotalDebit},
		{s.BalanceLabel, s.Balance},
		{},
		{"Transaction Type", "Credit", "Debit"},
	}
	types := make([]string, 0, len(s.Stats.TransactionTypes))
	for t := range s.Stats.TransactionTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		tt := s.Stats.TransactionTypes[t]
		rows = append(rows, []any{t, format.IndianDecimal(tt.Credit), format.IndianDecimal(tt.Debit)})
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A6", "C6", bold); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 32); err != nil {
		return fmt.Errorf("size summary columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
