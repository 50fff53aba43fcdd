package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"oma-gateway/internal/fetch"
	"oma-gateway/internal/format"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
	"oma-gateway/internal/sheets"
	"oma-gateway/internal/store"
)

const ledgerRange = "A1:L"

// CacheKey is the response-cache key of one customer's entries.
func CacheKey(customerName string) string {
	return "ledger_" + customerName
}

// Service reads ledger rows through the response cache.
type Service struct {
	sheets  *sheets.Client
	cache   *store.Cache
	logger  *logs.Logger
	metrics *metrics.Registry
}

func NewService(sc *sheets.Client, cache *store.Cache, logger *logs.Logger, reg *metrics.Registry) *Service {
	return &Service{
		sheets:  sc,
		cache:   cache,
		logger:  logger.With("ledger"),
		metrics: reg,
	}
}

// Entries returns the rows whose customer name (column I) equals name.
func (s *Service) Entries(ctx context.Context, name string) ([]Entry, error) {
	return store.Fetch(ctx, s.cache, CacheKey(name), func(ctx context.Context) ([]Entry, error) {
		tbl, err := s.sheets.Values(ctx, sheets.LedgerSheet, ledgerRange, fetch.WithRetries(3, 2*time.Second))
		if errors.Is(err, sheets.ErrNoValues) {
			s.logger.Warnf("ledger sheet returned no values")
			return []Entry{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("fetch ledger for %q: %w", name, err)
		}

		entries := FromRows(tbl.Rows(), name)
		s.logger.Infof("found %d of %d ledger rows for %q", len(entries), len(tbl.Rows()), name)
		return entries, nil
	})
}

// FromRows maps the rows belonging to name onto entries. Missing cells
// are "", a missing amount is "0".
func FromRows(rows [][]string, name string) []Entry {
	out := make([]Entry, 0)
	for _, row := range rows {
		if sheets.Cell(row, colCustomerName) != name {
			continue
		}
		amount := sheets.Cell(row, colAmount)
		if amount == "" {
			amount = "0"
		}
		out = append(out, Entry{
			Date:          sheets.Cell(row, colDate),
			Amount:        T(amount),
			DC:            sheets.Cell(row, colDC),
			CompanyYear:   sheets.Cell(row, colCompanyYear),
			Description:   sheets.Cell(row, colDescription),
			CustomerCode:  sheets.Cell(row, colCustomerCode),
			CustomerGroup: sheets.Cell(row, colCustomerGroup),
			VoucherNumber: sheets.Cell(row, colVoucherNumber),
			CustomerName:  sheets.Cell(row, colCustomerName),
			CustomerCity:  sheets.Cell(row, colCustomerCity),
			GSTNumber:     sheets.Cell(row, colGSTNumber),
			Mobile:        sheets.Cell(row, colMobile),
		})
	}
	return out
}

// Summary is a customer's entries, newest first, with their stats.
type Summary struct {
	Customer     string  `json:"customer"`
	Entries      []Entry `json:"entries"`
	Stats        Stats   `json:"stats"`
	Balance      string  `json:"balance"`
	BalanceLabel string  `json:"balanceLabel"`
}

func (s *Service) Summary(ctx context.Context, name string) (Summary, error) {
	entries, err := s.Entries(ctx, name)
	if err != nil {
		return Summary{}, err
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	SortNewestFirst(sorted)

	stats := CalculateStats(sorted)
	if stats.Ignored > 0 {
		s.metrics.Add(metrics.LedgerRowsIgnoredTotal, int64(stats.Ignored))
		s.logger.Debugf("%q: %d rows with an unknown DC flag ignored", name, stats.Ignored)
	}

	return Summary{
		Customer:     name,
		Entries:      sorted,
		Stats:        stats,
		Balance:      stats.BalanceFormatted(),
		BalanceLabel: stats.BalanceLabel(),
	}, nil
}

// SortNewestFirst orders entries by date, unparseable dates last.
func SortNewestFirst(entries []Entry) {
	now := time.Now()
	sort.SliceStable(entries, func(i, j int) bool {
		return format.ParseTimestampAt(entries[i].Date, now) > format.ParseTimestampAt(entries[j].Date, now)
	})
}
