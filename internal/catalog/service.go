// Package catalog reads the customer and product masters.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oma-gateway/internal/fetch"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/sheets"
	"oma-gateway/internal/store"
)

const (
	KeyCustomers = "customers"
	KeyProducts  = "products"

	customerRange = "A1:C"
	productRange  = "A1:F"
)

type Service struct {
	sheets *sheets.Client
	cache  *store.Cache
	logger *logs.Logger
}

func NewService(sc *sheets.Client, cache *store.Cache, logger *logs.Logger) *Service {
	return &Service{sheets: sc, cache: cache, logger: logger.With("catalog")}
}

// Customers returns every named customer in the master.
func (s *Service) Customers(ctx context.Context) ([]Customer, error) {
	return store.Fetch(ctx, s.cache, KeyCustomers, func(ctx context.Context) ([]Customer, error) {
		tbl, err := s.sheets.Values(ctx, sheets.CustomerSheet, customerRange, fetch.WithRetries(3, 3*time.Second))
		if errors.Is(err, sheets.ErrNoValues) {
			s.logger.Warn("customer master has no values")
			return []Customer{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("customer master: %w", err)
		}
		out := customersFromRows(tbl.Rows())
		s.logger.Infof("loaded %d customers", len(out))
		return out, nil
	})
}

// SearchCustomers matches q against customer codes and names.
func (s *Service) SearchCustomers(ctx context.Context, q string) ([]Customer, error) {
	if len([]rune(q)) < 2 {
		return []Customer{}, nil
	}
	all, err := s.Customers(ctx)
	if err != nil {
		return nil, err
	}
	return MatchCustomers(all, q), nil
}

// Products returns the product master keyed by its header row.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return store.Fetch(ctx, s.cache, KeyProducts, func(ctx context.Context) ([]Product, error) {
		tbl, err := s.sheets.Values(ctx, sheets.ProductSheet, productRange, fetch.WithRetries(3, 2*time.Second))
		if errors.Is(err, sheets.ErrNoValues) {
			return []Product{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("product master: %w", err)
		}

		records := tbl.Records()
		out := make([]Product, 0, len(records))
		for _, rec := range records {
			p := Product(rec)
			p[categoryField] = rec[groupNameField]
			out = append(out, p)
		}
		s.logger.Infof("loaded %d products", len(out))
		return out, nil
	})
}
