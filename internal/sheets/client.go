// Package sheets is the client for the spreadsheet-backed REST service:
// range reads, row appends, cell updates and the wake-up ping.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"oma-gateway/internal/fetch"
	"oma-gateway/internal/logs"
)

var (
	// ErrNoValues means the response carried no data.values. Callers treat
	// it as an empty result.
	ErrNoValues = errors.New("sheets: response has no values")

	// ErrNotAppended means an append reported zero updated rows.
	ErrNotAppended = errors.New("sheets: no rows appended")
)

// Sheet names and ranges read by more than one package.
const (
	OrderSheet    = "New_Order_Table"
	ProductSheet  = "Product_Master"
	CustomerSheet = "Customer_Master"
	LedgerSheet   = "Customer_Ledger_2"
)

type Client struct {
	baseURL string
	http    *fetch.Client
	logger  *logs.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string, hc *fetch.Client, logger *logs.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  logger.With("sheets"),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(sheet, rng string) string {
	if rng == "" {
		return c.baseURL + "/api/sheets/" + sheet
	}
	return c.baseURL + "/api/sheets/" + sheet + "!" + rng
}

// Values reads sheet!rng.
func (c *Client) Values(ctx context.Context, sheet, rng string, opts ...fetch.Option) (Table, error) {
	resp, err := c.http.Do(ctx, fetch.Request{Method: http.MethodGet, URL: c.url(sheet, rng)}, opts...)
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", sheet, rng, err)
	}
	t, err := decodeTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", sheet, rng, err)
	}
	c.logger.Debugf("read %s!%s: %d rows", sheet, rng, len(t))
	return t, nil
}

type appendRequest struct {
	Values    [][]string `json:"values"`
	Operation string     `json:"operation"`
}

type appendResponse struct {
	Updates struct {
		UpdatedRows int `json:"updatedRows"`
	} `json:"updates"`
}

// Append adds rows to the end of sheet and returns the number of rows the
// backend reports as written. Appends are attempted once: a retried append
// after an ambiguous failure could duplicate the order.
func (c *Client) Append(ctx context.Context, sheet string, rows [][]string) (int, error) {
	resp, err := c.http.Do(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    c.url(sheet, ""),
		Body:   appendRequest{Values: rows, Operation: "append"},
	}, fetch.WithRetries(1, 0))
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", sheet, err)
	}

	var out appendResponse
	if err := resp.JSON(&out); err != nil {
		return 0, fmt.Errorf("append %s: %w", sheet, err)
	}
	if out.Updates.UpdatedRows <= 0 {
		return 0, ErrNotAppended
	}
	c.logger.Infof("appended %d rows to %s", out.Updates.UpdatedRows, sheet)
	return out.Updates.UpdatedRows, nil
}

type updateRequest struct {
	Values [][]string `json:"values"`
}

// Update overwrites sheet!cellRange with values. Any 2xx is success.
func (c *Client) Update(ctx context.Context, sheet, cellRange string, values [][]string, opts ...fetch.Option) error {
	_, err := c.http.Do(ctx, fetch.Request{
		Method: http.MethodPut,
		URL:    c.url(sheet, cellRange),
		Body:   updateRequest{Values: values},
	}, opts...)
	if err != nil {
		return fmt.Errorf("update %s!%s: %w", sheet, cellRange, err)
	}
	c.logger.Debugf("updated %s!%s", sheet, cellRange)
	return nil
}

// WakeUp pings the backend root so a sleeping host starts before it is
// needed, and reports how long that took.
func (c *Client) WakeUp(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.http.Do(ctx, fetch.Request{Method: http.MethodGet, URL: c.baseURL + "/"}, fetch.WithRetries(1, 0))
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Errorf("wake up failed after %s: %v", elapsed, err)
		return elapsed, err
	}
	c.logger.Infof("server woke up in %s", elapsed)
	return elapsed, nil
}

// Preload wakes the backend and reads the two most requested ranges in
// parallel. Failures are logged; the returned error is only for callers
// that count them; startup ignores it. A failed wake-up does not stop the
// reads.
func (c *Client) Preload(ctx context.Context) error {
	_, _ = c.WakeUp(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range []struct{ sheet, rng string }{
		{ProductSheet, "A1:E"},
		{OrderSheet, "D2:D"},
	} {
		g.Go(func() error {
			_, err := c.Values(gctx, r.sheet, r.rng)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Errorf("preload failed: %v", err)
		return err
	}
	c.logger.Info("data preloaded")
	return nil
}
