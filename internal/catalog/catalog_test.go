package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oma-gateway/internal/fetch"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/sheets"
	"oma-gateway/internal/storage"
	"oma-gateway/internal/store"
)

const (
	customerBody = `{"data":{"values":[
		["Code","Name","Contact"],
		["C001","Acme Seeds","Mobile: 9876543210, office 02212345678"],
		["C002","Kisan Agro"],
		["C003",""],
		["C004"],
		["AC9","Patel Traders","\"Ramesh 9123456789\"\nshop 12"]
	]}}`
	productBody = `{"data":{"values":[
		["Product Name","Unit","Rate","Product Group Name"],
		["Wheat 101","Bag","1200","Cereals"],
		["Gram Gold","Bag",500," Pulses "],
		["Loose","Kg"]
	]}}`
)

func newTestService(t *testing.T) (*Service, *atomic.Int32) {
	t.Helper()
	return newTestServiceWith(t, customerBody, productBody)
}

func newTestServiceWith(t *testing.T, customers, products string) (*Service, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch {
		case strings.Contains(r.URL.Path, sheets.CustomerSheet):
			_, _ = w.Write([]byte(customers))
		case strings.Contains(r.URL.Path, sheets.ProductSheet):
			_, _ = w.Write([]byte(products))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	logger := logs.NewLogger(100, logs.DEBUG)
	hc := fetch.NewClient(fetch.DefaultConfig(), logger, nil)
	hc.SetSleeper(func(context.Context, time.Duration) error { return nil })
	cache := store.New(storage.NewMemory(), store.DefaultTTL, logger, nil)
	return NewService(sheets.New(srv.URL, hc, logger), cache, logger), &calls
}

func TestParseContacts(t *testing.T) {
	got := ParseContacts("Mobile: 9876543210, office 02212345678\nRamesh 9123456789, shop 12")
	assert.Equal(t, []Contact{
		{Number: "9876543210", Label: "Mobile"},
		{Number: "02212345678", Label: "Office"},
		{Number: "9123456789", Label: "Ramesh"},
	}, got)

	assert.Empty(t, ParseContacts(""))
	assert.Equal(t, []Contact{{Number: "9876543210", Label: ""}}, ParseContacts(`"9876543210"`))
}

func TestCustomers(t *testing.T) {
	svc, calls := newTestService(t)
	ctx := context.Background()

	all, err := svc.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C001", all[0].Code)
	assert.Equal(t, "Acme Seeds", all[0].Name)
	assert.Len(t, all[0].Contacts, 2)
	assert.Empty(t, all[1].Contacts)
	assert.Equal(t, "Patel Traders", all[2].Name)

	_, err = svc.Customers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second read is served from cache")
}

func TestCustomersWithoutValues(t *testing.T) {
	svc, _ := newTestServiceWith(t, `{"data":{}}`, `{"data":{}}`)
	ctx := context.Background()

	all, err := svc.Customers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	found, err := svc.SearchCustomers(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, found)

	products, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearchCustomers(t *testing.T) {
	svc, calls := newTestService(t)
	ctx := context.Background()

	got, err := svc.SearchCustomers(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, calls.Load(), "short queries do not hit the backend")

	got, err = svc.SearchCustomers(ctx, "ac")
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Acme Seeds", "Patel Traders"}, names, "matches name or code")

	got, err = svc.SearchCustomers(ctx, "KISAN")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C002", got[0].Code)
}

func TestProducts(t *testing.T) {
	svc, _ := newTestService(t)

	products, err := svc.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "Wheat 101", products[0]["Product Name"])
	assert.Equal(t, "Cereals", products[0].Category())
	assert.Equal(t, "500", products[1]["Rate"])
	assert.Equal(t, "", products[2]["Rate"])
	assert.Equal(t, "", products[2].Category())

	assert.Equal(t, []string{"All", "Cereals", "Pulses"}, Categories(products))

	assert.Len(t, FilterProducts(products, "Pulses", ""), 1)
	assert.Len(t, FilterProducts(products, AllCategories, "bag"), 2)
	assert.Len(t, FilterProducts(products, "", "wheat"), 1)
}
