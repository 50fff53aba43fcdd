package catalog

import (
	"sort"
	"strings"
)

// Product is a Product_Master row keyed by header name. Category mirrors
// "Product Group Name".
type Product map[string]string

const (
	categoryField  = "Category"
	groupNameField = "Product Group Name"
	AllCategories  = "All"
)

func (p Product) Category() string { return p[categoryField] }

// Categories returns "All" followed by the distinct trimmed non-empty
// categories in sorted order.
func Categories(products []Product) []string {
	seen := make(map[string]bool)
	for _, p := range products {
		if c := strings.TrimSpace(p.Category()); c != "" {
			seen[c] = true
		}
	}
	out := make([]string, 0, len(seen)+1)
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return append([]string{AllCategories}, out...)
}

// FilterProducts keeps products of category (any when empty or "All")
// whose fields contain q.
func FilterProducts(products []Product, category, q string) []Product {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" && category != AllCategories && strings.TrimSpace(p.Category()) != category {
			continue
		}
		if q != "" && !p.contains(q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (p Product) contains(q string) bool {
	for _, v := range p {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}
