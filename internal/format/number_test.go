package format

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIndian(t *testing.T) {
	t.Run("representative values", func(t *testing.T) {
		assert.Equal(t, "0.00", Indian(0))
		assert.Equal(t, "100.00", Indian(100))
		assert.Equal(t, "1,000.00", Indian(1000))
		assert.Equal(t, "12,34,567.50", Indian(1234567.5))
		assert.Equal(t, "1,00,000.00", Indian(int64(100000)))
		assert.Equal(t, "12,34,56,78,901.00", Indian(12345678901))
	})

	t.Run("strings with separators and signs", func(t *testing.T) {
		assert.Equal(t, "1,00,000.00", Indian("1,00,000"))
		assert.Equal(t, "1,234.56", Indian(" 1234.555 "))
		assert.Equal(t, "-12,34,567.00", Indian("-1234567"))
		assert.Equal(t, "-123.00", Indian(-123))
		assert.Equal(t, "2,500.00", Indian(json.Number("2500")))
	})

	t.Run("decimals", func(t *testing.T) {
		assert.Equal(t, "650.00", Indian(decimal.NewFromInt(650)))
		d := decimal.RequireFromString("99999.999")
		assert.Equal(t, "1,00,000.00", Indian(&d))
	})

	t.Run("invalid input degrades to zero", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.Equal(t, "0.00", Indian("abc"))
			assert.Equal(t, "0.00", Indian(""))
			assert.Equal(t, "0.00", Indian("12abc"))
			assert.Equal(t, "0.00", Indian(nil))
			assert.Equal(t, "0.00", Indian(math.NaN()))
			assert.Equal(t, "0.00", Indian(math.Inf(1)))
			assert.Equal(t, "0.00", Indian(struct{}{}))
			assert.Equal(t, "0.00", Indian((*decimal.Decimal)(nil)))
		})
	})

	t.Run("huge exponents degrade to zero", func(t *testing.T) {
		start := time.Now()
		assert.Equal(t, "0.00", Indian("1e200000"))
		assert.Equal(t, "0.00", Indian("1e-200000"))
		assert.Equal(t, "0.00", Indian(json.Number("9E99999")))
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, "2,50,000.00", Indian("2.5e5"))
	})
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"1,000":       "1000",
		"-50":         "-50",
		" 3.5 ":       "3.5",
		".5":          "0.5",
		"5.":          "5",
		"12abc":       "12",
		"1,250 Cr":    "1250",
		"2.5e2":       "250",
		"abc":         "0",
		"":            "0",
		"-":           "0",
		"Infinity":    "0",
		"1,23,456.78": "123456.78",
		"1e200000":    "0",
		"5e-99999 Cr": "0",
	}
	for in, want := range cases {
		got := ParseAmount(in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "ParseAmount(%q) = %s, want %s", in, got, want)
	}
}
