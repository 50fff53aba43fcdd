// Package format holds the pure conversions shared by every screen-level
// feature: Indian digit grouping, lenient amount parsing and the one date
// parser used for sorting.
package format

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is the value every unparseable amount degrades to.
const Zero = "0.00"

// Indian renders v with two fixed decimals and lakh/crore grouping:
// the last three integer digits form one group, the rest are grouped in
// pairs. Accepted inputs are numbers, decimals and numeric strings (commas
// allowed). Anything else renders as "0.00".
func Indian(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return Zero
	}
	return IndianDecimal(d)
}

// IndianDecimal is Indian for a value that is already a decimal.
func IndianDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		groups := []string{tail}
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(groups, ",")
	}

	out := intPart + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return decimal.NewFromUint64(uint64(x)), true
	case uint64:
		return decimal.NewFromUint64(x), true
	case json.Number:
		return parseStrict(string(x))
	case string:
		return parseStrict(x)
	default:
		return decimal.Zero, false
	}
}

// parseStrict accepts a whole numeric string once commas are removed.
func parseStrict(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !inRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// maxExponent bounds the scale of a parsed amount. Rendering with fixed
// decimals expands the value digit by digit, so a cell like "1e200000"
// would otherwise cost minutes of CPU.
const maxExponent = 20

func inRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e <= maxExponent && e >= -maxExponent
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads the leading number of s after removing thousands
// separators, the way a sheet cell such as "1,250.00 Cr" is read. Empty or
// non-numeric input yields zero. The sign is kept.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	m := leadingNumber.FindString(s)
	if m == "" {
		return decimal.Zero
	}
	m = strings.TrimSuffix(m, ".")
	m = strings.Replace(m, ".e", "e", 1)
	m = strings.Replace(m, ".E", "E", 1)
	d, err := decimal.NewFromString(m)
	if err != nil || !inRange(d) {
		return decimal.Zero
	}
	return d
}
