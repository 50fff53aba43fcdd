package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IST is the business timezone of every date written to the order sheets.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// dayFirst matches D/M[/YY|/YYYY] with an optional H:MM[:SS] [AM|PM] tail.
// The time may follow the year with no separator ("31/12/202411:59 PM").
var dayFirst = regexp.MustCompile(
	`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{4}|\d{2}))?` +
		`(?:[\sT,]*(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp]\.?[Mm]\.?)?)?$`)

// nativeLayouts is the fallback tried after the day-first form.
var nativeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
}

// ParseTimestamp converts a sheet date into epoch milliseconds for sorting.
// Unparseable input, including placeholders such as "No orders yet", is 0
// so it sorts last in newest-first views.
func ParseTimestamp(s string) int64 {
	return ParseTimestampAt(s, time.Now())
}

// ParseTimestampAt is ParseTimestamp with an explicit "now", which supplies
// the year for year-less dates and the century for two-digit years.
func ParseTimestampAt(s string, now time.Time) int64 {
	t, ok := ParseDateAt(s, now)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// ParseDate parses s relative to the current time.
func ParseDate(s string) (time.Time, bool) {
	return ParseDateAt(s, time.Now())
}

// ParseDateAt tries, in order, the strict day-first form and then the
// native layouts. It reports false when neither matches.
func ParseDateAt(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseDayFirst(s, now); ok {
		return t, true
	}
	for _, layout := range nativeLayouts {
		if t, err := time.ParseInLocation(layout, s, IST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDayFirst(s string, now time.Time) (time.Time, bool) {
	m := dayFirst.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	nowIST := now.In(IST)
	year := nowIST.Year()
	switch len(m[3]) {
	case 4:
		year, _ = strconv.Atoi(m[3])
	case 2:
		yy, _ := strconv.Atoi(m[3])
		year = nowIST.Year()/100*100 + yy
	}

	var hour, minute, second int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			second, _ = strconv.Atoi(m[6])
		}
		if minute > 59 || second > 59 {
			return time.Time{}, false
		}

		meridiem := strings.ToUpper(strings.ReplaceAll(m[7], ".", ""))
		switch meridiem {
		case "AM", "PM":
			if hour > 12 {
				return time.Time{}, false
			}
			if meridiem == "PM" && hour < 12 {
				hour += 12
			}
			if meridiem == "AM" && hour == 12 {
				hour = 0
			}
		default:
			if hour > 23 {
				return time.Time{}, false
			}
		}
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, IST)
	if t.Day() != day || int(t.Month()) != month {
		// 31/02 and friends
		return time.Time{}, false
	}
	return t, true
}

// FormatTimestamp renders t the way order and dispatch times are written to
// the sheet: "DD/MM/YYYY h:mm AM".
func FormatTimestamp(t time.Time) string {
	return t.In(IST).Format("02/01/2006 3:04 PM")
}

// FiscalYear returns the April-March business year containing t, e.g.
// "2024-2025" for any date from 1 April 2024 to 31 March 2025.
func FiscalYear(t time.Time) string {
	t = t.In(IST)
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(start+1)
}
