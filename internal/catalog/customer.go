package catalog

import (
	"regexp"
	"strings"
)

// Customer is one Customer_Master row. Contact is column C as entered;
// Contacts holds the phone numbers found in it.
type Customer struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Contact  string    `json:"rawContact,omitempty"`
	Contacts []Contact `json:"contacts"`
}

type Contact struct {
	Number string `json:"number"`
	Label  string `json:"label"`
}

var (
	phoneRe      = regexp.MustCompile(`\d{10,}`)
	wordBeforeRe = regexp.MustCompile(`([A-Za-z]+)[\s:]*\d+`)
	contactSep   = regexp.MustCompile(`[,\n]`)

	knownLabels = []struct{ match, label string }{
		{"mobile", "Mobile"},
		{"home", "Home"},
		{"office", "Office"},
		{"land", "Landline"},
		{"work", "Work"},
	}
)

// ParseContacts extracts phone numbers of at least ten digits from a free
// text contact cell. Parts are separated by commas or newlines; a part
// without a number is dropped.
func ParseContacts(s string) []Contact {
	s = strings.NewReplacer(`"`, "", `\`, "").Replace(s)
	out := make([]Contact, 0)
	for _, part := range contactSep.Split(s, -1) {
		part = strings.TrimSpace(part)
		number := phoneRe.FindString(part)
		if number == "" {
			continue
		}
		out = append(out, Contact{Number: number, Label: contactLabel(part)})
	}
	return out
}

func contactLabel(part string) string {
	lower := strings.ToLower(part)
	for _, l := range knownLabels {
		if strings.Contains(lower, l.match) {
			return l.label
		}
	}
	if m := wordBeforeRe.FindStringSubmatch(part); m != nil {
		return m[1]
	}
	return ""
}

// customersFromRows maps data rows to customers. Rows with fewer than two
// cells or without a name are skipped.
func customersFromRows(rows [][]string) []Customer {
	out := make([]Customer, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			continue
		}
		c := Customer{Code: row[0], Name: row[1]}
		if len(row) > 2 {
			c.Contact = row[2]
		}
		c.Contacts = ParseContacts(c.Contact)
		out = append(out, c)
	}
	return out
}

// MatchCustomers returns customers whose code or name contains q, ignoring
// case. Queries shorter than two characters match nothing.
func MatchCustomers(customers []Customer, q string) []Customer {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]Customer, 0)
	if len([]rune(q)) < 2 {
		return out
	}
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Code), q) {
			out = append(out, c)
		}
	}
	return out
}
