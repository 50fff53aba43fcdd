package ledger

import (
	"bytes"
	"encoding/json"
)

// Text is a cell that may arrive as a JSON string, number or null.
// Valid is false only for null or absent values.
type Text struct {
	Value string
	Valid bool
}

// T is a valid Text holding s.
func T(s string) Text { return Text{Value: s, Valid: true} }

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Text{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = T(s)
		return nil
	}
	// numbers, bools and anything else keep their literal text
	*t = T(string(b))
	return nil
}

func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// Entry is one ledger row of Customer_Ledger_2 (columns A..L).
type Entry struct {
	Date          string `json:"Date"`
	Amount        Text   `json:"Amount"`
	DC            string `json:"DC"`
	CompanyYear   string `json:"Company_Year"`
	Description   string `json:"Description"`
	CustomerCode  string `json:"Customer_CODE"`
	CustomerGroup string `json:"Customer_Group"`
	VoucherNumber string `json:"VOUCHER_NUMBER"`
	CustomerName  string `json:"Customer_NAME"`
	CustomerCity  string `json:"Customer_City"`
	GSTNumber     string `json:"GST_Number"`
	Mobile        string `json:"Mobile"`

	// AmountSigned is the historical "Amount (+-)" column, read only when
	// Amount is absent.
	AmountSigned Text `json:"Amount (+-),omitzero"`
}

// Column indexes in Customer_Ledger_2.
const (
	colDate = iota
	colAmount
	colDC
	colCompanyYear
	colDescription
	colCustomerCode
	colCustomerGroup
	colVoucherNumber
	colCustomerName
	colCustomerCity
	colGSTNumber
	colMobile
)

// amountText picks Amount, falling back to "Amount (+-)".
func (e Entry) amountText() string {
	if e.Amount.Valid {
		return e.Amount.Value
	}
	if e.AmountSigned.Valid {
		return e.AmountSigned.Value
	}
	return ""
}
