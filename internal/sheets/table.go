package sheets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Table is a positional grid of cells as returned by the backend. Whether
// row 0 is a header depends on the requested range.
type Table [][]string

// Header returns row 0, or nil for an empty table.
func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Rows returns every row after the header.
func (t Table) Rows() [][]string {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// Cell returns row[i], or "" when the row is shorter than i+1.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Records keys every data row by the header names. Missing cells are "".
func (t Table) Records() []map[string]string {
	header := t.Header()
	rows := t.Rows()
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]string, len(header))
		for i, name := range header {
			rec[name] = Cell(row, i)
		}
		out = append(out, rec)
	}
	return out
}

// valuesResponse is the read payload: {"data":{"values":[[...]]}}.
type valuesResponse struct {
	Data *struct {
		Values []json.RawMessage `json:"values"`
	} `json:"data"`
}

func decodeTable(body []byte) (Table, error) {
	var resp valuesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	if resp.Data == nil || resp.Data.Values == nil {
		return nil, ErrNoValues
	}

	t := make(Table, 0, len(resp.Data.Values))
	for i, rawRow := range resp.Data.Values {
		row, err := decodeRow(rawRow)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
		t = append(t, row)
	}
	return t, nil
}

// decodeRow normalizes strings, numbers, bools and nulls to strings.
func decodeRow(raw json.RawMessage) ([]string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []string{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var cells []any
	if err := dec.Decode(&cells); err != nil {
		return nil, err
	}
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = cellString(c)
	}
	return row, nil
}

func cellString(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
