package athmovil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var jsonNull = []byte("null")

// FlexString decodes a JSON string or number as a string. The API reports some
// identifiers and phone numbers as integers. Null decodes to "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// Quantity is a whole item count sent as a number, a numeric string or an integral
// float such as 1.0.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	d, err := ParseDecimal(strings.TrimSpace(string(s)))
	if err != nil || !d.IsInteger() {
		return fmt.Errorf("invalid quantity %q", s)
	}
	*q = Quantity(d.IntPart())
	return nil
}

// Money is an exact amount that may arrive as a number, a numeric string, an empty
// string or null. Empty and null mean absent, not zero.
type Money struct {
	decimal.NullDecimal
}

// NewMoney returns a present amount.
func NewMoney(d decimal.Decimal) Money {
	return Money{decimal.NewNullDecimal(d)}
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) || bytes.Equal(data, []byte(`""`)) {
		*m = Money{}
		return nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch raw.(type) {
	case string, json.Number:
	default:
		return fmt.Errorf("invalid decimal value: %s", data)
	}

	d, err := ParseDecimal(raw)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %s", data)
	}
	*m = NewMoney(d)
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return m.NullDecimal.MarshalJSON()
}

// Decimal returns the amount, or zero when absent.
func (m Money) Decimal() decimal.Decimal {
	if !m.Valid {
		return decimal.Zero
	}
	return m.NullDecimal.Decimal
}

const apiTimeLayout = "2006-01-02 15:04:05"

// apiTimeLayouts are tried in order. Go accepts a fractional second of any precision
// after the seconds field even when the layout omits it.
var apiTimeLayouts = []string{
	apiTimeLayout,
	"2006-01-02T15:04:05",
}

// Timestamp is a time reported by the API without a zone; it is read as UTC. An empty
// string or null leaves it zero.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected date string, got %s", data)
	}
	parsed, err := parseAPITime(s)
	if err != nil {
		return err
	}
	*t = Timestamp{parsed}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return jsonNull, nil
	}
	return json.Marshal(t.Format(apiTimeLayout))
}

func parseAPITime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range apiTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime: %q", s)
}

// TransactionStatus is the lifecycle state of an ecommerce payment.
type TransactionStatus string

const (
	StatusOpen      TransactionStatus = "OPEN"
	StatusConfirm   TransactionStatus = "CONFIRM"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancel    TransactionStatus = "CANCEL"
)

func (s *TransactionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid transaction status: %s", data)
	}
	switch v := TransactionStatus(str); v {
	case StatusOpen, StatusConfirm, StatusCompleted, StatusCancel:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid transaction status: %q", str)
	}
}
