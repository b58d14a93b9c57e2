package zigzag

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// jsonKind classifies a raw JSON value by its first significant byte
type jsonKind int

const (
	kindInvalid jsonKind = iota
	kindNull
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

func (k jsonKind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindBool:
		return "bool"
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindArray:
		return "array"
	case kindObject:
		return "object"
	}
	return "invalid"
}

func kindOf(data []byte) jsonKind {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return kindInvalid
	}
	switch c := data[0]; {
	case c == 'n':
		return kindNull
	case c == 't' || c == 'f':
		return kindBool
	case c == '"':
		return kindString
	case c == '[':
		return kindArray
	case c == '{':
		return kindObject
	case c == '-' || (c >= '0' && c <= '9'):
		return kindNumber
	}
	return kindInvalid
}

// Price is a price-like value that arrives either as a JSON number or as a
// numeric JSON string. The zero value is the float 0.
type Price struct {
	value  float64
	text   string
	isText bool
}

// FloatPrice returns a Price in number form
func FloatPrice(v float64) Price {
	return Price{value: v}
}

// StringPrice returns a Price in string form
func StringPrice(s string) Price {
	return Price{text: s, isText: true}
}

// IsString reports whether p was built from (or decoded as) a string
func (p Price) IsString() bool {
	return p.isText
}

// Text returns the string form, or "" for a number-form price
func (p Price) Text() string {
	return p.text
}

// Float returns p as a float64. A string that does not parse yields 0.
func (p Price) Float() float64 {
	if !p.isText {
		return p.value
	}
	return cast.ToFloat64(strings.TrimSpace(p.text))
}

// Decimal returns p as a decimal. A string that does not parse yields zero.
func (p Price) Decimal() decimal.Decimal {
	if !p.isText {
		return decimal.NewFromFloat(p.value)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(p.text))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (p Price) String() string {
	if p.isText {
		return p.text
	}
	return cast.ToString(p.value)
}

// MarshalJSON keeps the form the price was built with
func (p Price) MarshalJSON() ([]byte, error) {
	if p.isText {
		return json.Marshal(p.text)
	}
	return json.Marshal(p.value)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	switch k := kindOf(data); k {
	case kindNumber:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return typeMismatch("price: %v", err)
		}
		*p = FloatPrice(v)
	case kindString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return typeMismatch("price: %v", err)
		}
		*p = StringPrice(s)
	default:
		return typeMismatch("price must be a number or a string, got %s", k)
	}
	return nil
}

// RemainingOrError is either a remaining quantity or an error message,
// told apart only by the JSON kind of the value.
type RemainingOrError struct {
	remaining float64
	message   string
	isError   bool
}

// Remaining returns the quantity form
func Remaining(v float64) RemainingOrError {
	return RemainingOrError{remaining: v}
}

// RemainingError returns the error-message form
func RemainingError(msg string) RemainingOrError {
	return RemainingOrError{message: msg, isError: true}
}

// IsError reports whether r carries an error message
func (r RemainingOrError) IsError() bool {
	return r.isError
}

// Quantity returns the remaining quantity; ok is false for the error form
func (r RemainingOrError) Quantity() (v float64, ok bool) {
	return r.remaining, !r.isError
}

// Message returns the error message; ok is false for the quantity form
func (r RemainingOrError) Message() (msg string, ok bool) {
	return r.message, r.isError
}

func (r RemainingOrError) MarshalJSON() ([]byte, error) {
	if r.isError {
		return json.Marshal(r.message)
	}
	return json.Marshal(r.remaining)
}

func (r *RemainingOrError) UnmarshalJSON(data []byte) error {
	switch k := kindOf(data); k {
	case kindNumber:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return typeMismatch("remaining: %v", err)
		}
		*r = Remaining(v)
	case kindString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return typeMismatch("remaining: %v", err)
		}
		*r = RemainingError(s)
	default:
		return typeMismatch("remaining must be a number or a string, got %s", k)
	}
	return nil
}

// TxHash is a 32 byte transaction hash, "0x" prefixed hex on the wire
type TxHash [32]byte

// ParseTxHash parses 64 hex characters with an optional 0x prefix
func ParseTxHash(s string) (TxHash, error) {
	var h TxHash
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != hex.EncodedLen(len(h)) {
		return h, typeMismatch("tx hash must be %d hex characters, got %d", hex.EncodedLen(len(h)), len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, typeMismatch("tx hash: %v", err)
	}
	return h, nil
}

// IsZero reports whether every byte of h is zero
func (h TxHash) IsZero() bool {
	return h == TxHash{}
}

func (h TxHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h TxHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *TxHash) UnmarshalJSON(data []byte) error {
	if k := kindOf(data); k != kindString {
		return typeMismatch("tx hash must be a string, got %s", k)
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return typeMismatch("tx hash: %v", err)
	}
	parsed, err := ParseTxHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
