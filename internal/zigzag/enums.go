package zigzag

import (
	"strconv"

	"github.com/goccy/go-json"
)

// OrderStatus is the lifecycle state of an order or fill
type OrderStatus int

// Order statuses
const (
	Canceled OrderStatus = iota + 1
	Open
	Expired
	Matched
	Rejected
	Filled
	Broadcasted
	PartialFill
	PartialMatch
)

// Side is the side of an order
type Side int

// Sides
const (
	Buy Side = iota + 1
	Sell
)

var orderStatusCodes = map[OrderStatus]string{
	Canceled:     "c",
	Open:         "o",
	Expired:      "e",
	Matched:      "m",
	Rejected:     "r",
	Filled:       "f",
	Broadcasted:  "b",
	PartialFill:  "pf",
	PartialMatch: "pm",
}

var orderStatusNames = map[OrderStatus]string{
	Canceled:     "Canceled",
	Open:         "Open",
	Expired:      "Expired",
	Matched:      "Matched",
	Rejected:     "Rejected",
	Filled:       "Filled",
	Broadcasted:  "Broadcasted",
	PartialFill:  "PartialFill",
	PartialMatch: "PartialMatch",
}

var sideCodes = map[Side]string{
	Buy:  "b",
	Sell: "s",
}

var sideNames = map[Side]string{
	Buy:  "Buy",
	Sell: "Sell",
}

var (
	orderStatusByCode = invert(orderStatusCodes)
	sideByCode        = invert(sideCodes)
)

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, code := range m {
		if _, dup := out[code]; dup {
			panic("zigzag: duplicate short code " + code)
		}
		out[code] = k
	}
	return out
}

// OrderStatuses returns every declared order status in declaration order
func OrderStatuses() []OrderStatus {
	return []OrderStatus{Canceled, Open, Expired, Matched, Rejected, Filled, Broadcasted, PartialFill, PartialMatch}
}

// Sides returns both sides
func Sides() []Side {
	return []Side{Buy, Sell}
}

// ParseOrderStatus maps a wire code to its status
func ParseOrderStatus(code string) (OrderStatus, error) {
	s, ok := orderStatusByCode[code]
	if !ok {
		return 0, &DecodeError{Kind: ErrUnknownCode, Schema: "OrderStatus", Detail: "unknown order status code " + strconv.Quote(code)}
	}
	return s, nil
}

// Code returns the wire code of s, or "" for an undeclared value
func (s OrderStatus) Code() string {
	return orderStatusCodes[s]
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "OrderStatus(" + strconv.Itoa(int(s)) + ")"
}

// Terminal reports whether no further transition is expected from s
func (s OrderStatus) Terminal() bool {
	switch s {
	case Canceled, Expired, Rejected, Filled:
		return true
	}
	return false
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	code, ok := orderStatusCodes[s]
	if !ok {
		return nil, &DecodeError{Kind: ErrUnknownCode, Schema: "OrderStatus", Detail: "undeclared order status " + s.String()}
	}
	return json.Marshal(code)
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	code, err := decodeCode(data, "OrderStatus")
	if err != nil {
		return err
	}
	v, err := ParseOrderStatus(code)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSide maps a wire code to its side
func ParseSide(code string) (Side, error) {
	s, ok := sideByCode[code]
	if !ok {
		return 0, &DecodeError{Kind: ErrUnknownCode, Schema: "Side", Detail: "unknown side code " + strconv.Quote(code)}
	}
	return s, nil
}

// Code returns the wire code of s, or "" for an undeclared value
func (s Side) Code() string {
	return sideCodes[s]
}

func (s Side) String() string {
	if name, ok := sideNames[s]; ok {
		return name
	}
	return "Side(" + strconv.Itoa(int(s)) + ")"
}

func (s Side) MarshalJSON() ([]byte, error) {
	code, ok := sideCodes[s]
	if !ok {
		return nil, &DecodeError{Kind: ErrUnknownCode, Schema: "Side", Detail: "undeclared side " + s.String()}
	}
	return json.Marshal(code)
}

func (s *Side) UnmarshalJSON(data []byte) error {
	code, err := decodeCode(data, "Side")
	if err != nil {
		return err
	}
	v, err := ParseSide(code)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func decodeCode(data []byte, schema string) (string, error) {
	if k := kindOf(data); k != kindString {
		return "", &DecodeError{Kind: ErrTypeMismatch, Schema: schema, Detail: "code must be a string, got " + k.String()}
	}
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return "", &DecodeError{Kind: ErrTypeMismatch, Schema: schema, Detail: err.Error()}
	}
	return code, nil
}
