package zigzag

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Operation is one protocol message. It is implemented by pointers to the
// variant types registered in this file; the wire tag of a variant is its
// type name in lower case.
type Operation interface {
	columns() []column
}

// envelope is the wire shape shared by every operation
type envelope struct {
	Op   json.RawMessage `json:"op"`
	Args json.RawMessage `json:"args"`
}

type outEnvelope struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args"`
}

type registry struct {
	byTag  map[string]reflect.Type
	byType map[reflect.Type]string
}

// operations is built once at init and only read afterwards
var operations = newRegistry(
	(*Login)(nil),
	(*Submitorder3)(nil),
	(*Indicateliq2)(nil),
	(*Fillrequest)(nil),
	(*Userordermatch)(nil),
	(*Orderreceiptreq)(nil),
	(*Orderreceipt)(nil),
	(*Fillreceiptreq)(nil),
	(*Fillreceipt)(nil),
	(*Orders)(nil),
	(*Fills)(nil),
	(*Fillstatus)(nil),
	(*Liquidity2)(nil),
	(*Refreshliquidity)(nil),
	(*Lastprice)(nil),
	(*Marketsummary)(nil),
	(*Subscribemarket)(nil),
	(*Unsubscribemarket)(nil),
	(*Userorderack)(nil),
	(*Cancelall)(nil),
	(*Requestquote)(nil),
	(*Quote)(nil),
	(*Marketinfo)(nil),
	(*Marketinfo2)(nil),
	(*Marketreq)(nil),
	(*Dailyvolumereq)(nil),
	(*Dailyvolume)(nil),
	(*Error)(nil),
)

func newRegistry(ops ...Operation) *registry {
	r := &registry{
		byTag:  make(map[string]reflect.Type, len(ops)),
		byType: make(map[reflect.Type]string, len(ops)),
	}
	for _, op := range ops {
		t := reflect.TypeOf(op)
		tag := strings.ToLower(t.Elem().Name())
		if _, dup := r.byTag[tag]; dup {
			panic("zigzag: duplicate operation tag " + tag)
		}
		r.byTag[tag] = t.Elem()
		r.byType[t] = tag
	}
	return r
}

// Tag returns the wire tag of op, or "" when op is not a registered variant
func Tag(op Operation) string {
	return operations.byType[reflect.TypeOf(op)]
}

// Tags returns every registered tag, sorted
func Tags() []string {
	tags := make([]string, 0, len(operations.byTag))
	for tag := range operations.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// New returns a zero operation for tag
func New(tag string) (Operation, error) {
	t, ok := operations.byTag[tag]
	if !ok {
		return nil, &DecodeError{Kind: ErrUnknownOperationTag, Detail: "unknown operation " + quoteTag(tag)}
	}
	return reflect.New(t).Interface().(Operation), nil
}

// Encode writes op as an {"op", "args"} envelope
func Encode(op Operation) ([]byte, error) {
	if op == nil || reflect.ValueOf(op).IsNil() {
		return nil, fmt.Errorf("failed to encode operation: nil operation")
	}
	tag, ok := operations.byType[reflect.TypeOf(op)]
	if !ok {
		return nil, fmt.Errorf("failed to encode operation: %T is not a registered operation: %w", op, ErrUnknownOperationTag)
	}

	args, err := encodeTuple(reflect.TypeOf(op).Elem().Name(), op.columns())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", tag, err)
	}

	data, err := json.Marshal(outEnvelope{Op: tag, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", tag, err)
	}
	return data, nil
}

// Decode reads one envelope frame. On failure the returned operation is nil
// and the error unwraps to one of the Err* kinds.
func Decode(frame []byte) (Operation, error) {
	if k := kindOf(frame); k != kindObject {
		return nil, &DecodeError{Kind: ErrTypeMismatch, Schema: "envelope", Detail: "expected object, got " + k.String()}
	}
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, &DecodeError{Kind: ErrTypeMismatch, Schema: "envelope", Detail: err.Error()}
	}

	if k := kindOf(env.Op); k != kindString {
		return nil, &DecodeError{Kind: ErrTypeMismatch, Schema: "envelope", Field: "op", Detail: "op must be a string, got " + k.String()}
	}
	var tag string
	if err := json.Unmarshal(env.Op, &tag); err != nil {
		return nil, &DecodeError{Kind: ErrTypeMismatch, Schema: "envelope", Field: "op", Detail: err.Error()}
	}

	op, err := New(tag)
	if err != nil {
		return nil, err
	}
	if len(env.Args) == 0 {
		return nil, &DecodeError{Kind: ErrTypeMismatch, Schema: "envelope", Field: "args", Detail: "missing args for " + quoteTag(tag)}
	}

	if err := decodeTuple(reflect.TypeOf(op).Elem().Name(), env.Args, op.columns()); err != nil {
		return nil, err
	}
	return op, nil
}

func quoteTag(tag string) string {
	return fmt.Sprintf("%q", tag)
}
