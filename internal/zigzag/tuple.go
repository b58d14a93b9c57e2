package zigzag

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

// column binds one positional field of a record to a pointer into the record.
// Optional columns point at a pointer field; a nil pointer means absent.
type column struct {
	name     string
	ptr      any
	optional bool
}

func field(name string, ptr any) column {
	return column{name: name, ptr: ptr}
}

func optional(name string, ptr any) column {
	return column{name: name, ptr: ptr, optional: true}
}

var (
	nullJSON  = []byte("null")
	emptyJSON = []byte("[]")
)

// absent reports whether an optional column's pointer field is nil
func (c column) absent() bool {
	if !c.optional {
		return false
	}
	v := reflect.ValueOf(c.ptr).Elem()
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// arity returns the accepted array length range for cols: every column up to
// and including the last required one must be present.
func arity(cols []column) (lo, hi int) {
	for i, c := range cols {
		if !c.optional {
			lo = i + 1
		}
	}
	return lo, len(cols)
}

// encodeTuple writes cols as a JSON array in declaration order. The trailing
// run of absent optional columns is dropped; an absent optional that is
// followed by an emitted column is written as null.
func encodeTuple(schema string, cols []column) ([]byte, error) {
	n := len(cols)
	for n > 0 && cols[n-1].absent() {
		n--
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, c := range cols[:n] {
		if i > 0 {
			buf.WriteByte(',')
		}
		if c.absent() {
			buf.Write(nullJSON)
			continue
		}
		if v := reflect.ValueOf(c.ptr).Elem(); v.Kind() == reflect.Slice && v.IsNil() {
			buf.Write(emptyJSON)
			continue
		}
		b, err := json.Marshal(c.ptr)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s.%s: %w", schema, c.name, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// decodeTuple reads a JSON array into cols. Missing trailing optional columns
// and explicit nulls in optional positions are left absent.
func decodeTuple(schema string, data []byte, cols []column) error {
	if k := kindOf(data); k != kindArray {
		return &DecodeError{Kind: ErrTypeMismatch, Schema: schema, Detail: "expected array, got " + k.String()}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return &DecodeError{Kind: ErrTypeMismatch, Schema: schema, Detail: err.Error()}
	}

	lo, hi := arity(cols)
	if len(elems) < lo || len(elems) > hi {
		return &DecodeError{
			Kind:   ErrArityMismatch,
			Schema: schema,
			Detail: fmt.Sprintf("%s expects %d..%d elements, got %d", schema, lo, hi, len(elems)),
		}
	}

	for i, raw := range elems {
		c := cols[i]
		if kindOf(raw) == kindNull {
			if c.optional {
				continue
			}
			return &DecodeError{Kind: ErrTypeMismatch, Schema: schema, Field: c.name, Detail: "null in required position"}
		}
		if err := json.Unmarshal(raw, c.ptr); err != nil {
			return withContext(err, schema, c.name)
		}
	}
	return nil
}
