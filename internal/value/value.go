// Package value implements the tagged-union data model shared by events,
// extracted variables, and action payloads.
//
// A Value mirrors JSON but keeps integers and floats distinct (an i64/u64
// equality check must not silently coerce through float64), and keeps
// Object keys in insertion order so re-encoding a config round-trips.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is a tagged union equivalent to JSON, with numeric sub-cases kept
// distinct so integer-vs-float equality is never silently collapsed.
type Value struct {
	kind Kind

	boolVal   bool
	intVal    int64
	uintVal   uint64
	floatVal  float64
	stringVal string
	arrayVal  []Value
	objectVal *Object
}

// Object is an insertion-ordered string-to-Value mapping.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty, insertion-ordered Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set inserts or updates key, preserving first-insertion order.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of entries in the object.
func (o *Object) Len() int {
	return len(o.keys)
}

// Constructors.

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, boolVal: b} }
func Int(i int64) Value          { return Value{kind: KindInt, intVal: i} }
func Uint(u uint64) Value        { return Value{kind: KindUint, uintVal: u} }
func Float(f float64) Value      { return Value{kind: KindFloat, floatVal: f} }
func String(s string) Value      { return Value{kind: KindString, stringVal: s} }
func Array(items []Value) Value  { return Value{kind: KindArray, arrayVal: items} }
func ObjectVal(o *Object) Value  { return Value{kind: KindObject, objectVal: o} }

// Accessors.

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolVal, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.stringVal, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arrayVal, true
}

func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.objectVal, true
}

// IsNumeric reports whether v holds one of the three numeric sub-cases.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindUint || v.kind == KindFloat
}

// AsFloat64 promotes any numeric sub-case to float64, for cross-type compare.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.intVal), true
	case KindUint:
		return float64(v.uintVal), true
	case KindFloat:
		return v.floatVal, true
	default:
		return 0, false
	}
}

// Get resolves a single path segment against v: an object key or array index.
// It never panics on a shape mismatch; it returns (Value{}, false) instead.
func (v Value) Get(key string) (Value, bool) {
	obj, ok := v.AsObject()
	if !ok {
		return Value{}, false
	}
	return obj.Get(key)
}

func (v Value) Index(i int) (Value, bool) {
	arr, ok := v.AsArray()
	if !ok || i < 0 || i >= len(arr) {
		return Value{}, false
	}
	return arr[i], true
}

// Equal implements structural equality (spec.md §3):
//   - Null equals only Null
//   - Numbers compare cross-type (1 == 1.0 == Uint(1))
//   - Strings/Bools compare directly
//   - Arrays compare element-wise in order
//   - Objects compare as unordered sets of key/value pairs
func Equal(a, b Value) bool {
	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == KindNull && b.kind == KindNull
	}
	if a.IsNumeric() && b.IsNumeric() {
		// Preserve exact integer equality when both sides are integral,
		// so large u64 values don't lose precision through float64.
		if a.kind != KindFloat && b.kind != KindFloat {
			return sameInteger(a, b)
		}
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.boolVal == b.boolVal
	case KindString:
		return a.stringVal == b.stringVal
	case KindArray:
		if len(a.arrayVal) != len(b.arrayVal) {
			return false
		}
		for i := range a.arrayVal {
			if !Equal(a.arrayVal[i], b.arrayVal[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.objectVal.Len() != b.objectVal.Len() {
			return false
		}
		for _, k := range a.objectVal.Keys() {
			av, _ := a.objectVal.Get(k)
			bv, ok := b.objectVal.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func sameInteger(a, b Value) bool {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return a.intVal == b.intVal
	case a.kind == KindUint && b.kind == KindUint:
		return a.uintVal == b.uintVal
	case a.kind == KindInt && b.kind == KindUint:
		return a.intVal >= 0 && uint64(a.intVal) == b.uintVal
	case a.kind == KindUint && b.kind == KindInt:
		return b.intVal >= 0 && uint64(b.intVal) == a.uintVal
	default:
		return false
	}
}

// Compare implements the ordering in spec.md §3. ok is false for
// combinations with no defined order (e.g. two Objects, or a String vs a
// Number).
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind == KindNull && b.kind == KindNull {
		return 0, true
	}
	if a.kind == KindBool && b.kind == KindBool {
		switch {
		case a.boolVal == b.boolVal:
			return 0, true
		case !a.boolVal && b.boolVal:
			return -1, true
		default:
			return 1, true
		}
	}
	if a.IsNumeric() && b.IsNumeric() {
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind == KindString && b.kind == KindString {
		switch {
		case a.stringVal < b.stringVal:
			return -1, true
		case a.stringVal > b.stringVal:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind == KindArray && b.kind == KindArray {
		n := len(a.arrayVal)
		if len(b.arrayVal) < n {
			n = len(b.arrayVal)
		}
		for i := 0; i < n; i++ {
			c, ok := Compare(a.arrayVal[i], b.arrayVal[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		switch {
		case len(a.arrayVal) < len(b.arrayVal):
			return -1, true
		case len(a.arrayVal) > len(b.arrayVal):
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// CoerceToString renders v for use inside an interpolated template
// (spec.md §4.4): strings pass through, Bool/Number use JSON form, Null
// becomes empty, Array/Object use canonical JSON.
func CoerceToString(v Value) string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.stringVal
	case KindBool:
		return strconv.FormatBool(v.boolVal)
	case KindInt:
		return strconv.FormatInt(v.intVal, 10)
	case KindUint:
		return strconv.FormatUint(v.uintVal, 10)
	case KindFloat:
		return strconv.FormatFloat(v.floatVal, 'g', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.boolVal)
	case KindInt:
		return json.Marshal(v.intVal)
	case KindUint:
		return json.Marshal(v.uintVal)
	case KindFloat:
		return json.Marshal(v.floatVal)
	case KindString:
		return json.Marshal(v.stringVal)
	case KindArray:
		return json.Marshal(v.arrayVal)
	case KindObject:
		buf := []byte{'{'}
		for i, k := range v.objectVal.Keys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			val, _ := v.objectVal.Get(k)
			vb, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler. It walks the input with
// json.Decoder.Token instead of bridging through map[string]interface{},
// which loses key order on every Object; json.Number keeps the
// int/uint/float distinction instead of collapsing everything to float64.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("value: unexpected trailing data after JSON value")
	}
	*v = val
	return nil
}

// decodeValue reads one complete JSON value from dec, preserving object key
// order as it appears in the input.
func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberFromJSON(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items), nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("value: object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectVal(obj), nil
		default:
			return Value{}, fmt.Errorf("value: unexpected delimiter %q", t)
		}
	default:
		return Value{}, fmt.Errorf("value: unexpected token %v", tok)
	}
}

func numberFromJSON(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return Int(i)
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return Uint(u)
	}
	if f, err := n.Float64(); err == nil {
		return Float(f)
	}
	return Null()
}
