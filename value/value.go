// Package value implements the runtime's tagged-union Value type (spec §3
// Data model): null, bool, fixed-width signed/unsigned integers, f32/f64,
// UTF-8 strings, byte buffers, ordered arrays, and string-keyed maps.
//
// Values are immutable from the caller's point of view: every mutator
// returns a new Value or mutates a freshly Cloned one. The zero Value is
// Null.
package value

import (
	"github.com/teranos/ten/errors"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindString
	KindBytes
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the tagged union described by spec §3. Only the fields relevant
// to Kind are meaningful; the rest are zero.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f32  float32
	f64  float64
	str  string
	bin  []byte
	arr  []Value
	obj  *object
}

// Null is the zero Value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func I8(v int8) Value   { return Value{kind: KindI8, i: int64(v)} }
func I16(v int16) Value { return Value{kind: KindI16, i: int64(v)} }
func I32(v int32) Value { return Value{kind: KindI32, i: int64(v)} }
func I64(v int64) Value { return Value{kind: KindI64, i: v} }

func U8(v uint8) Value   { return Value{kind: KindU8, u: uint64(v)} }
func U16(v uint16) Value { return Value{kind: KindU16, u: uint64(v)} }
func U32(v uint32) Value { return Value{kind: KindU32, u: uint64(v)} }
func U64(v uint64) Value { return Value{kind: KindU64, u: v} }

func F32(v float32) Value { return Value{kind: KindF32, f32: v} }
func F64(v float64) Value { return Value{kind: KindF64, f64: v} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bin: cp}
}

// Array builds an array Value, deep-cloning each element.
func Array(items ...Value) Value {
	arr := make([]Value, len(items))
	for i, it := range items {
		arr[i] = it.Clone()
	}
	return Value{kind: KindArray, arr: arr}
}

// Map builds an empty map Value. Use Set to populate it in insertion order.
func Map() Value {
	return Value{kind: KindMap, obj: newObject()}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Int returns the value as an int64 for any signed or unsigned integer kind
// that fits, widening as needed. Returns false for non-integer kinds.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindI8, KindI16, KindI32, KindI64:
		return v.i, true
	case KindU8, KindU16, KindU32, KindU64:
		return int64(v.u), true
	default:
		return 0, false
	}
}

func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return v.u, true
	case KindI8, KindI16, KindI32, KindI64:
		return uint64(v.i), true
	default:
		return 0, false
	}
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindF64:
		return v.f64, true
	case KindF32:
		return float64(v.f32), true
	default:
		return 0, false
	}
}

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	cp := make([]byte, len(v.bin))
	copy(cp, v.bin)
	return cp, true
}

func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Get looks up key in a map Value. Returns Null, false if v is not a map or
// the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap || v.obj == nil {
		return Null, false
	}
	return v.obj.get(key)
}

// Set inserts or overwrites key in a map Value, preserving first-insertion
// order for keys not already present. Panics if v is not a map Value — build
// maps with value.Map() first.
func (v Value) Set(key string, val Value) Value {
	if v.kind != KindMap {
		panic("value: Set called on non-map Value")
	}
	obj := newObject()
	if v.obj != nil {
		obj.keyOrder = append(obj.keyOrder, v.obj.keyOrder...)
		for k, e := range v.obj.vals {
			obj.vals[k] = e
		}
	}
	obj.set(key, val.Clone())
	v.obj = obj
	return v
}

// Keys returns a map Value's keys in insertion order. Empty for non-maps.
func (v Value) Keys() []string {
	if v.kind != KindMap || v.obj == nil {
		return nil
	}
	return v.obj.keys()
}

// Len reports the number of elements in an array or map Value, or -1 for
// other kinds.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		if v.obj == nil {
			return 0
		}
		return v.obj.len()
	default:
		return -1
	}
}

// ErrWrongKind is returned by typed accessors when used through helpers that
// prefer an error over an (value, ok) pair.
var ErrWrongKind = errors.New("value: wrong kind")
