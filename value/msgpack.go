package value

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/teranos/ten/errors"
)

// wireValue mirrors Value in a shape vmihailenco/msgpack can encode directly:
// a one-byte kind tag plus exactly the field that kind needs. This is the
// canonical on-wire representation used by the msgpack-over-TCP transport
// (spec §6) and by Message's payload encoding.
type wireValue struct {
	K uint8       `msgpack:"k"`
	B bool        `msgpack:"b,omitempty"`
	I int64       `msgpack:"i,omitempty"`
	U uint64      `msgpack:"u,omitempty"`
	F float64     `msgpack:"f,omitempty"`
	S string      `msgpack:"s,omitempty"`
	X []byte      `msgpack:"x,omitempty"`
	A []wireValue `msgpack:"a,omitempty"`
	M []wireEntry `msgpack:"m,omitempty"`
}

type wireEntry struct {
	Key string    `msgpack:"key"`
	Val wireValue `msgpack:"val"`
}

func (v Value) toWire() wireValue {
	w := wireValue{K: uint8(v.kind)}
	switch v.kind {
	case KindBool:
		w.B = v.b
	case KindI8, KindI16, KindI32, KindI64:
		w.I = v.i
	case KindU8, KindU16, KindU32, KindU64:
		w.U = v.u
	case KindF32:
		w.F = float64(v.f32)
	case KindF64:
		w.F = v.f64
	case KindString:
		w.S = v.str
	case KindBytes:
		w.X = v.bin
	case KindArray:
		w.A = make([]wireValue, len(v.arr))
		for i, item := range v.arr {
			w.A[i] = item.toWire()
		}
	case KindMap:
		if v.obj != nil {
			for _, k := range v.obj.keys() {
				val, _ := v.obj.get(k)
				w.M = append(w.M, wireEntry{Key: k, Val: val.toWire()})
			}
		}
	}
	return w
}

func fromWire(w wireValue) Value {
	kind := Kind(w.K)
	switch kind {
	case KindNull:
		return Null
	case KindBool:
		return Bool(w.B)
	case KindI8, KindI16, KindI32, KindI64:
		return Value{kind: kind, i: w.I}
	case KindU8, KindU16, KindU32, KindU64:
		return Value{kind: kind, u: w.U}
	case KindF32:
		return F32(float32(w.F))
	case KindF64:
		return F64(w.F)
	case KindString:
		return String(w.S)
	case KindBytes:
		return Bytes(w.X)
	case KindArray:
		arr := make([]Value, len(w.A))
		for i, item := range w.A {
			arr[i] = fromWire(item)
		}
		return Value{kind: KindArray, arr: arr}
	case KindMap:
		obj := newObject()
		for _, e := range w.M {
			obj.set(e.Key, fromWire(e.Val))
		}
		return Value{kind: KindMap, obj: obj}
	default:
		return Null
	}
}

// MarshalBinary produces the canonical msgpack encoding used for on-wire
// framing (spec §6).
func (v Value) MarshalBinary() ([]byte, error) {
	b, err := msgpack.Marshal(v.toWire())
	if err != nil {
		return nil, errors.Wrap(err, "value: msgpack encode")
	}
	return b, nil
}

// UnmarshalBinary decodes the canonical msgpack encoding produced by
// MarshalBinary.
func (v *Value) UnmarshalBinary(data []byte) error {
	var w wireValue
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "value: msgpack decode")
	}
	*v = fromWire(w)
	return nil
}
