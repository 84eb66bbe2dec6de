package value

import (
	"encoding/json"

	"github.com/teranos/ten/errors"
)

// jsonEnvelope is the wire shape used by Value's JSON codec: a kind tag plus
// a raw payload. Tagging every scalar keeps the round trip exact (spec §8:
// "Value ⇄ JSON is identity on the JSON-representable subset") instead of
// collapsing every integer width into one untyped JSON number.
type jsonEnvelope struct {
	Kind string          `json:"kind"`
	Val  json.RawMessage `json:"val,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return json.Marshal(jsonEnvelope{Kind: "null"})
	case KindBool:
		return marshalScalar("bool", v.b)
	case KindI8:
		return marshalScalar("i8", v.i)
	case KindI16:
		return marshalScalar("i16", v.i)
	case KindI32:
		return marshalScalar("i32", v.i)
	case KindI64:
		return marshalScalar("i64", v.i)
	case KindU8:
		return marshalScalar("u8", v.u)
	case KindU16:
		return marshalScalar("u16", v.u)
	case KindU32:
		return marshalScalar("u32", v.u)
	case KindU64:
		return marshalScalar("u64", v.u)
	case KindF32:
		return marshalScalar("f32", v.f32)
	case KindF64:
		return marshalScalar("f64", v.f64)
	case KindString:
		return marshalScalar("string", v.str)
	case KindBytes:
		return marshalScalar("bytes", v.bin)
	case KindArray:
		raw, err := json.Marshal(v.arr)
		if err != nil {
			return nil, err
		}
		return json.Marshal(jsonEnvelope{Kind: "array", Val: raw})
	case KindMap:
		m := make(map[string]Value)
		var keys []string
		if v.obj != nil {
			keys = v.obj.keys()
			for _, k := range keys {
				m[k], _ = v.obj.get(k)
			}
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		return json.Marshal(jsonEnvelope{Kind: "map", Val: raw})
	default:
		return nil, errors.Newf("value: cannot marshal kind %s", v.kind)
	}
}

func marshalScalar(kind string, v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonEnvelope{Kind: kind, Val: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "value: invalid envelope")
	}

	switch env.Kind {
	case "null":
		*v = Null
	case "bool":
		var b bool
		if err := json.Unmarshal(env.Val, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case "i8", "i16", "i32", "i64":
		var i int64
		if err := json.Unmarshal(env.Val, &i); err != nil {
			return err
		}
		*v = Value{kind: kindFromTag(env.Kind), i: i}
	case "u8", "u16", "u32", "u64":
		var u uint64
		if err := json.Unmarshal(env.Val, &u); err != nil {
			return err
		}
		*v = Value{kind: kindFromTag(env.Kind), u: u}
	case "f32":
		var f float32
		if err := json.Unmarshal(env.Val, &f); err != nil {
			return err
		}
		*v = F32(f)
	case "f64":
		var f float64
		if err := json.Unmarshal(env.Val, &f); err != nil {
			return err
		}
		*v = F64(f)
	case "string":
		var s string
		if err := json.Unmarshal(env.Val, &s); err != nil {
			return err
		}
		*v = String(s)
	case "bytes":
		var b []byte
		if err := json.Unmarshal(env.Val, &b); err != nil {
			return err
		}
		*v = Bytes(b)
	case "array":
		var arr []Value
		if err := json.Unmarshal(env.Val, &arr); err != nil {
			return err
		}
		*v = Value{kind: KindArray, arr: arr}
	case "map":
		var m map[string]Value
		if err := json.Unmarshal(env.Val, &m); err != nil {
			return err
		}
		obj := newObject()
		for k, val := range m {
			obj.set(k, val)
		}
		*v = Value{kind: KindMap, obj: obj}
	default:
		return errors.Newf("value: unknown kind tag %q", env.Kind)
	}
	return nil
}

func kindFromTag(tag string) Kind {
	switch tag {
	case "i8":
		return KindI8
	case "i16":
		return KindI16
	case "i32":
		return KindI32
	case "i64":
		return KindI64
	case "u8":
		return KindU8
	case "u16":
		return KindU16
	case "u32":
		return KindU32
	case "u64":
		return KindU64
	default:
		return KindNull
	}
}
