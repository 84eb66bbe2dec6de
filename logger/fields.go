package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/ten/value"
)

// zapFieldsFromValue converts a Log call's Fields map into typed zap
// fields. Each Kind goes through its matching typed constructor
// (Int64/Uint64/Float64/...) rather than the generic zap.Any, so an i64
// like 9223372036854775807 round-trips intact instead of being widened
// into a float64 along the way.
func zapFieldsFromValue(v value.Value) []zap.Field {
	if v.Kind() != value.KindMap {
		return nil
	}
	keys := v.Keys()
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fv, _ := v.Get(k)
		fields = append(fields, zapField(k, fv))
	}
	return fields
}

func zapField(key string, v value.Value) zap.Field {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.Bool()
		return zap.Bool(key, b)
	case value.KindI8, value.KindI16, value.KindI32, value.KindI64:
		i, _ := v.Int()
		return zap.Int64(key, i)
	case value.KindU8, value.KindU16, value.KindU32, value.KindU64:
		u, _ := v.Uint()
		return zap.Uint64(key, u)
	case value.KindF32, value.KindF64:
		f, _ := v.Float()
		return zap.Float64(key, f)
	case value.KindString:
		s, _ := v.String()
		return zap.String(key, s)
	case value.KindBytes:
		b, _ := v.Bytes()
		return zap.Binary(key, b)
	case value.KindNull:
		return zap.Skip()
	default:
		return zap.Any(key, v)
	}
}
