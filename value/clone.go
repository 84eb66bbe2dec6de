package value

// Clone performs a deep copy. Arrays and maps are copied element by element;
// byte buffers are copied so the result shares no backing storage with v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBytes:
		cp := make([]byte, len(v.bin))
		copy(cp, v.bin)
		v.bin = cp
		return v
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, item := range v.arr {
			arr[i] = item.Clone()
		}
		v.arr = arr
		return v
	case KindMap:
		if v.obj != nil {
			v.obj = v.obj.clone()
		}
		return v
	default:
		return v
	}
}

// Equal reports deep, kind-exact structural equality. Map equality ignores
// insertion order; numeric kinds are not coerced against each other (an I32
// holding 1 is not Equal to a U8 holding 1).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindI8, KindI16, KindI32, KindI64:
		return a.i == b.i
	case KindU8, KindU16, KindU32, KindU64:
		return a.u == b.u
	case KindF32:
		return a.f32 == b.f32
	case KindF64:
		return a.f64 == b.f64
	case KindString:
		return a.str == b.str
	case KindBytes:
		return bytesEqual(a.bin, b.bin)
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return objectsEqual(a.obj, b.obj)
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func objectsEqual(a, b *object) bool {
	al, bl := 0, 0
	if a != nil {
		al = a.len()
	}
	if b != nil {
		bl = b.len()
	}
	if al != bl {
		return false
	}
	if al == 0 {
		return true
	}
	for _, k := range a.keys() {
		av, _ := a.get(k)
		bv, ok := b.get(k)
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}
