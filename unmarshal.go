package xelb

import (
	"fmt"

	"github.com/emacs-exwm/xelb/wire"
)

// unmarshalFields is the symmetric counterpart of marshalFields: it
// decodes s.desc.Fields from b in declaration order, storing each value
// into s, and returns the number of bytes consumed.
//
// total is the length of the outermost message being decoded and is
// passed down UNCHANGED through every level of recursion — it is a
// constant, not a remaining-bytes counter. Because every recursive call
// into a field list or nested struct is handed a suffix of the original
// buffer (never a bounded sub-slice), the absolute wire offset of the
// current cursor can be recovered as total-len(b), where b is whatever
// suffix slice the current call received. pad-align relies on exactly
// this (spec §4.C's unmarshal note). The one exception is a union:
// unmarshalUnion decodes its members from a window bounded to the
// union's size with total set to that size, so offsets inside a union
// member count from the union's start (as marshalUnion's do).
func (s *Struct) unmarshalFields(b []byte, parent *Struct, total int, isRequest bool) (int, error) {
	p := 0
	for i := range s.desc.Fields {
		f := &s.desc.Fields[i]
		if f.Type == KindIgnore {
			continue
		}
		if f.Type == KindSwitch {
			n, err := s.unmarshalSwitch(b[p:], f, parent, total, isRequest)
			if err != nil {
				return 0, err
			}
			p += n
			break // switch is always the last field (invariant 4)
		}
		n, err := s.unmarshalOneField(b[p:], f, parent, total, isRequest)
		if err != nil {
			s.logf("warn", "xelb: unmarshal %s.%s: %v", s.desc.Name, f.Name, err)
			return 0, err
		}
		p += n
	}
	return p, nil
}

// unmarshalOneField decodes a single non-switch field from b (the suffix
// slice of the original message starting at the current cursor) and
// stores its value into s. total is the constant original-message length
// described above.
func (s *Struct) unmarshalOneField(b []byte, f *Field, parent *Struct, total int, isRequest bool) (int, error) {
	s.logf("debug", "xelb: unmarshal %s.%s (%s)", s.desc.Name, f.Name, f.Type)
	switch f.Type {
	case KindPad:
		n, err := evalSize(f.PadLen, s, parent)
		if err != nil {
			return 0, err
		}
		if int(n) > len(b) {
			return 0, fmt.Errorf("xelb: pad %q: %w", f.Name, ErrInputTooShort)
		}
		return int(n), nil

	case KindPadAlign:
		offset := total - len(b)
		if isRequest {
			offset += 2
		}
		if f.OffsetCorrection != nil {
			corr, err := evalSize(f.OffsetCorrection, s, parent)
			if err != nil {
				return 0, err
			}
			offset -= int(corr)
		}
		n := negMod(offset, f.Align)
		if n > len(b) {
			return 0, fmt.Errorf("xelb: pad-align %q: %w", f.Name, ErrInputTooShort)
		}
		return n, nil

	case KindList:
		return s.unmarshalList(b, f, parent, total, isRequest)

	case KindStruct:
		child := New(f.Nested, WithByteOrder(s.order), withLoggerOf(s))
		if f.Nested.Class == ClassUnion {
			n, err := unmarshalUnion(child, b, s, isRequest)
			if err != nil {
				return 0, err
			}
			s.Set(f.Name, child)
			return n, nil
		}
		n, err := child.unmarshalFields(b, s, total, isRequest)
		if err != nil {
			return 0, err
		}
		s.Set(f.Name, child)
		return n, nil

	default:
		return s.unmarshalScalar(b, f)
	}
}

func (s *Struct) unmarshalScalar(b []byte, f *Field) (int, error) {
	w := f.Type.width()
	if w == 0 {
		return 0, fmt.Errorf("xelb: field %q: %w", f.Name, ErrUnsupportedType)
	}
	if len(b) < w {
		return 0, fmt.Errorf("xelb: field %q: need %d bytes, have %d: %w", f.Name, w, len(b), ErrInputTooShort)
	}
	chunk := b[:w]
	switch f.Type {
	case KindU1, KindChar, KindU2, KindU4, KindU8:
		s.Set(f.Name, wire.UnpackUint(chunk, s.order))
	case KindI1, KindI2, KindI4:
		s.Set(f.Name, wire.UnpackInt(chunk, s.order))
	case KindF32:
		v, err := wire.UnpackFloat32(chunk, s.order)
		if err != nil {
			return 0, err
		}
		s.Set(f.Name, v)
	case KindF64:
		v, err := wire.UnpackFloat64(chunk, s.order)
		if err != nil {
			return 0, err
		}
		s.Set(f.Name, v)
	case KindVoid:
		s.Set(f.Name, uint64(chunk[0]))
	default:
		return 0, fmt.Errorf("xelb: field %q: %w", f.Name, ErrUnsupportedType)
	}
	return w, nil
}

func (s *Struct) unmarshalList(b []byte, f *Field, parent *Struct, total int, isRequest bool) (int, error) {
	n, err := evalSize(f.Size, s, parent)
	if err != nil {
		return 0, err
	}

	switch f.ElemKind {
	case KindU1, KindVoid:
		if int64(len(b)) < n {
			return 0, fmt.Errorf("xelb: list %q: %w", f.Name, ErrInputTooShort)
		}
		raw := make([]byte, n)
		copy(raw, b[:n])
		s.Set(f.Name, raw)
		return int(n), nil
	case KindChar:
		// A char-typed list is an ISO-Latin-1 string on the object-model
		// side, the symmetric counterpart of marshalList's string case.
		if int64(len(b)) < n {
			return 0, fmt.Errorf("xelb: list %q: %w", f.Name, ErrInputTooShort)
		}
		s.SetString(f.Name, string(b[:n]))
		return int(n), nil
	case KindStruct:
		p := 0
		items := make([]any, 0, n)
		for i := int64(0); i < n; i++ {
			child := New(f.ElemStruct, WithByteOrder(s.order), withLoggerOf(s))
			var consumed int
			var err error
			if f.ElemStruct.Class == ClassUnion {
				consumed, err = unmarshalUnion(child, b[p:], s, isRequest)
			} else {
				consumed, err = child.unmarshalFields(b[p:], s, total, isRequest)
			}
			if err != nil {
				return 0, fmt.Errorf("xelb: list %q[%d]: %w", f.Name, i, err)
			}
			items = append(items, child)
			p += consumed
		}
		s.Set(f.Name, items)
		return p, nil
	default:
		w := f.ElemKind.width()
		if w == 0 {
			return 0, fmt.Errorf("xelb: list %q: %w", f.Name, ErrUnsupportedType)
		}
		if int64(len(b)) < n*int64(w) {
			return 0, fmt.Errorf("xelb: list %q: %w", f.Name, ErrInputTooShort)
		}
		items := make([]any, 0, n)
		p := 0
		elemField := &Field{Name: f.Name, Type: f.ElemKind}
		for i := int64(0); i < n; i++ {
			tmp := &Struct{desc: s.desc, order: s.order, values: map[string]any{}}
			consumed, err := tmp.unmarshalScalar(b[p:], elemField)
			if err != nil {
				return 0, err
			}
			v, _ := tmp.Get(f.Name)
			items = append(items, v)
			p += consumed
		}
		s.Set(f.Name, items)
		return p, nil
	}
}

func (s *Struct) unmarshalSwitch(b []byte, f *Field, parent *Struct, total int, isRequest bool) (int, error) {
	disc, err := f.Discriminant.eval(s, parent)
	if err != nil {
		return 0, err
	}
	matched := matchedSwitchNames(f, disc)
	p := 0
	for i := range f.Members {
		m := &f.Members[i]
		if !matched[m.Name] {
			continue
		}
		n, err := s.unmarshalOneField(b[p:], m, parent, total, isRequest)
		if err != nil {
			return 0, err
		}
		p += n
	}
	return p, nil
}

func withLoggerOf(s *Struct) Option {
	return func(c *Struct) { c.logger = s.logger }
}
