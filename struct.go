package xelb

import (
	"fmt"

	"github.com/emacs-exwm/xelb/wire"
)

// Struct is the generic, runtime object the struct engine operates on: a
// pointer to its Descriptor, a byte-order flag fixed for the instance's
// lifetime (invariant 1), and a value store keyed by field name. The
// engine never needs language reflection to walk a concrete message
// type — every read/write goes through this name-keyed table, which is
// exactly the "runtime table keyed by stable field identifiers"
// alternative spec §9 calls out in place of reflective slot access.
type Struct struct {
	desc   *Descriptor
	order  wire.Order
	values map[string]any
	logger Logger
}

// Option configures a new Struct at construction time.
type Option func(*Struct)

// WithByteOrder overrides the default little-endian byte order. Per
// spec §5, this is a per-instance construction argument, never mutable
// global state: two goroutines constructing different Structs with
// different overrides concurrently are race-free.
func WithByteOrder(order wire.Order) Option {
	return func(s *Struct) { s.order = order }
}

// WithLogger attaches a diagnostic Logger. Without one, marshalling and
// unmarshalling perform no I/O at all, preserving the purely synchronous,
// allocation-local model of spec §5.
func WithLogger(l Logger) Option {
	return func(s *Struct) { s.logger = l }
}

// New constructs a Struct instance for desc, little-endian by default.
func New(desc *Descriptor, opts ...Option) *Struct {
	s := &Struct{desc: desc, order: wire.LittleEndian, values: map[string]any{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Descriptor returns the Struct's Descriptor.
func (s *Struct) Descriptor() *Descriptor { return s.desc }

// ByteOrder returns the byte order fixed at construction.
func (s *Struct) ByteOrder() wire.Order { return s.order }

// Set stores v under name, replacing any previous value.
func (s *Struct) Set(name string, v any) { s.values[name] = v }

// Get returns the value stored under name, if any.
func (s *Struct) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// SetUint stores an unsigned integer field value.
func (s *Struct) SetUint(name string, v uint64) { s.Set(name, v) }

// SetInt stores a signed integer field value.
func (s *Struct) SetInt(name string, v int64) { s.Set(name, v) }

// SetFloat32 stores a binary32 field value.
func (s *Struct) SetFloat32(name string, v float32) { s.Set(name, v) }

// SetFloat64 stores a binary64 field value.
func (s *Struct) SetFloat64(name string, v float64) { s.Set(name, v) }

// SetBytes stores a raw byte-string field value, used for BYTE/void
// lists (and as a shortcut source for a list-of-u1 field).
func (s *Struct) SetBytes(name string, b []byte) { s.Set(name, b) }

// SetString stores a decoded ISO-Latin-1 string, the decoded form of a
// list-of-char field.
func (s *Struct) SetString(name string, str string) { s.Set(name, str) }

// SetList stores a list field's elements.
func (s *Struct) SetList(name string, items []any) { s.Set(name, items) }

// SetStruct stores a nested struct field's value.
func (s *Struct) SetStruct(name string, child *Struct) { s.Set(name, child) }

// GetInt64 is a typed convenience accessor returning a field's value
// coerced to int64.
func (s *Struct) GetInt64(name string) (int64, error) {
	v, ok := s.Get(name)
	if !ok {
		return 0, fmt.Errorf("xelb: field %q: %w", name, ErrMissingField)
	}
	return asInt64(v)
}

func (s *Struct) logf(level string, format string, args ...any) {
	if s.logger == nil {
		return
	}
	switch level {
	case "debug":
		s.logger.Debugf(format, args...)
	case "warn":
		s.logger.Warnf(format, args...)
	}
}

// --- generic field engine ----------------------------------------------
//
// marshalFields and unmarshalFields implement spec §4.C's marshal and
// unmarshal algorithms over s.desc.Fields. They are shared by every
// Class except ClassUnion, which has its own algorithm in kinds.go; the
// class-specific preamble/postamble bytes are added by the callers in
// kinds.go, not here.

// marshalFields walks s.desc.Fields in declaration order, appending each
// field's encoding to out. parent is the enclosing struct for paramref
// resolution (nil at the top level). isRequest compensates pad-align
// offsets for a request's omitted 2-byte length field.
func (s *Struct) marshalFields(out []byte, parent *Struct, isRequest bool) ([]byte, error) {
	for i := range s.desc.Fields {
		f := &s.desc.Fields[i]
		if f.Type == KindIgnore {
			continue
		}
		if f.Type == KindSwitch {
			var err error
			out, err = s.marshalSwitch(out, f, parent, isRequest)
			if err != nil {
				return nil, err
			}
			continue
		}
		var err error
		out, err = s.marshalOneField(out, f, parent, isRequest)
		if err != nil {
			s.logf("warn", "xelb: marshal %s.%s: %v", s.desc.Name, f.Name, err)
			return nil, err
		}
	}
	return out, nil
}

// marshalOneField encodes a single non-switch field and appends it to
// out.
func (s *Struct) marshalOneField(out []byte, f *Field, parent *Struct, isRequest bool) ([]byte, error) {
	s.logf("debug", "xelb: marshal %s.%s (%s)", s.desc.Name, f.Name, f.Type)
	switch f.Type {
	case KindPad:
		n, err := evalSize(f.PadLen, s, parent)
		if err != nil {
			return nil, err
		}
		return append(out, make([]byte, n)...), nil

	case KindPadAlign:
		offset := len(out)
		if isRequest {
			offset += 2
		}
		if f.OffsetCorrection != nil {
			corr, err := evalSize(f.OffsetCorrection, s, parent)
			if err != nil {
				return nil, err
			}
			offset -= int(corr)
		}
		n := negMod(offset, f.Align)
		return append(out, make([]byte, n)...), nil

	case KindList:
		return s.marshalList(out, f, parent, isRequest)

	case KindStruct:
		child, ok := s.Get(f.Name)
		if !ok {
			return nil, fmt.Errorf("xelb: field %q: %w", f.Name, ErrMissingField)
		}
		cs, ok := child.(*Struct)
		if !ok {
			return nil, fmt.Errorf("xelb: field %q: expected *Struct, got %T", f.Name, child)
		}
		if cs.desc.Class == ClassUnion {
			body, err := marshalUnion(cs, s, isRequest)
			if err != nil {
				return nil, err
			}
			return append(out, body...), nil
		}
		// Pass out through directly, not a fresh nil slice: a pad-align
		// inside cs must see the full accumulated offset from the
		// outermost struct, not one reset to zero at this nesting level.
		return cs.marshalFields(out, s, isRequest)

	default:
		return s.marshalScalar(out, f)
	}
}

func (s *Struct) marshalScalar(out []byte, f *Field) ([]byte, error) {
	v, ok := s.Get(f.Name)
	if !ok {
		return nil, fmt.Errorf("xelb: field %q: %w", f.Name, ErrMissingField)
	}
	switch f.Type {
	case KindU1, KindChar, KindU2, KindU4, KindU8:
		u, err := asUint64(v)
		if err != nil {
			return nil, err
		}
		return append(out, wire.PackUint(u, f.Type.width(), s.order)...), nil
	case KindI1, KindI2, KindI4:
		i, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		return append(out, wire.PackInt(i, f.Type.width(), s.order)...), nil
	case KindF32:
		fv, err := asFloat32(v)
		if err != nil {
			return nil, err
		}
		return append(out, wire.PackFloat32(fv, s.order)...), nil
	case KindF64:
		fv, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		return append(out, wire.PackFloat64(fv, s.order)...), nil
	case KindVoid:
		b, err := asUint64(v)
		if err != nil {
			return nil, err
		}
		return append(out, byte(b)), nil
	default:
		return nil, fmt.Errorf("xelb: field %q: %w", f.Name, ErrUnsupportedType)
	}
}

func (s *Struct) marshalList(out []byte, f *Field, parent *Struct, isRequest bool) ([]byte, error) {
	n, err := evalSize(f.Size, s, parent)
	if err != nil {
		return nil, err
	}
	v, ok := s.Get(f.Name)
	if !ok {
		return nil, fmt.Errorf("xelb: list %q: %w", f.Name, ErrMissingField)
	}

	// Special case: a list of BYTE/u1 backed by a raw byte string is
	// copied directly, as spec §4.C prescribes.
	if raw, ok := v.([]byte); ok && (f.ElemKind == KindU1 || f.ElemKind == KindVoid) {
		if int64(len(raw)) != n {
			return nil, fmt.Errorf("xelb: list %q: stored %d bytes, size expression is %d: %w", f.Name, len(raw), n, ErrListSizeMismatch)
		}
		return append(out, raw...), nil
	}
	// Special case: a list of char backed by a decoded Latin-1 string.
	if str, ok := v.(string); ok && f.ElemKind == KindChar {
		raw := []byte(str)
		if int64(len(raw)) != n {
			return nil, fmt.Errorf("xelb: list %q: stored %d chars, size expression is %d: %w", f.Name, len(raw), n, ErrListSizeMismatch)
		}
		return append(out, raw...), nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("xelb: list %q: expected []any, got %T", f.Name, v)
	}
	if int64(len(items)) != n {
		return nil, fmt.Errorf("xelb: list %q: stored %d elements, size expression is %d: %w", f.Name, len(items), n, ErrListSizeMismatch)
	}

	for idx, item := range items {
		var err error
		if f.ElemKind == KindStruct {
			cs, ok := item.(*Struct)
			if !ok {
				return nil, fmt.Errorf("xelb: list %q[%d]: expected *Struct, got %T", f.Name, idx, item)
			}
			if cs.desc.Class == ClassUnion {
				var body []byte
				body, err = marshalUnion(cs, s, isRequest)
				if err == nil {
					out = append(out, body...)
				}
			} else {
				out, err = cs.marshalFields(out, s, isRequest)
			}
		} else {
			elemField := &Field{Name: f.Name, Type: f.ElemKind}
			tmp := &Struct{desc: s.desc, order: s.order, values: map[string]any{f.Name: item}}
			out, err = tmp.marshalScalar(out, elemField)
		}
		if err != nil {
			return nil, fmt.Errorf("xelb: list %q[%d]: %w", f.Name, idx, err)
		}
	}
	return out, nil
}

// marshalSwitch implements spec §4.C's switch marshal semantics: emit
// every member field, in the switch's declared Members order, that is
// referenced by at least one matching case.
func (s *Struct) marshalSwitch(out []byte, f *Field, parent *Struct, isRequest bool) ([]byte, error) {
	disc, err := f.Discriminant.eval(s, parent)
	if err != nil {
		return nil, err
	}
	matched := matchedSwitchNames(f, disc)
	for i := range f.Members {
		m := &f.Members[i]
		if !matched[m.Name] {
			continue
		}
		out, err = s.marshalOneField(out, m, parent, isRequest)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func matchedSwitchNames(f *Field, disc int64) map[string]bool {
	matched := map[string]bool{}
	for _, c := range f.Cases {
		if c.Cond.match(disc) {
			for _, name := range c.FieldNames {
				matched[name] = true
			}
		}
	}
	return matched
}

// negMod returns the minimal non-negative n such that (offset+n) is a
// multiple of align. Any positive align works; for align <= 0 it
// returns 0.
func negMod(offset, align int) int {
	if align <= 0 {
		return 0
	}
	r := offset % align
	if r == 0 {
		return 0
	}
	return align - r
}

func asUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case int64:
		return uint64(x), nil
	case uint:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case int:
		return uint64(x), nil
	default:
		return 0, fmt.Errorf("xelb: value %v (%T) is not an unsigned integer: %w", v, v, ErrUnsupportedType)
	}
}

func asFloat32(v any) (float32, error) {
	switch x := v.(type) {
	case float32:
		return x, nil
	case float64:
		return float32(x), nil
	default:
		return 0, fmt.Errorf("xelb: value %v (%T) is not a float32: %w", v, v, ErrUnsupportedType)
	}
}

func asFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("xelb: value %v (%T) is not a float64: %w", v, v, ErrUnsupportedType)
	}
}
