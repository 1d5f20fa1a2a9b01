package xelb

import (
	"fmt"

	"github.com/emacs-exwm/xelb/wire"
)

// Wire format constants, spec §6.3.
const (
	ReplyMarker       = 1
	ErrorMarker       = 0
	GenericEventCode  = 35
	EventMinimumBytes = 32
)

// EventNumber is what an EventNumberFunc resolves an event class name
// to: a core event's code, or — for generic/XKB-style events — a code
// alongside an extension id and an extension-private evtype.
type EventNumber struct {
	Code        uint8
	Generic     bool
	ExtensionID uint16
	EvType      uint16
}

// EventNumberFunc is the external collaborator (spec §6.2) that maps an
// event class to its wire event number. The engine never builds a
// connection or an extension table itself; it only calls the function
// it was given.
type EventNumberFunc func(conn any, class string) (EventNumber, error)

// Marshal produces the wire encoding of s, applying whatever preamble
// and postamble spec §4.C's "Specialized struct kinds" prescribe for
// s.Descriptor().Class, then validates against a declared size if one
// is present (invariant 2).
//
// conn and resolve are only consulted for ClassEvent/ClassGenericEvent
// structs that need an event number; pass nil, nil for every other
// class.
func Marshal(s *Struct, conn any, resolve EventNumberFunc) ([]byte, error) {
	switch s.desc.Class {
	case ClassUnion:
		return marshalUnion(s, nil, false)
	case ClassRequest:
		out := []byte{s.desc.Opcode}
		out, err := s.marshalFields(out, nil, true)
		if err != nil {
			return nil, err
		}
		return checkDeclaredSize(s, nil, out)
	case ClassReply:
		out := []byte{ReplyMarker}
		out, err := s.marshalFields(out, nil, false)
		if err != nil {
			return nil, err
		}
		return checkDeclaredSize(s, nil, out)
	case ClassError:
		out, err := marshalErrorPreamble(s)
		if err != nil {
			return nil, err
		}
		out, err = s.marshalFields(out, nil, false)
		if err != nil {
			return nil, err
		}
		return checkDeclaredSize(s, nil, out)
	case ClassEvent, ClassGenericEvent:
		out, err := marshalEventPreamble(s, conn, resolve)
		if err != nil {
			return nil, err
		}
		out, err = s.marshalFields(out, nil, false)
		if err != nil {
			return nil, err
		}
		if len(out) < EventMinimumBytes {
			out = append(out, make([]byte, EventMinimumBytes-len(out))...)
		}
		return checkDeclaredSize(s, nil, out)
	default:
		out, err := s.marshalFields(nil, nil, false)
		if err != nil {
			return nil, err
		}
		return checkDeclaredSize(s, nil, out)
	}
}

func marshalErrorPreamble(s *Struct) ([]byte, error) {
	code, err := errorField(s, "code")
	if err != nil {
		return nil, err
	}
	seq, err := errorFieldOr(s, "sequence", 0)
	if err != nil {
		return nil, err
	}
	out := []byte{ErrorMarker, byte(code)}
	return append(out, encodeSeq(s, seq)...), nil
}

func marshalEventPreamble(s *Struct, conn any, resolve EventNumberFunc) ([]byte, error) {
	var num EventNumber
	if resolve != nil {
		var err error
		num, err = resolve(conn, s.desc.Name)
		if err != nil {
			return nil, fmt.Errorf("xelb: event %q: resolving event number: %w", s.desc.Name, err)
		}
	} else if code, ok := s.Get("_code"); ok {
		c, err := asUint64(code)
		if err != nil {
			return nil, err
		}
		num.Code = uint8(c)
	}

	seq, err := errorFieldOr(s, "sequence", 0)
	if err != nil {
		return nil, err
	}

	if s.desc.Class == ClassGenericEvent {
		s.Set("extension", uint64(num.ExtensionID))
		s.Set("evtype", uint64(num.EvType))
		out := []byte{GenericEventCode, 0}
		return append(out, encodeSeq(s, seq)...), nil
	}

	out := []byte{num.Code, 0}
	return append(out, encodeSeq(s, seq)...), nil
}

func errorField(s *Struct, name string) (uint64, error) {
	v, ok := s.Get(name)
	if !ok {
		return 0, fmt.Errorf("xelb: %w: %q", ErrMissingField, name)
	}
	return asUint64(v)
}

func errorFieldOr(s *Struct, name string, def uint64) (uint64, error) {
	v, ok := s.Get(name)
	if !ok {
		return def, nil
	}
	return asUint64(v)
}

func encodeSeq(s *Struct, seq uint64) []byte {
	return wire.PackUint(seq, 2, s.order)
}

// checkDeclaredSize validates invariant 2: if s has a declared size, the
// final marshalled length must equal it exactly.
func checkDeclaredSize(s *Struct, parent *Struct, out []byte) ([]byte, error) {
	if s.desc.DeclaredSize == nil {
		return out, nil
	}
	want, err := evalSize(s.desc.DeclaredSize, s, parent)
	if err != nil {
		return nil, err
	}
	if int64(len(out)) != want {
		return nil, fmt.Errorf("xelb: %s: marshalled %d bytes, declared size is %d: %w", s.desc.Name, len(out), want, ErrSizeMismatch)
	}
	return out, nil
}

// Unmarshal decodes b into s, applying the class-specific preamble and,
// on success, the declared-size trailing-byte tolerance from spec §4.C's
// unmarshal algorithm step 3. An event also consumes the zero padding
// that Marshal adds up to EventMinimumBytes, when b holds that many
// bytes. parent is the enclosing struct for
// paramref resolution; total is the length of the outermost message (0
// meaning "b is the whole message").
func Unmarshal(s *Struct, b []byte, parent *Struct, total int) (int, error) {
	if total == 0 {
		total = len(b)
	}
	if s.desc.Class == ClassUnion {
		return unmarshalUnion(s, b, parent, false)
	}

	p, preErr := unmarshalPreamble(s, b)
	if preErr != nil {
		return 0, preErr
	}
	isRequest := s.desc.Class == ClassRequest
	// total is passed through UNCHANGED: it is the constant length of
	// the outermost message, and unmarshalFields recovers the absolute
	// wire offset (preamble bytes included) as total-len(b) at every
	// level of recursion — see unmarshal.go.
	n, err := s.unmarshalFields(b[p:], parent, total, isRequest)
	if err != nil {
		return 0, err
	}
	p += n

	if s.desc.DeclaredSize != nil {
		want, err := evalSize(s.desc.DeclaredSize, s, parent)
		if err != nil {
			return 0, err
		}
		if want < int64(p) {
			return 0, fmt.Errorf("xelb: %s: declared size %d smaller than parsed length %d: %w", s.desc.Name, want, p, ErrDeclaredSizeTooSmall)
		}
		if want > int64(len(b)) {
			return 0, fmt.Errorf("xelb: %s: declared size %d exceeds input length %d: %w", s.desc.Name, want, len(b), ErrInputTooShort)
		}
		p = int(want)
	}
	if (s.desc.Class == ClassEvent || s.desc.Class == ClassGenericEvent) && p < EventMinimumBytes && len(b) >= EventMinimumBytes {
		p = EventMinimumBytes
	}
	return p, nil
}

// unmarshalPreamble consumes the class-specific fixed bytes (opcode,
// reply/error marker, event code, sequence number, ...) and returns how
// many bytes were consumed.
func unmarshalPreamble(s *Struct, b []byte) (int, error) {
	switch s.desc.Class {
	case ClassRequest:
		if len(b) < 1 {
			return 0, fmt.Errorf("xelb: request %s: %w", s.desc.Name, ErrInputTooShort)
		}
		s.Set("_opcode", uint64(b[0]))
		return 1, nil
	case ClassReply:
		if len(b) < 1 {
			return 0, fmt.Errorf("xelb: reply %s: %w", s.desc.Name, ErrInputTooShort)
		}
		return 1, nil
	case ClassError:
		if len(b) < 4 {
			return 0, fmt.Errorf("xelb: error %s: %w", s.desc.Name, ErrInputTooShort)
		}
		s.Set("code", uint64(b[1]))
		s.Set("sequence", wire.UnpackUint(b[2:4], s.order))
		return 4, nil
	case ClassEvent:
		if len(b) < 4 {
			return 0, fmt.Errorf("xelb: event %s: %w", s.desc.Name, ErrInputTooShort)
		}
		s.Set("_code", uint64(b[0]))
		s.Set("sequence", wire.UnpackUint(b[2:4], s.order))
		return 4, nil
	case ClassGenericEvent:
		if len(b) < 4 {
			return 0, fmt.Errorf("xelb: generic event %s: %w", s.desc.Name, ErrInputTooShort)
		}
		s.Set("sequence", wire.UnpackUint(b[2:4], s.order))
		return 4, nil
	default:
		return 0, nil
	}
}

// marshalUnion implements spec §4.C's union marshal algorithm: marshal
// the first bound slot producing the longest prefix that still fits
// within the declared size, then zero-pad to size.
func marshalUnion(s *Struct, parent *Struct, isRequest bool) ([]byte, error) {
	if s.desc.DeclaredSize == nil {
		return nil, fmt.Errorf("xelb: union %s has no declared size: %w", s.desc.Name, ErrBadSizeExpression)
	}
	size, err := evalSize(s.desc.DeclaredSize, s, parent)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		name string
		enc  []byte
	}
	var fitting []candidate
	var overflowing []candidate
	for i := range s.desc.Fields {
		f := &s.desc.Fields[i]
		if _, ok := s.Get(f.Name); !ok {
			continue // unbound slot, not an error for unions
		}
		enc, err := s.marshalOneField(nil, f, parent, isRequest)
		if err != nil {
			return nil, err
		}
		if int64(len(enc)) <= size {
			fitting = append(fitting, candidate{f.Name, enc})
		} else {
			overflowing = append(overflowing, candidate{f.Name, enc})
		}
	}

	var best []byte
	for _, c := range fitting {
		if len(c.enc) > len(best) {
			best = c.enc
		}
	}
	if best == nil && len(overflowing) > 0 {
		c := overflowing[0]
		return nil, fmt.Errorf("xelb: union %s: member %q produced %d bytes, declared size is %d: %w", s.desc.Name, c.name, len(c.enc), size, ErrUnionOverflow)
	}

	out := make([]byte, size)
	copy(out, best)
	return out, nil
}

// unmarshalUnion implements spec §4.C's union unmarshal algorithm:
// decode the same size bytes under every slot's type.
func unmarshalUnion(s *Struct, b []byte, parent *Struct, isRequest bool) (int, error) {
	if s.desc.DeclaredSize == nil {
		return 0, fmt.Errorf("xelb: union %s has no declared size: %w", s.desc.Name, ErrBadSizeExpression)
	}
	size, err := evalSize(s.desc.DeclaredSize, s, parent)
	if err != nil {
		return 0, err
	}
	if int64(len(b)) < size {
		return 0, fmt.Errorf("xelb: union %s: %w", s.desc.Name, ErrInputTooShort)
	}
	chunk := b[:size]
	for i := range s.desc.Fields {
		f := &s.desc.Fields[i]
		if _, err := s.unmarshalOneField(chunk, f, parent, int(size), isRequest); err != nil {
			return 0, fmt.Errorf("xelb: union %s.%s: %w", s.desc.Name, f.Name, err)
		}
	}
	return int(size), nil
}
