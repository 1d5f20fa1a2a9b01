// Package xelb is the generic, schema-driven marshaller/unmarshaller for
// the X11 wire protocol and its extensions. It interprets declarative
// per-message Descriptors (built by hand here, or by an XML code
// generator in a full binding) instead of hand-written codecs.
package xelb

import "fmt"

// Kind is the closed set of field type tags a Descriptor can declare.
type Kind int

const (
	KindU1 Kind = iota
	KindI1
	KindU2
	KindI2
	KindU4
	KindI4
	KindU8
	KindF32
	KindF64
	KindVoid
	KindChar // same 1-byte wire representation as KindU1, but a list of
	// KindChar decodes to a Go string (ISO-Latin-1), not a []byte.
	KindPad
	KindPadAlign
	KindList
	KindSwitch
	KindIgnore
	KindStruct // nested struct, Field.Nested holds the child Descriptor
)

func (k Kind) String() string {
	switch k {
	case KindU1:
		return "u1"
	case KindI1:
		return "i1"
	case KindU2:
		return "u2"
	case KindI2:
		return "i2"
	case KindU4:
		return "u4"
	case KindI4:
		return "i4"
	case KindU8:
		return "u8"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindVoid:
		return "void"
	case KindChar:
		return "char"
	case KindPad:
		return "pad"
	case KindPadAlign:
		return "pad-align"
	case KindList:
		return "list"
	case KindSwitch:
		return "switch"
	case KindIgnore:
		return "ignore"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// width reports the wire width in bytes of a fixed-width scalar Kind, or
// 0 if k is not a fixed-width scalar.
func (k Kind) width() int {
	switch k {
	case KindU1, KindI1, KindVoid, KindChar:
		return 1
	case KindU2, KindI2:
		return 2
	case KindU4, KindI4, KindF32:
		return 4
	case KindU8, KindF64:
		return 8
	default:
		return 0
	}
}

func (k Kind) signed() bool {
	return k == KindI1 || k == KindI2 || k == KindI4
}

// aliasTable resolves schema-level type-tag aliases (char, BYTE, BOOL,
// CARD8, float, fd, ...) to the concrete Kind the engine dispatches on.
// Aliases are chased transitively so a chain of aliases-of-aliases still
// resolves to a base Kind. The built-in aliases are the map literal
// below; schema packages may register more with RegisterAlias.
var aliasTable = map[string]Kind{
	"char":    KindChar,
	"BYTE":    KindU1,
	"BOOL":    KindU1,
	"INT8":    KindI1,
	"INT16":   KindI2,
	"INT32":   KindI4,
	"CARD8":   KindU1,
	"CARD16":  KindU2,
	"CARD32":  KindU4,
	"CARD64":  KindU8,
	"float":   KindF32,
	"double":  KindF64,
	"fd":      KindI4,
}

// RegisterAlias adds a schema-level type-name alias resolving to target.
// target may itself be a previously registered alias name; the chain is
// resolved immediately so later lookups are O(1).
func RegisterAlias(name, target string) {
	if k, ok := aliasTable[target]; ok {
		aliasTable[name] = k
		return
	}
	panic(fmt.Sprintf("xelb: RegisterAlias(%q, %q): unknown target alias", name, target))
}

// ResolveAlias returns the concrete Kind a schema type name resolves to.
func ResolveAlias(name string) (Kind, bool) {
	k, ok := aliasTable[name]
	return k, ok
}

// Field is one entry in a Descriptor's ordered field list. Order is
// significant: the wire layout is exactly the declaration order. Field
// names must be unique within a Descriptor.
type Field struct {
	Name string
	Type Kind

	// Pad: fixed zero padding, length literal or deferred.
	PadLen Expr

	// PadAlign: align the running offset to a multiple of Align bytes,
	// optionally correcting the offset by subtracting OffsetCorrection
	// first (nil means no correction).
	Align            int
	OffsetCorrection Expr

	// List: element kind (ElemKind) or, when the elements are nested
	// structs, ElemStruct; Size is the element-count expression.
	ElemKind   Kind
	ElemStruct *Descriptor
	Size       Expr

	// Switch: discriminant expression, the canonical declaration order
	// of all possible member fields, and the cases selecting among them.
	Discriminant Expr
	Members      []Field
	Cases        []SwitchCase

	// Nested struct field (KindStruct).
	Nested *Descriptor
}

// SwitchCase is one (condition, field-names) alternative of a switch
// field. FieldNames is informational/documentation of which members this
// case was authored to enable; actual emission order always follows the
// switch's Members declaration order (Testable property 7), filtered to
// the union of all matching cases' field names.
type SwitchCase struct {
	Cond       Condition
	FieldNames []string
}

// --- field constructors -----------------------------------------------
//
// These read the way a generated schema file would: one call per field,
// in wire order.

func u(name string, k Kind) Field { return Field{Name: name, Type: k} }

func U1(name string) Field { return u(name, KindU1) }
func I1(name string) Field { return u(name, KindI1) }
func U2(name string) Field { return u(name, KindU2) }
func I2(name string) Field { return u(name, KindI2) }
func U4(name string) Field { return u(name, KindU4) }
func I4(name string) Field { return u(name, KindI4) }
func U8(name string) Field { return u(name, KindU8) }
func F32(name string) Field { return u(name, KindF32) }
func F64(name string) Field { return u(name, KindF64) }
func Void(name string) Field { return u(name, KindVoid) }

// Typed constructs a field from a schema-level type name, chasing any
// registered alias (including nested struct names registered via
// RegisterStruct).
func Typed(name, typeName string) Field {
	if k, ok := ResolveAlias(typeName); ok {
		return u(name, k)
	}
	if d, ok := structRegistry[typeName]; ok {
		return Nested(name, d)
	}
	panic(fmt.Sprintf("xelb: Typed(%q, %q): unknown type name", name, typeName))
}

// Pad declares n bytes of fixed zero padding.
func Pad(n int) Field { return Field{Type: KindPad, PadLen: Lit(int64(n))} }

// PadExpr declares zero padding whose length is computed at
// marshal/unmarshal time.
func PadExpr(length Expr) Field { return Field{Type: KindPad, PadLen: length} }

// PadAlign aligns the running offset to a multiple of align bytes.
func PadAlign(align int) Field { return Field{Type: KindPadAlign, Align: align} }

// PadAlignOffset aligns the running offset to a multiple of align bytes
// after first subtracting correction from the observed offset.
func PadAlignOffset(align int, correction Expr) Field {
	return Field{Type: KindPadAlign, Align: align, OffsetCorrection: correction}
}

// List declares a variable-length homogeneous sequence of scalar
// elements of kind elem, whose length is size.
func List(name string, elem Kind, size Expr) Field {
	return Field{Name: name, Type: KindList, ElemKind: elem, Size: size}
}

// ListStruct declares a variable-length sequence of nested elemDesc
// structs, whose length is size.
func ListStruct(name string, elemDesc *Descriptor, size Expr) Field {
	return Field{Name: name, Type: KindList, ElemKind: KindStruct, ElemStruct: elemDesc, Size: size}
}

// Nested declares a single nested struct field.
func Nested(name string, desc *Descriptor) Field {
	return Field{Name: name, Type: KindStruct, Nested: desc}
}

// Ignore declares a slot present in the object model but absent from the
// wire (a declared-size stash, a byte-order flag, decoded list contents
// kept for later re-parsing, ...).
func Ignore(name string) Field { return Field{Name: name, Type: KindIgnore} }

// Switch declares a discriminated block of optional fields. It must be
// the last field of its Descriptor's Fields list (invariant 4).
func Switch(name string, discriminant Expr, members []Field, cases []SwitchCase) Field {
	return Field{
		Name:         name,
		Type:         KindSwitch,
		Discriminant: discriminant,
		Members:      members,
		Cases:        cases,
	}
}
