package xelb

import "fmt"

// Expr is a deferred, total function of (self, parent) to an integer,
// used for list sizes, pad lengths, pad-align corrections, switch
// discriminants, and declared sizes. The closed set of implementations
// below is the entire language: there is no general expression
// evaluator, no side effects, and no access to anything but the two
// structs passed in (spec §4.D's "restricted environment").
type Expr interface {
	eval(self, parent *Struct) (int64, error)
}

// Lit is a literal integer constant.
type Lit int64

func (l Lit) eval(self, parent *Struct) (int64, error) { return int64(l), nil }

// FieldRef ("fieldref") resolves to the value of a named slot in the
// current struct.
type FieldRef string

func (f FieldRef) eval(self, parent *Struct) (int64, error) {
	if self == nil {
		return 0, fmt.Errorf("xelb: fieldref %q: no current struct: %w", string(f), ErrBadSizeExpression)
	}
	v, ok := self.Get(string(f))
	if !ok {
		return 0, fmt.Errorf("xelb: fieldref %q: %w", string(f), ErrMissingField)
	}
	return asInt64(v)
}

// ParamRef ("paramref") resolves to the value of a named slot in the
// enclosing parent struct.
type ParamRef string

func (p ParamRef) eval(self, parent *Struct) (int64, error) {
	if parent == nil {
		return 0, fmt.Errorf("xelb: paramref %q: no enclosing parent struct: %w", string(p), ErrBadSizeExpression)
	}
	v, ok := parent.Get(string(p))
	if !ok {
		return 0, fmt.Errorf("xelb: paramref %q: %w", string(p), ErrMissingField)
	}
	return asInt64(v)
}

// BinOp composes two sub-expressions with an arithmetic or bitwise
// operator: "+ - * / & | ^ << >>".
type BinOp struct {
	Op   string
	L, R Expr
}

func (b BinOp) eval(self, parent *Struct) (int64, error) {
	l, err := b.L.eval(self, parent)
	if err != nil {
		return 0, err
	}
	r, err := b.R.eval(self, parent)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("xelb: division by zero: %w", ErrBadSizeExpression)
		}
		return l / r, nil
	case "&":
		return l & r, nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	case "<<":
		return l << uint(r), nil
	case ">>":
		return l >> uint(r), nil
	default:
		return 0, fmt.Errorf("xelb: unknown operator %q: %w", b.Op, ErrBadSizeExpression)
	}
}

// evalSize evaluates e and validates the result is a non-negative
// integer, as spec §4.D requires of every size-bearing expression.
func evalSize(e Expr, self, parent *Struct) (int64, error) {
	if e == nil {
		return 0, nil
	}
	v, err := e.eval(self, parent)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("xelb: size expression evaluated to %d: %w", v, ErrBadSizeExpression)
	}
	return v, nil
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case uint64:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("xelb: value %v (%T) is not an integer: %w", v, v, ErrBadSizeExpression)
	}
}

// Condition is a switch-case test against an evaluated discriminant. Its
// three forms mirror spec §4.C's switch-case grammar exactly: a mask
// test, a bitwise-OR-of-masks test, and a value-set membership test.
type Condition interface {
	match(discriminant int64) bool
}

// Mask matches when (discriminant & m) != 0.
type Mask int64

func (m Mask) match(discriminant int64) bool { return discriminant&int64(m) != 0 }

// BitOr matches when (discriminant & (m1|m2|...)) != 0.
type BitOr []int64

func (b BitOr) match(discriminant int64) bool {
	var combined int64
	for _, m := range b {
		combined |= m
	}
	return discriminant&combined != 0
}

// ValueSet matches when discriminant is exactly equal to one of its
// members.
type ValueSet []int64

func (vs ValueSet) match(discriminant int64) bool {
	for _, v := range vs {
		if v == discriminant {
			return true
		}
	}
	return false
}
