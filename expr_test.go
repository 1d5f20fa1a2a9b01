package xelb

import "testing"

func TestFieldRefAndParamRef(t *testing.T) {
	parent := New(&Descriptor{Name: "Parent"})
	parent.Set("count", uint64(3))

	self := New(&Descriptor{Name: "Self"})
	self.Set("len", uint64(7))

	v, err := FieldRef("len").eval(self, parent)
	if err != nil || v != 7 {
		t.Fatalf("FieldRef: v=%d err=%v, want 7, nil", v, err)
	}
	v, err = ParamRef("count").eval(self, parent)
	if err != nil || v != 3 {
		t.Fatalf("ParamRef: v=%d err=%v, want 3, nil", v, err)
	}
}

func TestBinOpArithmeticAndBitwise(t *testing.T) {
	cases := []struct {
		op   string
		l, r int64
		want int64
	}{
		{"+", 2, 3, 5},
		{"-", 5, 3, 2},
		{"*", 4, 3, 12},
		{"/", 9, 3, 3},
		{"&", 0b110, 0b011, 0b010},
		{"|", 0b100, 0b010, 0b110},
		{"^", 0b110, 0b011, 0b101},
		{"<<", 1, 4, 16},
		{">>", 16, 4, 1},
	}
	for _, c := range cases {
		v, err := BinOp{Op: c.op, L: Lit(c.l), R: Lit(c.r)}.eval(nil, nil)
		if err != nil {
			t.Fatalf("op %q: %v", c.op, err)
		}
		if v != c.want {
			t.Errorf("%d %s %d = %d, want %d", c.l, c.op, c.r, v, c.want)
		}
	}
}

func TestBinOpDivisionByZero(t *testing.T) {
	_, err := BinOp{Op: "/", L: Lit(1), R: Lit(0)}.eval(nil, nil)
	if err == nil {
		t.Fatal("expected division-by-zero error, got nil")
	}
}

func TestEvalSizeRejectsNegative(t *testing.T) {
	_, err := evalSize(Lit(-1), nil, nil)
	if err == nil {
		t.Fatal("expected negative-size error, got nil")
	}
}

func TestEvalSizeNilIsZero(t *testing.T) {
	v, err := evalSize(nil, nil, nil)
	if err != nil || v != 0 {
		t.Fatalf("evalSize(nil) = %d, %v; want 0, nil", v, err)
	}
}

func TestConditions(t *testing.T) {
	if !Mask(0b010).match(0b110) {
		t.Error("Mask(0b010) should match 0b110")
	}
	if Mask(0b001).match(0b110) {
		t.Error("Mask(0b001) should not match 0b110")
	}
	if !(BitOr{0b001, 0b100}).match(0b100) {
		t.Error("BitOr{1,4} should match 4")
	}
	if !(ValueSet{1, 2, 3}).match(2) {
		t.Error("ValueSet{1,2,3} should match 2")
	}
	if (ValueSet{1, 2, 3}).match(4) {
		t.Error("ValueSet{1,2,3} should not match 4")
	}
}
