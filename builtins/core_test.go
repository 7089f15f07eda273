package builtins

import (
	"testing"

	"schemevm/types"
)

func findPrimitive(t *testing.T, name string) *types.Primitive {
	t.Helper()
	for _, p := range CorePrimitives() {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no primitive named %q", name)
	return nil
}

func call(t *testing.T, name string, args ...types.Value) types.Value {
	t.Helper()
	p := findPrimitive(t, name)
	v, err := p.Fn(args)
	if err != nil {
		t.Fatalf("%s%v: %v", name, args, err)
	}
	return v
}

func TestArithmeticIdentities(t *testing.T) {
	if got := call(t, "+"); !got.Equal(types.SmallInt(0)) {
		t.Fatalf("(+) = %v, want 0", got)
	}
	if got := call(t, "*"); !got.Equal(types.SmallInt(1)) {
		t.Fatalf("(*) = %v, want 1", got)
	}
	if got := call(t, "-", types.SmallInt(5)); !got.Equal(types.SmallInt(-5)) {
		t.Fatalf("(- 5) = %v, want -5", got)
	}
	if got := call(t, "+", types.SmallInt(1), types.SmallInt(2), types.SmallInt(3)); !got.Equal(types.SmallInt(6)) {
		t.Fatalf("(+ 1 2 3) = %v, want 6", got)
	}
}

func TestDivisionByZeroRaisesCondition(t *testing.T) {
	p := findPrimitive(t, "/")
	_, err := p.Fn([]types.Value{types.SmallInt(1), types.SmallInt(0)})
	if err == nil {
		t.Fatal("(/ 1 0) should raise a condition")
	}
}

func TestWrongTypeArithmeticRaisesCondition(t *testing.T) {
	p := findPrimitive(t, "+")
	_, err := p.Fn([]types.Value{types.Intern("x")})
	if err == nil {
		t.Fatal("(+ 'x) should raise a bad-operand-type condition")
	}
}

func TestNumCompareChaining(t *testing.T) {
	if got := call(t, "<", types.SmallInt(1), types.SmallInt(2), types.SmallInt(3)); got != types.True {
		t.Fatalf("(< 1 2 3) = %v, want #t", got)
	}
	if got := call(t, "<", types.SmallInt(1), types.SmallInt(3), types.SmallInt(2)); got != types.False {
		t.Fatalf("(< 1 3 2) = %v, want #f", got)
	}
}

func TestListPrimitives(t *testing.T) {
	lst := call(t, "list", types.SmallInt(1), types.SmallInt(2), types.SmallInt(3))
	if got := lst.String(); got != "(1 2 3)" {
		t.Fatalf("(list 1 2 3) = %q", got)
	}
	if got := call(t, "length", lst); !got.Equal(types.SmallInt(3)) {
		t.Fatalf("(length ...) = %v, want 3", got)
	}
	if got := call(t, "reverse", lst).String(); got != "(3 2 1)" {
		t.Fatalf("(reverse ...) = %q, want (3 2 1)", got)
	}
	app := call(t, "append", call(t, "list", types.SmallInt(1)), call(t, "list", types.SmallInt(2)))
	if got := app.String(); got != "(1 2)" {
		t.Fatalf("(append '(1) '(2)) = %q, want (1 2)", got)
	}
}

func TestVectorPrimitives(t *testing.T) {
	v := call(t, "make-vector", types.SmallInt(3), types.SmallInt(9))
	if got := call(t, "vector-length", v); !got.Equal(types.SmallInt(3)) {
		t.Fatalf("vector-length = %v, want 3", got)
	}
	vec, ok := v.(*types.Vector)
	if !ok || len(vec.Slots) != 3 || !vec.Slots[0].Equal(types.SmallInt(9)) {
		t.Fatalf("make-vector did not fill slots: %#v", v)
	}
}

func TestPredicates(t *testing.T) {
	if call(t, "pair?", types.NewPair(types.SmallInt(1), types.TheNil)) != types.True {
		t.Fatal("pair? should be true on a pair")
	}
	if call(t, "null?", types.TheNil) != types.True {
		t.Fatal("null? should be true on the empty list")
	}
	if call(t, "null?", types.SmallInt(1)) != types.False {
		t.Fatal("null? should be false on a non-nil value")
	}
	if call(t, "not", types.False) != types.True {
		t.Fatal("(not #f) should be #t")
	}
}

func TestEqualityFamily(t *testing.T) {
	a := types.NewPair(types.SmallInt(1), types.TheNil)
	b := types.NewPair(types.SmallInt(1), types.TheNil)
	if call(t, "eq?", a, a) != types.True {
		t.Fatal("eq? should hold for identical pointers")
	}
	if call(t, "eq?", a, b) != types.False {
		t.Fatal("eq? should not hold across distinct pair allocations")
	}
	if call(t, "equal?", a, b) != types.True {
		t.Fatal("equal? should hold for structurally equal pairs")
	}
}
