// Package builtins supplies the primitive procedures FUNCALL dispatches
// to when GLOBAL_REF resolves a symbol to a *types.Primitive (§6's
// arity-class ABI). Grounded on vm/operations.go's type-switch dispatch
// idiom: each primitive inspects its arguments' dynamic Go type with a
// type switch rather than a tag byte, the same shape the teacher uses
// for its MOO arithmetic/comparison operators.
//
// core.go covers the primitives every program needs that IN_* (step.go)
// doesn't already inline as a 2-argument fast path: n-ary arithmetic and
// comparison (the IN_ADD2-style opcodes only ever see exactly two
// operands; + and friends still need a real procedure binding for
// (apply + list), (+ 1 2 3), and higher-order use), plus list, vector,
// string and predicate procedures with no opcode of their own at all.
package builtins

import (
	"schemevm/types"
	"schemevm/vm"
)

func CorePrimitives() []*types.Primitive {
	return append(append(arithmeticPrimitives(), listPrimitives()...), append(vectorPrimitives(), predicatePrimitives()...)...)
}

// wrongType builds a CondBadOperandType error through the same
// *vm.Condition shape step.go's inlined opcodes use, so a builtin's type
// errors are just as catchable by an installed with-handler as a
// VM-raised one (vm.go's runLoop routes every *vm.Condition through
// Raise before surfacing it as a fatal Go error).
func wrongType(name string, v types.Value) error {
	return vm.NewCondition(types.CondBadOperandType, "%s: wrong type argument %s", name, v.String())
}

func asInt(name string, v types.Value) (int64, error) {
	i, ok := v.(types.SmallInt)
	if !ok {
		return 0, wrongType(name, v)
	}
	return int64(i), nil
}

func arithmeticPrimitives() []*types.Primitive {
	return []*types.Primitive{
		{Name: "+", MinArgs: 0, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
			var sum int64
			for _, a := range args {
				n, err := asInt("+", a)
				if err != nil {
					return nil, err
				}
				sum += n
			}
			return types.SmallInt(sum), nil
		}},
		{Name: "-", MinArgs: 1, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
			first, err := asInt("-", args[0])
			if err != nil {
				return nil, err
			}
			if len(args) == 1 {
				return types.SmallInt(-first), nil
			}
			for _, a := range args[1:] {
				n, err := asInt("-", a)
				if err != nil {
					return nil, err
				}
				first -= n
			}
			return types.SmallInt(first), nil
		}},
		{Name: "*", MinArgs: 0, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
			product := int64(1)
			for _, a := range args {
				n, err := asInt("*", a)
				if err != nil {
					return nil, err
				}
				product *= n
			}
			return types.SmallInt(product), nil
		}},
		{Name: "/", MinArgs: 1, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
			first, err := asInt("/", args[0])
			if err != nil {
				return nil, err
			}
			if len(args) == 1 {
				if first == 0 {
					return nil, wrongType("/", args[0])
				}
				return types.SmallInt(1 / first), nil
			}
			for _, a := range args[1:] {
				n, err := asInt("/", a)
				if err != nil {
					return nil, err
				}
				if n == 0 {
					return nil, wrongType("/", a)
				}
				first /= n
			}
			return types.SmallInt(first), nil
		}},
		numCompare("=", func(a, b int64) bool { return a == b }),
		numCompare("<", func(a, b int64) bool { return a < b }),
		numCompare(">", func(a, b int64) bool { return a > b }),
		numCompare("<=", func(a, b int64) bool { return a <= b }),
		numCompare(">=", func(a, b int64) bool { return a >= b }),
		{Name: "zero?", MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
			n, err := asInt("zero?", args[0])
			if err != nil {
				return nil, err
			}
			return types.FromBool(n == 0), nil
		}},
	}
}

// numCompare builds a chained n-ary comparison (= < > <= >=): true iff
// ok holds between every pair of consecutive arguments.
func numCompare(name string, ok func(a, b int64) bool) *types.Primitive {
	return &types.Primitive{Name: name, MinArgs: 1, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
		prev, err := asInt(name, args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			n, err := asInt(name, a)
			if err != nil {
				return nil, err
			}
			if !ok(prev, n) {
				return types.False, nil
			}
			prev = n
		}
		return types.True, nil
	}}
}

func listPrimitives() []*types.Primitive {
	return []*types.Primitive{
		{Name: "cons", MinArgs: 2, MaxArgs: 2, Fn: func(args []types.Value) (types.Value, error) {
			return types.NewPair(args[0], args[1]), nil
		}},
		{Name: "list", MinArgs: 0, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
			return types.SliceToList(args), nil
		}},
		{Name: "length", MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
			s, ok := types.ListToSlice(args[0])
			if !ok {
				return nil, wrongType("length", args[0])
			}
			return types.SmallInt(len(s)), nil
		}},
		{Name: "reverse", MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
			s, ok := types.ListToSlice(args[0])
			if !ok {
				return nil, wrongType("reverse", args[0])
			}
			rev := make([]types.Value, len(s))
			for i, v := range s {
				rev[len(s)-1-i] = v
			}
			return types.SliceToList(rev), nil
		}},
		{Name: "append", MinArgs: 0, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
			if len(args) == 0 {
				return types.TheNil, nil
			}
			var all []types.Value
			for _, l := range args[:len(args)-1] {
				s, ok := types.ListToSlice(l)
				if !ok {
					return nil, wrongType("append", l)
				}
				all = append(all, s...)
			}
			result := args[len(args)-1]
			for i := len(all) - 1; i >= 0; i-- {
				result = types.NewPair(all[i], result)
			}
			return result, nil
		}},
	}
}

func vectorPrimitives() []*types.Primitive {
	return []*types.Primitive{
		{Name: "vector", MinArgs: 0, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
			return types.NewVector(append([]types.Value(nil), args...)), nil
		}},
		{Name: "make-vector", MinArgs: 1, MaxArgs: 2, Fn: func(args []types.Value) (types.Value, error) {
			n, err := asInt("make-vector", args[0])
			if err != nil {
				return nil, err
			}
			var fill types.Value = types.False
			if len(args) == 2 {
				fill = args[1]
			}
			slots := make([]types.Value, n)
			for i := range slots {
				slots[i] = fill
			}
			return types.NewVector(slots), nil
		}},
		{Name: "vector-length", MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
			v, ok := args[0].(*types.Vector)
			if !ok {
				return nil, wrongType("vector-length", args[0])
			}
			return types.SmallInt(len(v.Slots)), nil
		}},
		{Name: "make-string", MinArgs: 1, MaxArgs: 2, Fn: func(args []types.Value) (types.Value, error) {
			n, err := asInt("make-string", args[0])
			if err != nil {
				return nil, err
			}
			fill := ' '
			if len(args) == 2 {
				c, ok := args[1].(types.Char)
				if !ok {
					return nil, wrongType("make-string", args[1])
				}
				fill = rune(c)
			}
			runes := make([]rune, n)
			for i := range runes {
				runes[i] = fill
			}
			return types.NewString(string(runes)), nil
		}},
		{Name: "string-length", MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
			s, ok := args[0].(*types.Str)
			if !ok {
				return nil, wrongType("string-length", args[0])
			}
			return types.SmallInt(len(s.Runes)), nil
		}},
	}
}

func predicatePrimitives() []*types.Primitive {
	pred := func(name string, fn func(types.Value) bool) *types.Primitive {
		return &types.Primitive{Name: name, MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
			return types.FromBool(fn(args[0])), nil
		}}
	}
	return []*types.Primitive{
		pred("pair?", func(v types.Value) bool { _, ok := v.(*types.Pair); return ok }),
		pred("null?", func(v types.Value) bool { _, ok := v.(types.Nil); return ok }),
		pred("symbol?", func(v types.Value) bool { _, ok := v.(types.Symbol); return ok }),
		pred("string?", func(v types.Value) bool { _, ok := v.(*types.Str); return ok }),
		pred("vector?", func(v types.Value) bool { _, ok := v.(*types.Vector); return ok }),
		pred("char?", func(v types.Value) bool { _, ok := v.(types.Char); return ok }),
		pred("boolean?", func(v types.Value) bool { _, ok := v.(types.Bool); return ok }),
		pred("number?", func(v types.Value) bool { _, ok := v.(types.SmallInt); return ok }),
		pred("procedure?", func(v types.Value) bool {
			switch v.(type) {
			case *types.Closure, *types.Primitive, *types.Parameter, *types.GenericFunction, *types.NextMethod:
				return true
			default:
				return false
			}
		}),
		{Name: "not", MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
			return types.FromBool(!args[0].Truthy()), nil
		}},
		{Name: "eq?", MinArgs: 2, MaxArgs: 2, Fn: func(args []types.Value) (types.Value, error) {
			return types.FromBool(types.Eq(args[0], args[1])), nil
		}},
		{Name: "eqv?", MinArgs: 2, MaxArgs: 2, Fn: func(args []types.Value) (types.Value, error) {
			return types.FromBool(types.Eqv(args[0], args[1])), nil
		}},
		{Name: "equal?", MinArgs: 2, MaxArgs: 2, Fn: func(args []types.Value) (types.Value, error) {
			return types.FromBool(args[0].Equal(args[1])), nil
		}},
	}
}

// applyPrimitive builds the "apply" trampoline binding (§4.2's tc_apply
// callee tag): Fn is left nil because FUNCALL's IsApply branch (vm/call.go)
// never calls it — it flattens the argument list and redispatches to the
// target procedure directly, exactly as vm.c's CALL_PRIM case for apply
// jumps back to the top of the FUNCALL switch instead of invoking a body.
func applyPrimitive() *types.Primitive {
	return &types.Primitive{Name: "apply", MinArgs: 2, MaxArgs: -1, IsApply: true}
}
