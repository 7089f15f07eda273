// generic.go supplies the one constructor §4.2's generic-instance callee
// tag needs a host binding for: nothing in this VM builds a
// *types.GenericFunction on its own (FUNCALL only ever dispatches on one
// it's handed). Grounded on vm/call.go's GenericFunction/NextMethod
// dispatch arms and on spec.md §4.2's "compute applicable methods for
// (callee, args)" wording: this VM has no runtime type-tag system to
// dispatch on beyond a method's declared arity, so arityApplicable
// stands in for the type-based specificity ordering a full object
// system would compute, with method declaration order breaking ties.
package builtins

import "schemevm/types"

func genericPrimitives() []*types.Primitive {
	return []*types.Primitive{
		{
			// (%make-generic name (method ...) [no-next-method]) -> generic
			Name: "%make-generic", MinArgs: 2, MaxArgs: 3,
			Fn: func(args []types.Value) (types.Value, error) {
				name, ok := args[0].(types.Symbol)
				if !ok {
					return nil, wrongType("%make-generic", args[0])
				}
				methodVals, ok := types.ListToSlice(args[1])
				if !ok {
					return nil, wrongType("%make-generic", args[1])
				}
				methods := make([]*types.Closure, len(methodVals))
				for i, m := range methodVals {
					c, ok := m.(*types.Closure)
					if !ok {
						return nil, wrongType("%make-generic", m)
					}
					methods[i] = c
				}
				var noNext *types.Closure
				if len(args) == 3 {
					c, ok := args[2].(*types.Closure)
					if !ok {
						return nil, wrongType("%make-generic", args[2])
					}
					noNext = c
				}
				return &types.GenericFunction{
					Name:              name.Name(),
					Methods:           methods,
					ComputeApplicable: arityApplicable,
					NoNextMethod:      noNext,
				}, nil
			},
		},
	}
}

// arityApplicable selects, in declaration order, every method whose
// arity accepts len(args) arguments.
func arityApplicable(gf *types.GenericFunction, args []types.Value) []*types.Closure {
	var applicable []*types.Closure
	for _, m := range gf.Methods {
		if m.Variadic() {
			if len(args) >= m.MinArgs() {
				applicable = append(applicable, m)
			}
		} else if len(args) == m.Arity {
			applicable = append(applicable, m)
		}
	}
	return applicable
}
