package vm

import "schemevm/types"

// ValuesPrimitives builds "values" and "call-with-values" (§4.7),
// grounded on vm.c's values/call_with_values pair. Both need vm's
// vals[]/valc registers directly, so — like the continuation primitives
// — they're built bound to a *VM rather than living as plain PrimFuncs
// in builtins/core.go.
func ValuesPrimitives(vm *VM) []*types.Primitive {
	return []*types.Primitive{
		{
			Name: "values", MinArgs: 0, MaxArgs: -1,
			Fn: func(args []types.Value) (types.Value, error) {
				vm.valc = len(args)
				if len(args) == 0 {
					return types.TheVoid, nil
				}
				if len(args) <= MaxVals {
					copy(vm.vals[:len(args)], args)
				} else {
					// Overflow: pack every value (including the first) into
					// a vector stashed in vals[0]; call-with-values below
					// knows to unpack it when valc > MaxVals.
					vm.vals[0] = types.NewVector(append([]types.Value(nil), args...))
				}
				return args[0], nil
			},
		},
		{
			Name: "call-with-values", MinArgs: 2, MaxArgs: 2,
			Fn: func(args []types.Value) (types.Value, error) {
				producer, consumer := args[0], args[1]
				if !isCallable(producer) {
					return nil, newCondition(types.CondBadCallable, "call-with-values: bad producer")
				}
				if !isCallable(consumer) {
					return nil, newCondition(types.CondBadCallable, "call-with-values: bad consumer")
				}
				result, err := vm.Apply(producer, nil)
				if err != nil {
					return nil, err
				}
				var consumerArgs []types.Value
				switch {
				case vm.valc == 0:
					consumerArgs = nil
				case vm.valc == 1:
					consumerArgs = []types.Value{result}
				case vm.valc <= MaxVals:
					consumerArgs = append([]types.Value(nil), vm.vals[:vm.valc]...)
				default:
					consumerArgs = append([]types.Value(nil), vm.vals[0].(*types.Vector).Slots...)
				}
				return vm.Apply(consumer, consumerArgs)
			},
		},
	}
}
