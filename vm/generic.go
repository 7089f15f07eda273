package vm

import "schemevm/types"

// GenericPrimitives builds the one VM-bound binding a generic method
// body needs: (%next-method) retrieves the *types.NextMethod token
// FUNCALL's GenericFunction/NextMethod dispatch arms (call.go) stash
// into vm.r1 right before transferring control to the method body.
func GenericPrimitives(vm *VM) []*types.Primitive {
	return []*types.Primitive{
		{
			Name: "%next-method", MinArgs: 0, MaxArgs: 0,
			Fn: func(args []types.Value) (types.Value, error) {
				if vm.r1 == nil {
					return types.False, nil
				}
				return vm.r1, nil
			},
		},
	}
}
