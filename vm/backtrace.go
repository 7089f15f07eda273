package vm

import "schemevm/types"

// Backtrace implements %vm-backtrace (SPEC_FULL.md §4): walk the
// activation-record chain from the current frame outward, returning a
// list of (proc . call-site-info) pairs.
//
// Grounded on vm.c's vm_bt: that primitive conses each frame onto the
// front of an accumulator while walking innermost to outermost (so the
// accumulator ends up outermost-first) and then calls STk_dreverse to
// flip it back to innermost-first. A Go slice built with append walks
// the identical innermost-to-outermost order but lands the elements in
// encounter order directly — append already produces the innermost-
// first, outermost-last list vm.c needs the extra reverse pass for.
func (vm *VM) Backtrace() types.Value {
	var frames []types.Value
	for fp := vm.fp; fp >= 0; fp = vm.records[fp].SavedFP {
		rec := vm.records[fp]
		if rec.Callee == nil {
			break
		}
		var info types.Value = types.TheNil
		if rec.CallSite != nil {
			info = types.NewPair(types.NewString(rec.CallSite.File), types.SmallInt(rec.CallSite.Line))
		}
		frames = append(frames, types.NewPair(rec.Callee, info))
	}
	return types.SliceToList(frames)
}

// BacktracePrimitive builds %vm-backtrace as a registry-ready primitive.
func BacktracePrimitive(vm *VM) *types.Primitive {
	return &types.Primitive{
		Name: "%vm-backtrace", MinArgs: 0, MaxArgs: 0,
		Fn: func(args []types.Value) (types.Value, error) {
			return vm.Backtrace(), nil
		},
	}
}
