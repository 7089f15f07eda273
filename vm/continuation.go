package vm

import "schemevm/types"

// continuationState is the VM-private payload boxed into
// types.Continuation.State (declared `any` there so the types package
// never depends on vm). Every field is a fresh copy, not a slice alias:
// vm.stack/records/handlers/letStack are all mutated in place afterward
// by append and re-slicing, so sharing a backing array would let later
// execution silently corrupt an already-captured continuation — the Go
// analogue of vm.c's memcpy(k->stacks, sstart, ssize) copying the raw
// Scheme stack bytes rather than aliasing them.
type continuationState struct {
	stack      []types.Value
	records    []ActivationRecord
	letStack   []bool
	handlers   []Handler
	pc         int
	prog       *Program
	env        *types.Frame
	fp         int
	topHandler int
	ownerGen   int64
}

// captureContinuation implements %make-continuation (§4.6): snapshot
// every register and stack the VM has. Grounded on vm.c's
// make_continuation, minus the C-stack half of its job — Go gives us no
// native stack to copy, and doesn't need one: every Scheme-level frame
// already lives in vm.records/types.Frame on the Go heap.
//
// This runs from inside %make-continuation's own Fn, while vm.fp still
// points at the activation record PREPARE_CALL pushed for this very
// call — the call hasn't returned yet, so call.go's returnFromPrimitive
// (which pops that record and restores vm.fp to its SavedFP) hasn't run.
// A resumed continuation never passes back through that normal-return
// path (it re-enters via runLoop's recover, see handlers.go), so the
// snapshot has to already look like the call returned: drop the
// in-flight record and capture the outer fp, exactly what
// returnFromPrimitive would have left behind.
func (vm *VM) captureContinuation() *types.Continuation {
	outerFP := vm.records[vm.fp].SavedFP
	st := &continuationState{
		stack:      append([]types.Value(nil), vm.stack...),
		records:    append([]ActivationRecord(nil), vm.records[:vm.fp]...),
		letStack:   append([]bool(nil), vm.letStack...),
		handlers:   append([]Handler(nil), vm.handlers...),
		pc:         vm.pc,
		prog:       vm.prog,
		env:        vm.env,
		fp:         outerFP,
		topHandler: vm.topHandler,
		ownerGen:   vm.nextLoopGen - 1,
	}
	vm.tracer.ContinuationCapture(true)
	return &types.Continuation{State: st, Fresh: true}
}

// restoreContinuation implements %restore-continuation: reinstate the
// captured stacks/registers as the result of value, then transfer
// control back to the runLoop active at capture time via the same
// generation-tagged panic handler resume uses (handlers.go). A
// continuation whose capturing runLoop has already returned off the Go
// call stack — this VM's analogue of a longjmp target whose native
// stack region is gone — is reported as a bad continuation rather than
// corrupting unrelated state.
func (vm *VM) restoreContinuation(cont *types.Continuation, value types.Value) error {
	st, ok := cont.State.(*continuationState)
	if !ok {
		return newCondition(types.CondBadContinuation, "bad continuation")
	}
	if !vm.liveGens[st.ownerGen] {
		return newCondition(types.CondBadContinuation, "continuation's dynamic extent has already returned")
	}

	vm.stack = append([]types.Value(nil), st.stack...)
	vm.records = append([]ActivationRecord(nil), st.records...)
	vm.letStack = append([]bool(nil), st.letStack...)
	vm.handlers = append([]Handler(nil), st.handlers...)
	vm.pc = st.pc
	vm.prog = st.prog
	vm.env = st.env
	vm.fp = st.fp
	vm.topHandler = st.topHandler

	cont.MarkInvoked()
	vm.setVal1(value)
	vm.tracer.ContinuationRestore()

	panic(&resumeSignal{ownerGen: st.ownerGen})
}

// ContinuationPrimitives builds the four primitives §4.6 names
// (%make-continuation, %restore-continuation, %continuation?,
// %fresh-continuation?), bound to this vm where they need register/
// stack access. builtins/registry.go defines them into the bootstrap
// module alongside the VM-agnostic primitives in builtins/core.go.
func ContinuationPrimitives(vm *VM) []*types.Primitive {
	return []*types.Primitive{
		{
			Name: "%make-continuation", MinArgs: 0, MaxArgs: 0,
			Fn: func(args []types.Value) (types.Value, error) {
				return vm.captureContinuation(), nil
			},
		},
		{
			Name: "%restore-continuation", MinArgs: 2, MaxArgs: 2,
			Fn: func(args []types.Value) (types.Value, error) {
				cont, ok := args[0].(*types.Continuation)
				if !ok {
					return nil, newCondition(types.CondBadContinuation, "restore-continuation: not a continuation")
				}
				return nil, vm.restoreContinuation(cont, args[1])
			},
		},
		{
			Name: "%continuation?", MinArgs: 1, MaxArgs: 1,
			Fn: func(args []types.Value) (types.Value, error) {
				_, ok := args[0].(*types.Continuation)
				return types.FromBool(ok), nil
			},
		},
		{
			Name: "%fresh-continuation?", MinArgs: 1, MaxArgs: 1,
			Fn: func(args []types.Value) (types.Value, error) {
				c, ok := args[0].(*types.Continuation)
				return types.FromBool(ok && c.Fresh), nil
			},
		},
	}
}
