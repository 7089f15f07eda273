package vm

import "schemevm/types"

// resumeSignal is panicked by Raise to transfer control from the Go
// frame that is raising back to the exact runLoop invocation that
// installed the handler now running, unwinding any native call frames
// (Apply) in between without disturbing ones that aren't the target.
// ownerGen identifies that runLoop invocation; see vm.go's runLoop.
type resumeSignal struct {
	ownerGen int64
}

func isCallable(v types.Value) bool {
	switch v.(type) {
	case *types.Closure, *types.Primitive, *types.Parameter, *types.GenericFunction, *types.NextMethod:
		return true
	default:
		return false
	}
}

// pushHandler implements PUSH_HANDLER (§4.5): install vm.val as the
// handler procedure for the dynamic extent starting now. off is the
// code offset (relative to PUSH_HANDLER's operand word, matching GOTO's
// convention) to resume at once the handler
// returns normally or a raise unwinds to here.
func (vm *VM) pushHandler(off int) error {
	if !isCallable(vm.val) {
		return newCondition(types.CondBadCallable, "PUSH_HANDLER: handler is not a procedure")
	}
	resumePC := vm.pc - 1 + off
	vm.handlers = append(vm.handlers, Handler{
		Proc:     vm.val,
		ResumePC: resumePC,
		Prev:     vm.topHandler,
		SavedState: VMState{
			PC: resumePC, Program: vm.prog, Env: vm.env, FP: vm.fp, TopHandler: vm.topHandler,
		},
		// nextLoopGen - 1 is the generation of whichever runLoop is
		// innermost right now: generations only increase and an outer
		// loop can't be "current" while a nested Apply/runLoop runs.
		OwnerGen: vm.nextLoopGen - 1,
	})
	vm.topHandler = len(vm.handlers) - 1
	vm.setVoid()
	return nil
}

// popHandler implements POP_HANDLER: discard the innermost handler,
// uninstalling it for the rest of its lexical extent.
func (vm *VM) popHandler() error {
	if vm.topHandler < 0 {
		return newCondition(types.CondBadBytecode, "POP_HANDLER without a matching PUSH_HANDLER")
	}
	h := vm.handlers[vm.topHandler]
	vm.handlers = vm.handlers[:vm.topHandler]
	vm.topHandler = h.Prev
	vm.setVoid()
	return nil
}

// RaisePrimitives builds "raise" and "exit" (§7: exit conditions travel
// through the same raising entry point as ordinary errors), bound to
// vm since both need to search and invoke the handler chain directly.
func RaisePrimitives(vm *VM) []*types.Primitive {
	return []*types.Primitive{
		{
			Name: "raise", MinArgs: 1, MaxArgs: 1,
			Fn: func(args []types.Value) (types.Value, error) {
				return nil, vm.Raise(&types.Condition{Kind: types.CondUserRaise, Payload: args[0]})
			},
		},
		{
			Name: "exit", MinArgs: 0, MaxArgs: 1,
			Fn: func(args []types.Value) (types.Value, error) {
				code := types.SmallInt(0)
				if len(args) > 0 {
					if si, ok := args[0].(types.SmallInt); ok {
						code = si
					} else if args[0] == types.False {
						code = 1
					}
				}
				return nil, vm.Raise(&types.Condition{Kind: types.CondExit, Payload: code})
			},
		},
	}
}

// Raise implements the condition-raising half of §4.5: find the
// innermost installed handler, invoke it re-entrantly with cond as its
// sole argument, then resume execution at the point PUSH_HANDLER named,
// whether the handler returned a value or itself escaped via a captured
// continuation (Apply already ran that escape to completion by the time
// it returns here). With no handler installed, the condition becomes an
// ordinary Go error that propagates out of Boot/Apply for the caller to
// report and exit(1) on, per §7.
func (vm *VM) Raise(cond *types.Condition) error {
	if vm.topHandler < 0 {
		return &Condition{Value: cond}
	}
	h := vm.handlers[vm.topHandler]
	vm.handlers = vm.handlers[:vm.topHandler]
	vm.topHandler = h.Prev

	result, err := vm.Apply(h.Proc, []types.Value{cond})
	if err != nil {
		return err
	}

	vm.pc = h.ResumePC
	vm.prog = h.SavedState.Program
	vm.env = h.SavedState.Env
	vm.fp = h.SavedState.FP
	vm.topHandler = h.SavedState.TopHandler
	vm.setVal1(result)

	panic(&resumeSignal{ownerGen: h.OwnerGen})
}
