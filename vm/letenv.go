package vm

import "schemevm/types"

// enterLet implements ENTER_LET/ENTER_LET_STAR/ENTER_TAIL_LET/
// ENTER_TAIL_LET_STAR (§4.4). Reworked from vm.c's shared-stack
// PUSH_ENV/PREP_CALL arithmetic into an explicit letStack of booleans
// recording, per nesting level, whether an activation record was pushed
// for it — Go's heap-allocated *types.Frame gives no single contiguous
// region to do the original's raw pointer bookkeeping against, so
// LEAVE_LET below consults this stack instead of re-deriving the answer
// from pointer arithmetic.
func (vm *VM) enterLet(n int, star, tail bool) error {
	argv, err := vm.PopN(n)
	if err != nil {
		return err
	}
	owner := vm.val
	pushedRecord := false

	switch {
	case tail:
		if vm.fp < 0 {
			return newCondition(types.CondBadBytecode, "ENTER_TAIL_LET outside a call")
		}
		outer := vm.records[vm.fp].SavedFP
		vm.records = vm.records[:outer+1]
		vm.fp = outer
	case star:
		vm.records = append(vm.records, ActivationRecord{
			SavedEnv: vm.env, SavedPC: vm.pc, SavedConsts: vm.prog, SavedFP: vm.fp,
		})
		vm.fp = len(vm.records) - 1
		pushedRecord = true
	}

	vm.letStack = append(vm.letStack, pushedRecord)
	frame := types.NewFrame(n, vm.env, owner)
	copy(frame.Slots, argv)
	vm.env = frame
	vm.setVoid()
	return nil
}

// leaveLet implements LEAVE_LET: unchain one environment frame, and —
// only if the matching ENTER_LET_STAR pushed an activation record for
// call-during-binding support — pop that record too.
func (vm *VM) leaveLet() error {
	if vm.env == nil {
		return newCondition(types.CondBadBytecode, "LEAVE_LET outside an environment")
	}
	n := len(vm.letStack)
	if n == 0 {
		return newCondition(types.CondBadBytecode, "LEAVE_LET without matching ENTER_LET")
	}
	pushedRecord := vm.letStack[n-1]
	vm.letStack = vm.letStack[:n-1]
	vm.env = vm.env.Next
	if pushedRecord {
		outer := vm.records[vm.fp].SavedFP
		vm.records = vm.records[:outer+1]
		vm.fp = outer
	}
	vm.setVoid()
	return nil
}

// doReturn implements RETURN: restore env/pc/constants/fp from the
// current activation record and pop it, matching vm.c's RET_CALL.
// Returning past the outermost frame is equivalent to END_OF_CODE.
func (vm *VM) doReturn() error {
	if vm.fp < 0 {
		return errEndOfCode
	}
	rec := vm.records[vm.fp]
	vm.env = rec.SavedEnv
	vm.pc = rec.SavedPC
	vm.prog = rec.SavedConsts
	vm.fp = rec.SavedFP
	vm.records = vm.records[:len(vm.records)-1]
	// val and valc pass through unchanged, so multiple values reach the caller.
	return nil
}
