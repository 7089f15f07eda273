package vm

import (
	"errors"

	"schemevm/types"
)

// errEndOfCode is step()'s sentinel for the END_OF_CODE opcode: "exit
// the current VM re-entry" (§4.1), never a real failure.
var errEndOfCode = errors.New("end of code")

// fetch reads the next instruction word, advancing pc past the opcode
// word (operand words, if any, are read by the case that needs them).
func (vm *VM) fetch() OpCode {
	op := OpCode(byte(vm.prog.Code[vm.pc]))
	vm.pc++
	return op
}

func (vm *VM) operand() int {
	w := int(vm.prog.Code[vm.pc])
	vm.pc++
	return w
}

func packedHiLo(w uint16) (hi, lo int) {
	return int(w >> 8), int(w & 0xff)
}

// step executes exactly one instruction. Grounded on vm.c's run_vm
// switch and on the teacher's Step/Execute pairing (one opcode handled,
// registers mutated in place, pc advanced past any operands consumed).
func (vm *VM) step() error {
	op := vm.fetch()
	vm.tracer.Dispatch(op.String(), vm.pc-1)

	switch op {
	case OP_IM_FALSE:
		vm.setVal1(types.False)
	case OP_IM_TRUE:
		vm.setVal1(types.True)
	case OP_IM_NIL:
		vm.setVal1(types.TheNil)
	case OP_IM_MINUS1:
		vm.setVal1(types.SmallInt(-1))
	case OP_IM_ZERO:
		vm.setVal1(types.SmallInt(0))
	case OP_IM_ONE:
		vm.setVal1(types.SmallInt(1))
	case OP_IM_VOID:
		vm.setVoid()
	case OP_SMALL_INT:
		vm.setVal1(types.SmallInt(int16(vm.operand())))
	case OP_CONSTANT:
		vm.setVal1(vm.prog.Constants[vm.operand()])

	case OP_IM_FALSE_PUSH:
		vm.setVal1(types.False)
		return vm.Push(vm.val)
	case OP_IM_TRUE_PUSH:
		vm.setVal1(types.True)
		return vm.Push(vm.val)
	case OP_IM_NIL_PUSH:
		vm.setVal1(types.TheNil)
		return vm.Push(vm.val)
	case OP_IM_MINUS1_PUSH:
		vm.setVal1(types.SmallInt(-1))
		return vm.Push(vm.val)
	case OP_IM_ZERO_PUSH:
		vm.setVal1(types.SmallInt(0))
		return vm.Push(vm.val)
	case OP_IM_ONE_PUSH:
		vm.setVal1(types.SmallInt(1))
		return vm.Push(vm.val)
	case OP_SMALL_INT_PUSH:
		vm.setVal1(types.SmallInt(int16(vm.operand())))
		return vm.Push(vm.val)
	case OP_CONSTANT_PUSH:
		vm.setVal1(vm.prog.Constants[vm.operand()])
		return vm.Push(vm.val)

	case OP_GLOBAL_REF:
		return vm.globalRef(false)
	case OP_UGLOBAL_REF:
		idx := vm.operand()
		v, ok := vm.module.Lookup(vm.globals.symbolAt(idx))
		if !ok {
			return newCondition(types.CondUnboundVariable, "unbound variable: %s", vm.globals.symbolAt(idx).Name())
		}
		vm.setVal1(v)
	case OP_GREF_INVOKE:
		return vm.globalRef(true)
	case OP_UGREF_INVOKE:
		idx := vm.operand()
		nargs := vm.operand()
		v, ok := vm.module.Lookup(vm.globals.symbolAt(idx))
		if !ok {
			return newCondition(types.CondUnboundVariable, "unbound variable: %s", vm.globals.symbolAt(idx).Name())
		}
		vm.val = v
		_, err := vm.funcall(nargs, false)
		return err
	case OP_GLOBAL_SET:
		sym := vm.prog.Constants[vm.operand()].(types.Symbol)
		if !vm.module.Set(sym, vm.val) {
			return newCondition(types.CondUnboundVariable, "unbound variable: %s", sym.Name())
		}
		vm.setVoid()
	case OP_UGLOBAL_SET:
		idx := vm.operand()
		sym := vm.globals.symbolAt(idx)
		if !vm.module.Set(sym, vm.val) {
			return newCondition(types.CondUnboundVariable, "unbound variable: %s", sym.Name())
		}
		vm.setVoid()

	case OP_LOCAL_REF0, OP_LOCAL_REF1, OP_LOCAL_REF2, OP_LOCAL_REF3, OP_LOCAL_REF4:
		idx := int(op - OP_LOCAL_REF0)
		vm.setVal1(vm.env.Ref(0, idx))
	case OP_LOCAL_REF:
		vm.setVal1(vm.env.Ref(0, vm.operand()))
	case OP_DEEP_LOCAL_REF:
		hi, lo := packedHiLo(vm.prog.Code[vm.pc])
		vm.pc++
		vm.setVal1(vm.env.Ref(hi, lo))
	case OP_LOCAL_SET0, OP_LOCAL_SET1, OP_LOCAL_SET2, OP_LOCAL_SET3, OP_LOCAL_SET4:
		idx := int(op - OP_LOCAL_SET0)
		vm.env.Set(0, idx, vm.val)
		vm.setVoid()
	case OP_LOCAL_SET:
		vm.env.Set(0, vm.operand(), vm.val)
		vm.setVoid()
	case OP_DEEP_LOCAL_SET:
		hi, lo := packedHiLo(vm.prog.Code[vm.pc])
		vm.pc++
		vm.env.Set(hi, lo, vm.val)
		vm.setVoid()

	case OP_POP:
		v, err := vm.Pop()
		if err != nil {
			return err
		}
		vm.setVal1(v)
	case OP_PUSH:
		return vm.Push(vm.val)

	case OP_GOTO:
		off := vm.operand()
		vm.pc = vm.pc - 1 + off
	case OP_JUMP_FALSE:
		off := vm.operand()
		if !vm.val.Truthy() {
			vm.pc = vm.pc - 1 + off
		}
	case OP_JUMP_TRUE:
		off := vm.operand()
		if vm.val.Truthy() {
			vm.pc = vm.pc - 1 + off
		}
	case OP_JUMP_NUMEQ, OP_JUMP_NUMDIFF, OP_JUMP_NUMLT, OP_JUMP_NUMLE, OP_JUMP_NUMGT, OP_JUMP_NUMGE:
		off := vm.operand()
		left, err := vm.Pop()
		if err != nil {
			return err
		}
		ok, err := numCompare(op, left, vm.val)
		if err != nil {
			return err
		}
		if ok {
			vm.pc = vm.pc - 1 + off
		}
	case OP_JUMP_NOT_EQ, OP_JUMP_NOT_EQV, OP_JUMP_NOT_EQUAL:
		off := vm.operand()
		left, err := vm.Pop()
		if err != nil {
			return err
		}
		var eq bool
		switch op {
		case OP_JUMP_NOT_EQ:
			eq = types.Eq(left, vm.val)
		case OP_JUMP_NOT_EQV:
			eq = types.Eqv(left, vm.val)
		default:
			eq = left.Equal(vm.val)
		}
		if !eq {
			vm.pc = vm.pc - 1 + off
		}

	case OP_PREPARE_CALL:
		vm.records = append(vm.records, ActivationRecord{SavedFP: vm.fp})
		vm.fp = len(vm.records) - 1
	case OP_INVOKE:
		nargs := vm.operand()
		_, err := vm.funcall(nargs, false)
		return err
	case OP_TAIL_INVOKE:
		nargs := vm.operand()
		_, err := vm.funcall(nargs, true)
		return err
	case OP_RETURN:
		return vm.doReturn()

	case OP_ENTER_LET:
		return vm.enterLet(vm.operand(), false, false)
	case OP_ENTER_LET_STAR:
		return vm.enterLet(vm.operand(), true, false)
	case OP_ENTER_TAIL_LET:
		return vm.enterLet(vm.operand(), false, true)
	case OP_ENTER_TAIL_LET_STAR:
		return vm.enterLet(vm.operand(), true, true)
	case OP_LEAVE_LET:
		return vm.leaveLet()

	case OP_CREATE_CLOSURE:
		off := vm.operand()
		arity := int(int16(vm.operand()))
		bodyStart := vm.pc
		vm.setVal1(&types.Closure{
			Code:      vm.prog.Code,
			Constants: vm.prog.Constants,
			Arity:     arity,
			Env:       vm.env,
		})
		cl := vm.val.(*types.Closure)
		cl.Entry = bodyStart
		vm.pc = bodyStart + off - 1

	case OP_SET_CUR_MOD:
		mod, ok := vm.val.(*types.Module)
		if !ok {
			return newCondition(types.CondBadOperandType, "SET_CUR_MOD: not a module")
		}
		vm.module = mod
		vm.setVoid()
	case OP_DEFINE_SYMBOL:
		sym := vm.prog.Constants[vm.operand()].(types.Symbol)
		if cl, ok := vm.val.(*types.Closure); ok && cl.Name == "" {
			cl.Name = sym.Name()
		}
		vm.module.Define(sym, vm.val)
		vm.setVoid()

	case OP_PUSH_HANDLER:
		off := vm.operand()
		return vm.pushHandler(off)
	case OP_POP_HANDLER:
		return vm.popHandler()

	case OP_MAKE_EXPANDER:
		sym := vm.prog.Constants[vm.operand()].(types.Symbol)
		vm.expanders.Register(sym, vm.val)
		vm.setVoid()
	case OP_DBG_VM:
		kind := vm.operand()
		if kind == 0 {
			return newCondition(types.CondBadBytecode, "DBG_VM kind=0 is obsolete")
		}
		// kind==1: attach the call-site info recorded in Program.SourceLoc
		// for this instruction's offset to the current activation.
		if loc, ok := vm.prog.SourceLoc[vm.pc-2]; ok && vm.fp >= 0 {
			vm.records[vm.fp].CallSite = &loc
		}
		vm.setVoid()

	case OP_IN_ADD2, OP_IN_SUB2, OP_IN_MUL2, OP_IN_DIV2:
		return vm.inlineArith(op)
	case OP_IN_NUMEQ, OP_IN_NUMDIFF, OP_IN_NUMLT, OP_IN_NUMGT, OP_IN_NUMLE, OP_IN_NUMGE:
		return vm.inlineNumCompare(op)
	case OP_IN_INCR, OP_IN_DECR:
		i, ok := vm.val.(types.SmallInt)
		if !ok {
			return newCondition(types.CondBadOperandType, "not a number")
		}
		if op == OP_IN_INCR {
			vm.setVal1(i + 1)
		} else {
			vm.setVal1(i - 1)
		}
	case OP_IN_CONS:
		car, err := vm.Pop()
		if err != nil {
			return err
		}
		vm.setVal1(types.NewPair(car, vm.val))
		// The car is popped from the stack and the cdr is in val, the
		// same pop-left/val-right convention inlineArith uses.
	case OP_IN_CAR:
		p, ok := vm.val.(*types.Pair)
		if !ok {
			return newCondition(types.CondBadOperandType, "car: not a pair")
		}
		vm.setVal1(p.Car)
	case OP_IN_CDR:
		p, ok := vm.val.(*types.Pair)
		if !ok {
			return newCondition(types.CondBadOperandType, "cdr: not a pair")
		}
		vm.setVal1(p.Cdr)
	case OP_IN_NULLP:
		_, ok := vm.val.(types.Nil)
		vm.setVal1(types.FromBool(ok))
	case OP_IN_LIST:
		n := vm.operand()
		argv, err := vm.PopN(n)
		if err != nil {
			return err
		}
		vm.setVal1(types.SliceToList(argv))
	case OP_IN_NOT:
		vm.setVal1(types.FromBool(!vm.val.Truthy()))
	case OP_IN_EQUAL, OP_IN_NOT_EQUAL:
		l, err := vm.Pop()
		if err != nil {
			return err
		}
		eq := l.Equal(vm.val)
		if op == OP_IN_NOT_EQUAL {
			eq = !eq
		}
		vm.setVal1(types.FromBool(eq))
	case OP_IN_EQV, OP_IN_NOT_EQV:
		l, err := vm.Pop()
		if err != nil {
			return err
		}
		eq := types.Eqv(l, vm.val)
		if op == OP_IN_NOT_EQV {
			eq = !eq
		}
		vm.setVal1(types.FromBool(eq))
	case OP_IN_EQ, OP_IN_NOT_EQ:
		l, err := vm.Pop()
		if err != nil {
			return err
		}
		eq := types.Eq(l, vm.val)
		if op == OP_IN_NOT_EQ {
			eq = !eq
		}
		vm.setVal1(types.FromBool(eq))
	case OP_IN_VREF:
		idx, ok := vm.val.(types.SmallInt)
		if !ok {
			return newCondition(types.CondBadOperandType, "vector-ref: not an index")
		}
		vtop, err := vm.Pop()
		if err != nil {
			return err
		}
		v, ok := vtop.(*types.Vector)
		if !ok {
			return newCondition(types.CondBadOperandType, "vector-ref: not a vector")
		}
		if int(idx) < 0 || int(idx) >= len(v.Slots) {
			return newCondition(types.CondBadOperandType, "vector-ref: index out of range")
		}
		vm.setVal1(v.Slots[idx])
	case OP_IN_SREF:
		idx, ok := vm.val.(types.SmallInt)
		if !ok {
			return newCondition(types.CondBadOperandType, "string-ref: not an index")
		}
		stop, err := vm.Pop()
		if err != nil {
			return err
		}
		s, ok := stop.(*types.Str)
		if !ok {
			return newCondition(types.CondBadOperandType, "string-ref: not a string")
		}
		if int(idx) < 0 || int(idx) >= len(s.Runes) {
			return newCondition(types.CondBadOperandType, "string-ref: index out of range")
		}
		vm.setVal1(types.Char(s.Runes[idx]))
	case OP_IN_VSET:
		val := vm.val
		idxv, err := vm.Pop()
		if err != nil {
			return err
		}
		vtop, err := vm.Pop()
		if err != nil {
			return err
		}
		idx, ok := idxv.(types.SmallInt)
		v, ok2 := vtop.(*types.Vector)
		if !ok || !ok2 || int(idx) < 0 || int(idx) >= len(v.Slots) {
			return newCondition(types.CondBadOperandType, "vector-set!: bad arguments")
		}
		v.Slots[idx] = val
		vm.setVoid()
	case OP_IN_SSET:
		val := vm.val
		idxv, err := vm.Pop()
		if err != nil {
			return err
		}
		stop, err := vm.Pop()
		if err != nil {
			return err
		}
		idx, ok := idxv.(types.SmallInt)
		s, ok2 := stop.(*types.Str)
		ch, ok3 := val.(types.Char)
		if !ok || !ok2 || !ok3 || int(idx) < 0 || int(idx) >= len(s.Runes) {
			return newCondition(types.CondBadOperandType, "string-set!: bad arguments")
		}
		s.Runes[idx] = rune(ch)
		vm.setVoid()

	case OP_END_OF_CODE:
		return errEndOfCode

	default:
		return newCondition(types.CondBadBytecode, "unknown opcode %d", byte(op))
	}
	return nil
}

// globalRef implements GLOBAL_REF/GREF_INVOKE's self-patching lookup
// (§4.1 "Global-reference patching"). invoke is true for GREF_INVOKE: a
// fused lookup-and-invoke, carrying its own nargs operand right after the
// constant index and calling funcall directly — it does no type-specific
// generic-function logic of its own, it's the same FUNCALL dispatch any
// INVOKE reaches, just without a second instruction to get there.
func (vm *VM) globalRef(invoke bool) error {
	constIdx := vm.operand()
	var nargs int
	if invoke {
		nargs = vm.operand()
	}
	sym, ok := vm.prog.Constants[constIdx].(types.Symbol)
	if !ok {
		return newCondition(types.CondBadBytecode, "GLOBAL_REF: constant is not a symbol")
	}
	v, ok := vm.module.Lookup(sym)
	if !ok {
		return newCondition(types.CondUnboundVariable, "unbound variable: %s", sym.Name())
	}
	idx := vm.globals.intern(sym)
	newOp := OP_UGLOBAL_REF
	patchPC := vm.pc - 2
	if invoke {
		newOp = OP_UGREF_INVOKE
		patchPC = vm.pc - 3
	}
	patchGlobalRef(vm.prog, patchPC, newOp, idx)
	if invoke {
		vm.val = v
		_, err := vm.funcall(nargs, false)
		return err
	}
	vm.setVal1(v)
	return nil
}
