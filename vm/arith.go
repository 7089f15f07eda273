package vm

import "schemevm/types"

// inlineArith implements IN_ADD2/IN_SUB2/IN_MUL2/IN_DIV2: pop the left
// operand, combine with val (the right operand), matching the stack
// convention the JUMP_NUM* cases also use ("numeric comparisons pop the
// left operand and compare against val").
func (vm *VM) inlineArith(op OpCode) error {
	left, err := vm.Pop()
	if err != nil {
		return err
	}
	l, ok1 := left.(types.SmallInt)
	r, ok2 := vm.val.(types.SmallInt)
	if !ok1 || !ok2 {
		return newCondition(types.CondBadOperandType, "arithmetic on non-number")
	}
	switch op {
	case OP_IN_ADD2:
		vm.setVal1(l + r)
	case OP_IN_SUB2:
		vm.setVal1(l - r)
	case OP_IN_MUL2:
		vm.setVal1(l * r)
	case OP_IN_DIV2:
		if r == 0 {
			return newCondition(types.CondBadOperandType, "division by zero")
		}
		vm.setVal1(l / r)
	}
	return nil
}

func (vm *VM) inlineNumCompare(op OpCode) error {
	left, err := vm.Pop()
	if err != nil {
		return err
	}
	ok, err := numCompare(op, left, vm.val)
	if err != nil {
		return err
	}
	vm.setVal1(types.FromBool(ok))
	return nil
}

// numCompare is shared by the inlined comparison opcodes and the
// JUMP_NUM* conditional branches, since both compare a popped left
// operand against val using the same operator set.
func numCompare(op OpCode, left, right types.Value) (bool, error) {
	l, ok1 := left.(types.SmallInt)
	r, ok2 := right.(types.SmallInt)
	if !ok1 || !ok2 {
		return false, newCondition(types.CondBadOperandType, "comparison on non-number")
	}
	switch op {
	case OP_IN_NUMEQ, OP_JUMP_NUMEQ:
		return l == r, nil
	case OP_IN_NUMDIFF, OP_JUMP_NUMDIFF:
		return l != r, nil
	case OP_IN_NUMLT, OP_JUMP_NUMLT:
		return l < r, nil
	case OP_IN_NUMGT, OP_JUMP_NUMGT:
		return l > r, nil
	case OP_IN_NUMLE, OP_JUMP_NUMLE:
		return l <= r, nil
	case OP_IN_NUMGE, OP_JUMP_NUMGE:
		return l >= r, nil
	}
	return false, newCondition(types.CondBadBytecode, "not a comparison opcode")
}
