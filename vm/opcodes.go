package vm

// Package vm implements the bytecode interpreter: opcode table, call
// protocol, handler protocol, continuation capture/restore and the
// multiple-value registers. Grounded on the teacher's vm/opcodes.go (the
// OpCode byte enum + OpCodeNames map idiom) and on
// _examples/original_source/src/vm.c's run_vm instruction switch for
// exact semantics.

// OpCode identifies one instruction. Code is a stream of 16-bit words;
// an instruction's first word holds the opcode in its low byte, an
// optional 8-bit immediate in its high byte (LOCAL_REFi-style fixed
// opcodes need none), and a second word follows when the instruction
// needs a wider 16-bit immediate or a packed (hi, lo) pair.
type OpCode byte

const (
	// Immediates (load into val, set valc = 1)
	OP_IM_FALSE OpCode = iota
	OP_IM_TRUE
	OP_IM_NIL
	OP_IM_MINUS1
	OP_IM_ZERO
	OP_IM_ONE
	OP_IM_VOID // sets valc = 0
	OP_SMALL_INT
	OP_CONSTANT

	// Immediates + push
	OP_IM_FALSE_PUSH
	OP_IM_TRUE_PUSH
	OP_IM_NIL_PUSH
	OP_IM_MINUS1_PUSH
	OP_IM_ZERO_PUSH
	OP_IM_ONE_PUSH
	OP_SMALL_INT_PUSH
	OP_CONSTANT_PUSH

	// Global ref/set
	OP_GLOBAL_REF
	OP_UGLOBAL_REF
	OP_GREF_INVOKE
	OP_UGREF_INVOKE
	OP_GLOBAL_SET
	OP_UGLOBAL_SET

	// Local ref/set
	OP_LOCAL_REF0
	OP_LOCAL_REF1
	OP_LOCAL_REF2
	OP_LOCAL_REF3
	OP_LOCAL_REF4
	OP_LOCAL_REF
	OP_DEEP_LOCAL_REF
	OP_LOCAL_SET0
	OP_LOCAL_SET1
	OP_LOCAL_SET2
	OP_LOCAL_SET3
	OP_LOCAL_SET4
	OP_LOCAL_SET
	OP_DEEP_LOCAL_SET

	// Stack ops
	OP_POP
	OP_PUSH

	// Control
	OP_GOTO
	OP_JUMP_FALSE
	OP_JUMP_TRUE
	OP_JUMP_NUMEQ
	OP_JUMP_NUMDIFF
	OP_JUMP_NUMLT
	OP_JUMP_NUMLE
	OP_JUMP_NUMGT
	OP_JUMP_NUMGE
	OP_JUMP_NOT_EQ
	OP_JUMP_NOT_EQV
	OP_JUMP_NOT_EQUAL

	// Calls
	OP_PREPARE_CALL
	OP_INVOKE
	OP_TAIL_INVOKE
	OP_RETURN

	// Environments
	OP_ENTER_LET
	OP_ENTER_LET_STAR
	OP_ENTER_TAIL_LET
	OP_ENTER_TAIL_LET_STAR
	OP_LEAVE_LET

	// Closure
	OP_CREATE_CLOSURE

	// Modules
	OP_SET_CUR_MOD
	OP_DEFINE_SYMBOL

	// Handlers
	OP_PUSH_HANDLER
	OP_POP_HANDLER

	// Meta
	OP_MAKE_EXPANDER
	OP_DBG_VM

	// Inlined primitives
	OP_IN_ADD2
	OP_IN_SUB2
	OP_IN_MUL2
	OP_IN_DIV2
	OP_IN_NUMEQ
	OP_IN_NUMDIFF
	OP_IN_NUMLT
	OP_IN_NUMGT
	OP_IN_NUMLE
	OP_IN_NUMGE
	OP_IN_INCR
	OP_IN_DECR
	OP_IN_CONS
	OP_IN_CAR
	OP_IN_CDR
	OP_IN_NULLP
	OP_IN_LIST
	OP_IN_NOT
	OP_IN_EQUAL
	OP_IN_EQV
	OP_IN_EQ
	OP_IN_NOT_EQUAL
	OP_IN_NOT_EQV
	OP_IN_NOT_EQ
	OP_IN_VREF
	OP_IN_SREF
	OP_IN_VSET
	OP_IN_SSET

	// End
	OP_END_OF_CODE

	opCodeCount
)

var opCodeNames = [opCodeCount]string{
	OP_IM_FALSE: "IM_FALSE", OP_IM_TRUE: "IM_TRUE", OP_IM_NIL: "IM_NIL",
	OP_IM_MINUS1: "IM_MINUS1", OP_IM_ZERO: "IM_ZERO", OP_IM_ONE: "IM_ONE",
	OP_IM_VOID: "IM_VOID", OP_SMALL_INT: "SMALL_INT", OP_CONSTANT: "CONSTANT",

	OP_IM_FALSE_PUSH: "IM_FALSE_PUSH", OP_IM_TRUE_PUSH: "IM_TRUE_PUSH",
	OP_IM_NIL_PUSH: "IM_NIL_PUSH", OP_IM_MINUS1_PUSH: "IM_MINUS1_PUSH",
	OP_IM_ZERO_PUSH: "IM_ZERO_PUSH", OP_IM_ONE_PUSH: "IM_ONE_PUSH",
	OP_SMALL_INT_PUSH: "SMALL_INT_PUSH", OP_CONSTANT_PUSH: "CONSTANT_PUSH",

	OP_GLOBAL_REF: "GLOBAL_REF", OP_UGLOBAL_REF: "UGLOBAL_REF",
	OP_GREF_INVOKE: "GREF_INVOKE", OP_UGREF_INVOKE: "UGREF_INVOKE",
	OP_GLOBAL_SET: "GLOBAL_SET", OP_UGLOBAL_SET: "UGLOBAL_SET",

	OP_LOCAL_REF0: "LOCAL_REF0", OP_LOCAL_REF1: "LOCAL_REF1",
	OP_LOCAL_REF2: "LOCAL_REF2", OP_LOCAL_REF3: "LOCAL_REF3",
	OP_LOCAL_REF4: "LOCAL_REF4", OP_LOCAL_REF: "LOCAL_REF",
	OP_DEEP_LOCAL_REF: "DEEP_LOCAL_REF",
	OP_LOCAL_SET0:     "LOCAL_SET0", OP_LOCAL_SET1: "LOCAL_SET1",
	OP_LOCAL_SET2: "LOCAL_SET2", OP_LOCAL_SET3: "LOCAL_SET3",
	OP_LOCAL_SET4: "LOCAL_SET4", OP_LOCAL_SET: "LOCAL_SET",
	OP_DEEP_LOCAL_SET: "DEEP_LOCAL_SET",

	OP_POP: "POP", OP_PUSH: "PUSH",

	OP_GOTO: "GOTO", OP_JUMP_FALSE: "JUMP_FALSE", OP_JUMP_TRUE: "JUMP_TRUE",
	OP_JUMP_NUMEQ: "JUMP_NUMEQ", OP_JUMP_NUMDIFF: "JUMP_NUMDIFF",
	OP_JUMP_NUMLT: "JUMP_NUMLT", OP_JUMP_NUMLE: "JUMP_NUMLE",
	OP_JUMP_NUMGT: "JUMP_NUMGT", OP_JUMP_NUMGE: "JUMP_NUMGE",
	OP_JUMP_NOT_EQ: "JUMP_NOT_EQ", OP_JUMP_NOT_EQV: "JUMP_NOT_EQV",
	OP_JUMP_NOT_EQUAL: "JUMP_NOT_EQUAL",

	OP_PREPARE_CALL: "PREPARE_CALL", OP_INVOKE: "INVOKE",
	OP_TAIL_INVOKE: "TAIL_INVOKE", OP_RETURN: "RETURN",

	OP_ENTER_LET: "ENTER_LET", OP_ENTER_LET_STAR: "ENTER_LET_STAR",
	OP_ENTER_TAIL_LET: "ENTER_TAIL_LET", OP_ENTER_TAIL_LET_STAR: "ENTER_TAIL_LET_STAR",
	OP_LEAVE_LET: "LEAVE_LET",

	OP_CREATE_CLOSURE: "CREATE_CLOSURE",

	OP_SET_CUR_MOD: "SET_CUR_MOD", OP_DEFINE_SYMBOL: "DEFINE_SYMBOL",

	OP_PUSH_HANDLER: "PUSH_HANDLER", OP_POP_HANDLER: "POP_HANDLER",

	OP_MAKE_EXPANDER: "MAKE_EXPANDER", OP_DBG_VM: "DBG_VM",

	OP_IN_ADD2: "IN_ADD2", OP_IN_SUB2: "IN_SUB2", OP_IN_MUL2: "IN_MUL2",
	OP_IN_DIV2: "IN_DIV2", OP_IN_NUMEQ: "IN_NUMEQ", OP_IN_NUMDIFF: "IN_NUMDIFF",
	OP_IN_NUMLT: "IN_NUMLT", OP_IN_NUMGT: "IN_NUMGT", OP_IN_NUMLE: "IN_NUMLE",
	OP_IN_NUMGE: "IN_NUMGE", OP_IN_INCR: "IN_INCR", OP_IN_DECR: "IN_DECR",
	OP_IN_CONS: "IN_CONS", OP_IN_CAR: "IN_CAR", OP_IN_CDR: "IN_CDR",
	OP_IN_NULLP: "IN_NULLP", OP_IN_LIST: "IN_LIST", OP_IN_NOT: "IN_NOT",
	OP_IN_EQUAL: "IN_EQUAL", OP_IN_EQV: "IN_EQV", OP_IN_EQ: "IN_EQ",
	OP_IN_NOT_EQUAL: "IN_NOT_EQUAL", OP_IN_NOT_EQV: "IN_NOT_EQV",
	OP_IN_NOT_EQ: "IN_NOT_EQ", OP_IN_VREF: "IN_VREF", OP_IN_SREF: "IN_SREF",
	OP_IN_VSET: "IN_VSET", OP_IN_SSET: "IN_SSET",

	OP_END_OF_CODE: "END_OF_CODE",
}

func (o OpCode) String() string {
	if int(o) < len(opCodeNames) && opCodeNames[o] != "" {
		return opCodeNames[o]
	}
	return "UNKNOWN_OPCODE"
}

// operandWords reports how many 16-bit words follow the opcode word for
// each instruction; Program.ReadOpcode and Program.InstrLen use it.
func (o OpCode) operandWords() int {
	switch o {
	case OP_SMALL_INT, OP_CONSTANT, OP_SMALL_INT_PUSH, OP_CONSTANT_PUSH,
		OP_GLOBAL_REF, OP_UGLOBAL_REF, OP_GLOBAL_SET, OP_UGLOBAL_SET,
		OP_LOCAL_REF, OP_LOCAL_SET, OP_DEEP_LOCAL_REF, OP_DEEP_LOCAL_SET,
		OP_GOTO, OP_JUMP_FALSE, OP_JUMP_TRUE,
		OP_JUMP_NUMEQ, OP_JUMP_NUMDIFF, OP_JUMP_NUMLT, OP_JUMP_NUMLE,
		OP_JUMP_NUMGT, OP_JUMP_NUMGE,
		OP_JUMP_NOT_EQ, OP_JUMP_NOT_EQV, OP_JUMP_NOT_EQUAL,
		OP_INVOKE, OP_TAIL_INVOKE,
		OP_ENTER_LET, OP_ENTER_LET_STAR, OP_ENTER_TAIL_LET, OP_ENTER_TAIL_LET_STAR,
		OP_SET_CUR_MOD, OP_DEFINE_SYMBOL,
		OP_PUSH_HANDLER, OP_MAKE_EXPANDER, OP_DBG_VM, OP_IN_LIST:
		return 1
	case OP_CREATE_CLOSURE, OP_GREF_INVOKE, OP_UGREF_INVOKE:
		return 2 // CREATE_CLOSURE: off, arity. GREF/UGREF_INVOKE: idx, nargs
	default:
		return 0
	}
}
