package types

import "fmt"

// Closure is a compiled procedure: a code vector, its constant pool, an
// arity signature and the captured lexical environment. Mirrors vm.c's
// CLOSURE_BCODE/CLOSURE_CONST/CLOSURE_ARITY/CLOSURE_ENV/CLOSURE_NAME
// accessors as Go struct fields instead of tagged-pointer slots.
type Closure struct {
	Code      []uint16
	Constants []Value
	// Entry is the code offset where this closure's body starts; several
	// closures from the same CREATE_CLOSURE-bearing program share Code
	// but each has its own Entry (vm.c's CLOSURE_BCODE is a pointer into
	// a shared code object for the same reason).
	Entry int
	// Arity: non-negative N means exactly N required arguments; negative
	// A means variadic with Min = -A-1 required arguments and the rest
	// collected into a list.
	Arity int
	Env   *Frame
	Name  string // empty until the first DEFINE_SYMBOL targeting it runs
	// LineInfo maps a code offset to a (file, line) pair; nil for
	// bytecode loaded without debug info. The VM does not read it:
	// backtraces use the activation record's CallSite.
	LineInfo map[int]SourceLoc
}

// SourceLoc is call-site debug info attached by the DBG_VM opcode.
type SourceLoc struct {
	File string
	Line int
}

func (c *Closure) Type() TypeCode { return TypeClosure }
func (c *Closure) Truthy() bool   { return true }

func (c *Closure) Equal(v Value) bool {
	o, ok := v.(*Closure)
	return ok && o == c
}

func (c *Closure) String() string {
	if c.Name != "" {
		return fmt.Sprintf("#<closure %s>", c.Name)
	}
	return "#<closure>"
}

// MinArgs reports the minimum number of arguments this closure accepts.
func (c *Closure) MinArgs() int {
	if c.Arity >= 0 {
		return c.Arity
	}
	return -c.Arity - 1
}

// Variadic reports whether extra arguments are collected into a rest list.
func (c *Closure) Variadic() bool { return c.Arity < 0 }

// PrimFunc is the common shape every primitive arity-class boils down to:
// a fixed argument slice in, a single Value (or error) out. Arity-class
// checking happens in the caller (vm/call.go), not here, matching
// vm.c's ADJUST_ARITY-before-CALL_PRIM split.
type PrimFunc func(args []Value) (Value, error)

// Primitive is a builtin procedure registered under a name and an arity
// class (§6 of the external-interfaces primitive ABI).
type Primitive struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic (no upper bound)
	Fn      PrimFunc
	// IsApply marks the "apply" trampoline (§4.2's tc_apply callee tag):
	// rather than calling Fn, FUNCALL flattens the call's arguments
	// (proc, arg1, ..., argN, restList) and redispatches to proc with
	// the flattened argument vector, exactly in the slot where a plain
	// primitive would have run.
	IsApply bool
}

func (p *Primitive) Type() TypeCode { return TypePrimitive }
func (p *Primitive) Truthy() bool   { return true }
func (p *Primitive) String() string { return fmt.Sprintf("#<primitive %s>", p.Name) }
func (p *Primitive) Equal(v Value) bool {
	o, ok := v.(*Primitive)
	return ok && o == p
}
