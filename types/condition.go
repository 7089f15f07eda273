package types

import "fmt"

// ConditionKind enumerates the condition kinds spec.md §7 names. Renamed
// from the teacher's MOO-flavored ErrorCode (E_TYPE, E_INVARG, ...) to
// the VM's own vocabulary; shape (an int enum plus a String method) kept.
type ConditionKind int

const (
	CondNone ConditionKind = iota
	CondWrongArity
	CondBadCallable
	CondBadOperandType
	CondBadContinuation
	CondBadBytecode
	CondStackOverflow
	CondExit
	CondUnboundVariable
	CondUserRaise // condition values raised by (raise obj) where obj isn't one of the above
)

var conditionNames = map[ConditionKind]string{
	CondNone:            "none",
	CondWrongArity:      "wrong-number-of-arguments",
	CondBadCallable:     "not-callable",
	CondBadOperandType:  "wrong-type-argument",
	CondBadContinuation: "bad-continuation",
	CondBadBytecode:     "bad-bytecode",
	CondStackOverflow:   "stack-overflow",
	CondExit:            "exit",
	CondUnboundVariable: "unbound-variable",
	CondUserRaise:       "user-raise",
}

func (k ConditionKind) String() string {
	if n, ok := conditionNames[k]; ok {
		return n
	}
	return "unknown-condition"
}

// Condition is the Value form of a raised condition: what with-handler
// bodies and the handler chain actually see and pass around. Distinct
// from the *vm.Condition error type (vm/handlers.go), which wraps this
// for Go's error-returning surface.
type Condition struct {
	Kind    ConditionKind
	Message string
	Irritants []Value
	Payload Value // the raw value passed to (raise obj) when Kind == CondUserRaise
}

func (c *Condition) Type() TypeCode { return TypeCondition }
func (c *Condition) Truthy() bool   { return true }

func (c *Condition) String() string {
	if c.Kind == CondUserRaise {
		return fmt.Sprintf("#<condition %s>", c.Payload.String())
	}
	return fmt.Sprintf("#<condition %s: %s>", c.Kind, c.Message)
}

func (c *Condition) Equal(v Value) bool {
	o, ok := v.(*Condition)
	return ok && o == c
}
