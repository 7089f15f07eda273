package vm

import (
	"fmt"

	"schemevm/trace"
	"schemevm/types"
)

// MaxVals is the inline capacity of the multiple-value registers; a
// call producing more values than this packs everything into a vector
// (§4.7), mirroring vm.c's MAX_VALS constant.
const MaxVals = 8

// Condition is the Go error wrapper around a raised types.Condition,
// the VM's error-return surface (§2 AMBIENT STACK: "a typed
// *vm.Condition error carries the structured condition value").
type Condition struct {
	Value *types.Condition
}

func (c *Condition) Error() string {
	return fmt.Sprintf("%s: %s", c.Value.Kind, c.Value.Message)
}

func newCondition(kind types.ConditionKind, format string, args ...any) *Condition {
	return &Condition{Value: &types.Condition{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// NewCondition is newCondition exported for packages outside vm
// (builtins) that need their type errors to be just as catchable by an
// installed with-handler as the opcodes step.go inlines directly.
func NewCondition(kind types.ConditionKind, format string, args ...any) *Condition {
	return newCondition(kind, format, args...)
}

// VM is the engine context §9 "Process-wide state" calls for: every
// register, stack and table the interpreter needs, passed around as one
// explicit struct rather than process globals (the teacher does the
// same with its VM struct; only the field set differs).
type VM struct {
	// Operand stack: holds arguments between PUSH/argument-evaluation and
	// the INVOKE/TAIL_INVOKE that consumes them. Grounded on the
	// teacher's Stack []types.Value + SP idiom; activation records and
	// environment frames are modeled as separate Go structures (records,
	// *types.Frame) rather than packed into the same array, a
	// systems-language-reimplementation simplification spec.md §9
	// explicitly allows ("Call dispatch ... strategy").
	stack []types.Value

	records []ActivationRecord
	fp      int // index of the current activation record in records, -1 at top level

	// letStack tracks, per open ENTER_LET*, whether it pushed an
	// activation record (ENTER_LET_STAR/tail forms) that the matching
	// LEAVE_LET must pop; see letenv.go.
	letStack []bool

	pc   int
	prog *Program
	env  *types.Frame
	val  types.Value

	vals [MaxVals]types.Value
	valc int

	r1, r2 types.Value // r1 carries the NextMethod of a generic-function call (call.go); r2 is unused

	handlers   []Handler
	topHandler int // index of the top handler in handlers, -1 if none

	module    *types.Module
	globals   *globalPatchTable
	expanders *types.Expanders

	tracer *trace.Tracer

	nextLoopGen int64
	// liveGens marks which runLoop generations currently have a live Go
	// call frame on the stack (set at entry, cleared at exit). A
	// continuation captured under a generation no longer in this set
	// targets a Go frame that has already returned — this VM's analogue
	// of a longjmp buffer whose stack region was already unwound — and
	// restoring it is reported as a bad continuation instead of
	// corrupting unrelated state (see continuation.go).
	liveGens map[int64]bool

	MaxStack int // sp bound; 0 means use defaultMaxStack
}

const defaultMaxStack = 1 << 20

// New builds a VM bound to a module (the "current module" collaborator,
// §1/§9) and a tracer (nil disables tracing).
func New(mod *types.Module, tracer *trace.Tracer) *VM {
	if tracer == nil {
		tracer = trace.NewDisabled()
	}
	return &VM{
		fp:         -1,
		topHandler: -1,
		module:     mod,
		globals:    newGlobalPatchTable(),
		expanders:  &types.Expanders{},
		tracer:     tracer,
		liveGens:   make(map[int64]bool),
		MaxStack:   defaultMaxStack,
	}
}

// Push/Pop/Peek operate on the operand stack. Grounded on the teacher's
// vm.go Push/Pop/Peek trio.
func (vm *VM) Push(v types.Value) error {
	if len(vm.stack) >= vm.MaxStack {
		return newCondition(types.CondStackOverflow, "operand stack exhausted")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) Pop() (types.Value, error) {
	n := len(vm.stack)
	if n == 0 {
		return nil, newCondition(types.CondStackOverflow, "operand stack underflow")
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, nil
}

func (vm *VM) Peek() types.Value {
	return vm.stack[len(vm.stack)-1]
}

// PopN removes and returns the top n values in push order (oldest
// first), matching FUNCALL's "sp[0] is the last argument" convention
// inverted into a natural Go argv slice.
func (vm *VM) PopN(n int) ([]types.Value, error) {
	if len(vm.stack) < n {
		return nil, newCondition(types.CondStackOverflow, "operand stack underflow")
	}
	top := len(vm.stack)
	argv := append([]types.Value(nil), vm.stack[top-n:top]...)
	vm.stack = vm.stack[:top-n]
	return argv, nil
}

func (vm *VM) setVal1(v types.Value) {
	vm.val = v
	vm.valc = 1
}

func (vm *VM) setVoid() {
	vm.val = types.TheVoid
	vm.valc = 0
}

// Boot installs prog as the code currently executing at the top level
// and runs it to completion (§4.8: "each phrase is executed with
// current_module as its lexical environment before reading the next").
// noStopFP tells runLoop to ignore fp entirely and run until
// END_OF_CODE, for the top-level Boot entry point where fp legitimately
// sits at -1 for the whole program except during transient nested calls.
const noStopFP = -(1 << 30)

func (vm *VM) Boot(prog *Program) error {
	vm.prog = prog
	vm.pc = 0
	vm.env = nil // nil env means "look up in vm.module" (§3: chain terminates at the module value)
	return vm.runLoop(noStopFP)
}

// Apply is the re-entrant native->VM call helper (SPEC_FULL.md §4,
// grounded on vm.c's STk_C_apply): push args, invoke callee via FUNCALL,
// and if it's a closure run the trampoline until it returns to this
// call's depth. Used by call-with-values, parameter converters, and
// handler invocation; apply is a trampoline inside funcall instead.
func (vm *VM) Apply(callee types.Value, args []types.Value) (types.Value, error) {
	savedPC, savedProg, savedEnv := vm.pc, vm.prog, vm.env
	entryFP := vm.fp

	vm.records = append(vm.records, ActivationRecord{
		SavedEnv: savedEnv, SavedPC: savedPC, SavedConsts: savedProg, SavedFP: entryFP,
	})
	vm.fp = len(vm.records) - 1

	for _, a := range args {
		if err := vm.Push(a); err != nil {
			return nil, err
		}
	}
	vm.val = callee
	needsLoop, err := vm.funcall(len(args), false)
	if err != nil {
		return nil, err
	}
	if needsLoop {
		if err := vm.runLoop(entryFP); err != nil {
			return nil, err
		}
	}
	vm.pc, vm.prog, vm.env = savedPC, savedProg, savedEnv
	return vm.val, nil
}

// runLoop drives the fetch-decode-execute cycle until the activation
// record stack returns to depth stopFP (a closure RETURN got us back to
// the caller), stopFP is noStopFP and END_OF_CODE is hit, or an error
// occurs. The inner recover/retry structure is the correlation mechanism
// non-local raises use to resume at the exact Go frame that installed
// the relevant handler; see handlers.go for why a bare recover isn't
// enough (it would catch a resume meant for some other nested runLoop).
func (vm *VM) runLoop(stopFP int) (err error) {
	myGen := vm.nextLoopGen
	vm.nextLoopGen++
	vm.liveGens[myGen] = true
	defer delete(vm.liveGens, myGen)

	for {
		var caught bool
		func() {
			defer func() {
				if r := recover(); r != nil {
					sig, ok := r.(*resumeSignal)
					if !ok || sig.ownerGen != myGen {
						panic(r)
					}
					caught = true
				}
			}()
			for {
				e := vm.step()
				if e == errEndOfCode {
					return
				}
				if e != nil {
					cond, ok := e.(*Condition)
					if !ok {
						err = e
						return
					}
					// Raise either panics a resumeSignal (a handler was
					// found and this closure's own recover may or may not
					// be the intended catcher) or returns a non-nil error
					// (the condition was uncaught).
					err = vm.Raise(cond.Value)
					return
				}
				if stopFP != noStopFP && vm.fp == stopFP {
					return
				}
			}
		}()
		if err != nil {
			return err
		}
		if caught {
			continue // resumed into a (possibly shallower) state; keep draining
		}
		return nil
	}
}
