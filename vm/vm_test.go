package vm

import (
	"testing"

	"schemevm/types"
)

func addPrimitive() *types.Primitive {
	return &types.Primitive{Name: "+", MinArgs: 0, MaxArgs: -1, Fn: func(args []types.Value) (types.Value, error) {
		var sum int64
		for _, a := range args {
			sum += int64(a.(types.SmallInt))
		}
		return types.SmallInt(sum), nil
	}}
}

func TestApplyPrimitive(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	result, err := v.Apply(addPrimitive(), []types.Value{types.SmallInt(3), types.SmallInt(4)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Equal(types.SmallInt(7)) {
		t.Fatalf("Apply(+, 3, 4) = %v, want 7", result)
	}
}

// TestApplyClosureReadsLocalsAndCallsPrimitive hand-assembles a closure
// body equivalent to (lambda (a b) (+ a b)) and runs it via Apply, the
// same re-entrant native->VM call path call-with-values and apply use.
func TestApplyClosureReadsLocalsAndCallsPrimitive(t *testing.T) {
	add := addPrimitive()
	code := []uint16{
		uint16(OP_PREPARE_CALL),
		uint16(OP_LOCAL_REF0), // a
		uint16(OP_PUSH),
		uint16(OP_LOCAL_REF1), // b
		uint16(OP_PUSH),
		uint16(OP_CONSTANT), 0, // callee
		uint16(OP_INVOKE), 2,
		uint16(OP_RETURN),
	}
	closure := &types.Closure{
		Code:      code,
		Constants: []types.Value{add},
		Entry:     0,
		Arity:     2,
	}

	v := New(types.NewModule("test"), nil)
	result, err := v.Apply(closure, []types.Value{types.SmallInt(10), types.SmallInt(32)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Equal(types.SmallInt(42)) {
		t.Fatalf("closure result = %v, want 42", result)
	}
}

func TestApplyClosureWrongArity(t *testing.T) {
	closure := &types.Closure{
		Code:      []uint16{uint16(OP_RETURN)},
		Constants: nil,
		Entry:     0,
		Arity:     2,
	}
	v := New(types.NewModule("test"), nil)
	if _, err := v.Apply(closure, []types.Value{types.SmallInt(1)}); err == nil {
		t.Fatal("expected a wrong-arity condition calling a 2-arg closure with 1 argument")
	}
}

func TestApplyVariadicClosureCollectsRest(t *testing.T) {
	// (lambda (a . rest) (length rest))-equivalent: the body passes the
	// rest list to a "count" primitive and returns its length.
	lengthLike := &types.Primitive{Name: "count", MinArgs: 1, MaxArgs: 1, Fn: func(args []types.Value) (types.Value, error) {
		s, ok := types.ListToSlice(args[0])
		if !ok {
			return nil, newCondition(types.CondBadOperandType, "not a list")
		}
		return types.SmallInt(len(s)), nil
	}}
	code := []uint16{
		uint16(OP_PREPARE_CALL),
		uint16(OP_LOCAL_REF1), // rest
		uint16(OP_PUSH),
		uint16(OP_CONSTANT), 0,
		uint16(OP_INVOKE), 1,
		uint16(OP_RETURN),
	}
	closure := &types.Closure{
		Code:      code,
		Constants: []types.Value{lengthLike},
		Entry:     0,
		Arity:     -2, // min 1, variadic
	}
	v := New(types.NewModule("test"), nil)
	result, err := v.Apply(closure, []types.Value{types.SmallInt(1), types.SmallInt(2), types.SmallInt(3)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Equal(types.SmallInt(2)) {
		t.Fatalf("rest-list length = %v, want 2", result)
	}
}

func TestRaiseWithNoHandlerReturnsCondition(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	cond := &types.Condition{Kind: types.CondBadOperandType, Message: "boom"}
	err := v.Raise(cond)
	if err == nil {
		t.Fatal("Raise with no installed handler should return an error")
	}
	c, ok := err.(*Condition)
	if !ok || c.Value != cond {
		t.Fatalf("Raise should surface the same condition value, got %#v", err)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	if err := v.Push(types.SmallInt(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := v.Push(types.SmallInt(2)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got, err := v.PopN(2)
	if err != nil {
		t.Fatalf("PopN: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(types.SmallInt(1)) || !got[1].Equal(types.SmallInt(2)) {
		t.Fatalf("PopN order mismatch: %v", got)
	}
}

func TestPopUnderflow(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	if _, err := v.Pop(); err == nil {
		t.Fatal("Pop on an empty stack should error")
	}
}

// acceptAllMethods is a ComputeApplicable that treats every registered
// method as applicable, in declaration order, deferring all
// most-specific-first ordering to the caller.
func acceptAllMethods(gf *types.GenericFunction, args []types.Value) []*types.Closure {
	return gf.Methods
}

// nextMethodClosure builds a one-argument method body that calls
// (%next-method) with zero arguments (replaying the original argument
// vector) and returns whatever it produces.
func nextMethodClosure(nextMethodPrim *types.Primitive) *types.Closure {
	code := []uint16{
		uint16(OP_PREPARE_CALL),
		uint16(OP_CONSTANT), 0, // %next-method
		uint16(OP_INVOKE), 0,
		uint16(OP_PREPARE_CALL),
		uint16(OP_INVOKE), 0, // val already holds the next-method token
		uint16(OP_RETURN),
	}
	return &types.Closure{Code: code, Constants: []types.Value{nextMethodPrim}, Entry: 0, Arity: 1}
}

func constantClosure(v types.Value, arity int) *types.Closure {
	code := []uint16{uint16(OP_CONSTANT), 0, uint16(OP_RETURN)}
	return &types.Closure{Code: code, Constants: []types.Value{v}, Entry: 0, Arity: arity}
}

func TestGenericFunctionDispatchesThroughNextMethod(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	nextMethodPrim := GenericPrimitives(v)[0]

	mostSpecific := nextMethodClosure(nextMethodPrim)
	fallback := constantClosure(types.SmallInt(200), 1)
	gf := &types.GenericFunction{
		Name:              "g",
		Methods:           []*types.Closure{mostSpecific, fallback},
		ComputeApplicable: acceptAllMethods,
	}

	result, err := v.Apply(gf, []types.Value{types.SmallInt(7)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Equal(types.SmallInt(200)) {
		t.Fatalf("generic dispatch result = %v, want 200 (the fallback method's value)", result)
	}
}

func TestGenericFunctionNoApplicableMethodReturnsVoid(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	gf := &types.GenericFunction{
		Name:    "g",
		Methods: nil,
		ComputeApplicable: func(gf *types.GenericFunction, args []types.Value) []*types.Closure {
			return nil
		},
	}
	result, err := v.Apply(gf, []types.Value{types.SmallInt(1)})
	if err != nil {
		t.Fatalf("Apply with no applicable method should not itself error: %v", err)
	}
	if result != types.TheVoid {
		t.Fatalf("result = %v, want void", result)
	}
}

func TestNextMethodExhaustedRaisesWithoutNoNextMethod(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	nextMethodPrim := GenericPrimitives(v)[0]
	onlyMethod := nextMethodClosure(nextMethodPrim)
	gf := &types.GenericFunction{
		Name:              "g",
		Methods:           []*types.Closure{onlyMethod},
		ComputeApplicable: acceptAllMethods,
	}
	if _, err := v.Apply(gf, []types.Value{types.SmallInt(1)}); err == nil {
		t.Fatal("expected an error when next-method is invoked with none remaining and no NoNextMethod is set")
	}
}

func TestNextMethodExhaustedCallsNoNextMethodWithGFAndArgs(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	nextMethodPrim := GenericPrimitives(v)[0]
	onlyMethod := nextMethodClosure(nextMethodPrim)
	// NoNextMethod's arity is 1 (gf) + 1 (the replayed argument) = 2.
	noNext := constantClosure(types.SmallInt(999), 2)
	gf := &types.GenericFunction{
		Name:              "g",
		Methods:           []*types.Closure{onlyMethod},
		ComputeApplicable: acceptAllMethods,
		NoNextMethod:      noNext,
	}
	result, err := v.Apply(gf, []types.Value{types.SmallInt(1)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Equal(types.SmallInt(999)) {
		t.Fatalf("result = %v, want 999 (NoNextMethod invoked with (gf, arg) and no out-of-range panic)", result)
	}
}

// TestContinuationResumeLeavesCorrectActivationDepth is a minimal,
// direct regression test for captureContinuation's fp bookkeeping: it
// calls %make-continuation and then immediately %restore-continuation
// on the value it captured, all from inside a single closure body, and
// checks that the RETURN the resumed execution eventually hits lands
// back in the right caller rather than dereferencing a ghost activation
// record's unset SavedPC/SavedConsts/SavedEnv.
//
// (lambda ()
//   (let ((k (%make-continuation)))
//     (if (%fresh-continuation? k)
//         (%restore-continuation k 41)
//         (+ 1 k))))
//
// capturing k into a let-bound local (rather than juggling it on the
// operand stack across the intervening %fresh-continuation? call)
// mirrors conformance/runner.go's call/cc lowering.
func TestContinuationResumeLeavesCorrectActivationDepth(t *testing.T) {
	v := New(types.NewModule("test"), nil)
	makeCont := ContinuationPrimitives(v)[0]    // %make-continuation
	freshP := ContinuationPrimitives(v)[3]      // %fresh-continuation?
	restoreCont := ContinuationPrimitives(v)[1] // %restore-continuation
	add := addPrimitive()

	// Constants: 0=%make-continuation, 1=%fresh-continuation?,
	// 2=%restore-continuation, 3=the escape value 41, 4=+
	consts := []types.Value{makeCont, freshP, restoreCont, types.SmallInt(41), add}

	// Mirrors conformance/runner.go's scenarioCallCCEscape lowering of
	// (let ((k (%make-continuation))) (if (%fresh-continuation? k) ...))
	// exactly, including its choice to RETURN straight out of each branch
	// rather than LEAVE_LET first — LEAVE_LET unconditionally voids val,
	// which would stomp the branch's result; RETURN restores env from the
	// activation record instead, so the dangling let frame never matters.
	code := []uint16{
		// push %make-continuation's (zero-arg) result for ENTER_LET.
		uint16(OP_PREPARE_CALL),
		uint16(OP_CONSTANT), 0,
		uint16(OP_INVOKE), 0,
		uint16(OP_PUSH),
		uint16(OP_ENTER_LET), 1, // let ((k <result>)): k is local 0 at depth 0

		// (%fresh-continuation? k)
		uint16(OP_PREPARE_CALL),
		uint16(OP_LOCAL_REF0),
		uint16(OP_PUSH),
		uint16(OP_CONSTANT), 1,
		uint16(OP_INVOKE), 1,
		uint16(OP_JUMP_FALSE), 13, // -> resumed branch (index 29)

		// fresh branch: (%restore-continuation k 41)
		uint16(OP_PREPARE_CALL),
		uint16(OP_LOCAL_REF0),
		uint16(OP_PUSH),
		uint16(OP_CONSTANT), 3,
		uint16(OP_PUSH),
		uint16(OP_CONSTANT), 2,
		uint16(OP_INVOKE), 2,
		uint16(OP_GOTO), 11, // -> RETURN (index 39), never actually reached

		// resumed branch: (+ 1 k)
		uint16(OP_PREPARE_CALL),
		uint16(OP_SMALL_INT), 1,
		uint16(OP_PUSH),
		uint16(OP_LOCAL_REF0),
		uint16(OP_PUSH),
		uint16(OP_CONSTANT), 4,
		uint16(OP_INVOKE), 2,

		uint16(OP_RETURN),
	}
	closure := &types.Closure{Code: code, Constants: consts, Entry: 0, Arity: 0}

	result, err := v.Apply(closure, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Equal(types.SmallInt(42)) {
		t.Fatalf("call/cc round trip = %v, want 42", result)
	}
}

// TestGrefInvokeFusesLookupAndCall exercises GREF_INVOKE/UGREF_INVOKE
// (§4.1): a single instruction carrying its own nargs operand, not a
// GLOBAL_REF followed by a separate PREPARE_CALL/INVOKE pair. It also
// runs the body twice so the second pass patches through UGREF_INVOKE
// and must behave identically.
func TestGrefInvokeFusesLookupAndCall(t *testing.T) {
	mod := types.NewModule("test")
	sym := types.Intern("+")
	mod.Define(sym, addPrimitive())

	code := []uint16{
		uint16(OP_PREPARE_CALL),
		uint16(OP_SMALL_INT), 10,
		uint16(OP_PUSH),
		uint16(OP_SMALL_INT), 32,
		uint16(OP_PUSH),
		uint16(OP_GREF_INVOKE), 0, 2, // constant index 0, nargs 2
		uint16(OP_RETURN),
	}
	closure := &types.Closure{Code: code, Constants: []types.Value{sym}, Entry: 0, Arity: 0}

	v := New(mod, nil)
	for i := 0; i < 2; i++ {
		result, err := v.Apply(closure, nil)
		if err != nil {
			t.Fatalf("Apply (pass %d): %v", i, err)
		}
		if !result.Equal(types.SmallInt(42)) {
			t.Fatalf("Apply (pass %d) = %v, want 42", i, result)
		}
	}
	if code[7] != uint16(byte(OP_UGREF_INVOKE)) {
		t.Fatalf("GREF_INVOKE did not self-patch to UGREF_INVOKE in place")
	}
}
