package vm

import "schemevm/types"

// ActivationRecord is the 7-slot fixed-layout record §3 describes,
// represented as a Go struct rather than seven raw stack cells (a
// systems-language reimplementation choice §9 "Call dispatch" sanctions).
// Grounded on vm.c's ACT_* macros and the teacher's StackFrame fields.
type ActivationRecord struct {
	Vararg      bool            // slot 1: true if this frame holds a folded variadic tail list
	SavedEnv    *types.Frame    // slot 2
	SavedPC     int             // slot 3
	SavedConsts *Program        // slot 4 (holds both constants and code together)
	SavedFP     int             // slot 5: index of the enclosing activation record on the record stack
	Callee      types.Value     // slot 6: for backtrace
	CallSite    *types.SourceLoc // slot 7: call-site debug info, nil if none recorded
}

// VMState is the 5-slot re-entry snapshot §3 describes, kept with each
// handler record as Handler.SavedState (Apply saves its state in locals).
// Grounded on vm.c's VM_STATE_* macros.
type VMState struct {
	PC         int
	Program    *Program
	Env        *types.Frame
	FP         int
	TopHandler int // index of the active handler record, -1 if none
}

// Handler is the 3-slot exception-handler record §3 describes. Grounded
// on vm.c's HANDLER_* macros.
type Handler struct {
	Proc     types.Value
	ResumePC int
	Prev     int // index of the previous handler record, -1 if none
	// program/env/fp at install time, restored on POP_HANDLER / raise,
	// kept alongside the 3 spec'd slots the same way vm.c stashes a full
	// VM_STATE snapshot next to each handler record.
	SavedState VMState
	// OwnerGen identifies which runLoop Go frame was innermost-active
	// when this handler was pushed; raise() tags its resume panic with
	// it so only that frame's recover absorbs the jump (see handlers.go).
	OwnerGen int64
}
