package types

// Continuation is a captured escape point. The VM is the only package
// that knows how to build or restore the State payload (it holds a
// snapshot of the operand stack, register file and handler chain at
// capture time); types.Continuation only carries it around as an opaque
// value so that types has no dependency on vm. Grounded on vm.c's
// struct continuation_obj, reworked per spec.md §9's trampoline-based
// alternative (b) since Go exposes no raw native stack to copy.
type Continuation struct {
	State any  // vm-defined snapshot, opaque to this package
	Fresh bool // true until first invoked, then false (STklos fresh? semantics)
}

func (c *Continuation) Type() TypeCode { return TypeContinuation }
func (c *Continuation) Truthy() bool   { return true }
func (c *Continuation) String() string { return "#<continuation>" }
func (c *Continuation) Equal(v Value) bool {
	o, ok := v.(*Continuation)
	return ok && o == c
}

// MarkInvoked flips Fresh to false on first restore, matching
// %fresh-continuation? becoming false after the first jump through it.
func (c *Continuation) MarkInvoked() {
	c.Fresh = false
}
