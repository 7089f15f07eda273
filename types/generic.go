package types

import "fmt"

// GenericFunction is a generic-function dispatch point. The VM funnels
// FUNCALL-on-a-generic through two host-supplied callbacks, mirroring
// vm.c's compute-applicable-methods / apply-generic / no-applicable-method
// / no-next-method quartet (§4.2's "generic-function instance" callee
// tag). ComputeApplicable returns the ordered list of applicable methods
// for a call's argument types, most-specific first.
type GenericFunction struct {
	Name              string
	Methods           []*Closure
	ComputeApplicable func(gf *GenericFunction, args []Value) []*Closure
	// NoNextMethod is called with (gf . args) if next-method is invoked
	// with none remaining; nil means raise. There is no NoApplicable
	// counterpart: §4.2 has the VM set val = void and return when no
	// method applies, leaving triggering a no-applicable-method handler
	// to the caller rather than the VM itself.
	NoNextMethod *Closure
}

func (g *GenericFunction) Type() TypeCode { return TypeGenericInstance }
func (g *GenericFunction) Truthy() bool   { return true }
func (g *GenericFunction) String() string { return fmt.Sprintf("#<generic %s>", g.Name) }
func (g *GenericFunction) Equal(v Value) bool {
	o, ok := v.(*GenericFunction)
	return ok && o == g
}

// NextMethod is the token returned to a method body so it can invoke the
// remainder of the applicable-method chain, mirroring vm.c's
// tc_next_method / NXT_MTHD_* accessors.
type NextMethod struct {
	GF      *GenericFunction
	Args    []Value
	Remain  []*Closure // the methods still to try, most-specific first
}

func (n *NextMethod) Type() TypeCode { return TypeNextMethod }
func (n *NextMethod) Truthy() bool   { return true }
func (n *NextMethod) String() string { return "#<next-method>" }
func (n *NextMethod) Equal(v Value) bool {
	o, ok := v.(*NextMethod)
	return ok && o == n
}
