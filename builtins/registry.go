// registry.go installs every primitive procedure into a module's
// binding table. Grounded on the teacher's builtins/registry.go (a
// NewRegistry() that calls r.Register(name, fn) down a long list); the
// VM version generalizes this because GLOBAL_REF/DEFINE_SYMBOL already
// do plain symbol lookup against a *types.Module (module/module.go), so
// there's no separate name->ID table to build the way the teacher's
// MOO bytecode (which addresses builtins by numeric ID) needs — a
// primitive just becomes an ordinary binding.
package builtins

import (
	"schemevm/types"
	"schemevm/vm"
)

// Install binds every primitive procedure — the pure ones in this
// package plus the VM-bound ones that need direct access to engine's
// registers (continuations, multiple values, backtrace, raise/exit) —
// into mod.
func Install(mod *types.Module, engine *vm.VM) {
	groups := [][]*types.Primitive{
		CorePrimitives(),
		DigestPrimitives(),
		genericPrimitives(),
		vm.ContinuationPrimitives(engine),
		vm.ValuesPrimitives(engine),
		vm.RaisePrimitives(engine),
		vm.GenericPrimitives(engine),
		{vm.BacktracePrimitive(engine), applyPrimitive()},
	}
	for _, prims := range groups {
		for _, p := range prims {
			mod.Define(types.Intern(p.Name), p)
		}
	}
}
