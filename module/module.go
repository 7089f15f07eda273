// Package module holds the "current module" / global binding table
// spec.md's §1 and §9 name as an external collaborator
// ("resolve_symbol_to_binding", "current_module") without specifying its
// shape. types.Module already carries the symbol table itself
// (Lookup/Define/Set); Registry here is the thin multi-module layer on
// top of it a CLI or test harness uses to hand the VM a module by name,
// grounded on db/store.go's map-backed Store, trimmed to single-thread
// (spec.md §5: only one thread ever executes bytecode) and to string
// keys instead of ObjID.
package module

import "schemevm/types"

// Registry is a name-keyed table of modules.
type Registry struct {
	modules map[string]*types.Module
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*types.Module)}
}

// Get returns the named module, creating it on first reference.
func (r *Registry) Get(name string) *types.Module {
	if m, ok := r.modules[name]; ok {
		return m
	}
	m := types.NewModule(name)
	r.modules[name] = m
	return m
}

// Add registers an already-built module under its own name, overwriting
// any existing module of that name.
func (r *Registry) Add(m *types.Module) {
	r.modules[m.Name] = m
}
