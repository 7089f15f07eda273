package types

// Module is the minimal concrete form of the "current module" / global
// binding table spec.md names as an external collaborator (§1, §9):
// symbol-to-value storage that GLOBAL_REF/UGLOBAL_REF and DEFINE_SYMBOL
// read and write. Grounded on db/store.go's map-backed Store, trimmed to
// single-thread (spec.md §5: only one thread executes bytecode, so no
// locking is needed) and to a flat symbol table instead of an object
// graph.
type Module struct {
	Name     string
	bindings map[Symbol]Value
}

func NewModule(name string) *Module {
	return &Module{Name: name, bindings: make(map[Symbol]Value)}
}

func (m *Module) Type() TypeCode { return TypeModule }
func (m *Module) Truthy() bool   { return true }
func (m *Module) String() string { return "#<module " + m.Name + ">" }
func (m *Module) Equal(v Value) bool {
	o, ok := v.(*Module)
	return ok && o == m
}

// Lookup returns the binding for sym and whether it exists.
func (m *Module) Lookup(sym Symbol) (Value, bool) {
	v, ok := m.bindings[sym]
	return v, ok
}

// Define creates or overwrites the binding for sym.
func (m *Module) Define(sym Symbol, v Value) {
	m.bindings[sym] = v
}

// Set mutates an existing binding, reporting false if sym is unbound
// (the caller raises unbound-variable in that case).
func (m *Module) Set(sym Symbol, v Value) bool {
	if _, ok := m.bindings[sym]; !ok {
		return false
	}
	m.bindings[sym] = v
	return true
}

// Expanders holds the *expander-list* registrations made by MAKE_EXPANDER
// (SPEC_FULL.md §4): an ordered (name . expander) alist, STklos-style.
type Expanders struct {
	entries []ExpanderEntry
}

type ExpanderEntry struct {
	Name     Symbol
	Expander Value
}

func (e *Expanders) Register(name Symbol, expander Value) {
	e.entries = append(e.entries, ExpanderEntry{Name: name, Expander: expander})
}

func (e *Expanders) Lookup(name Symbol) (Value, bool) {
	for i := len(e.entries) - 1; i >= 0; i-- {
		if e.entries[i].Name == name {
			return e.entries[i].Expander, true
		}
	}
	return nil, false
}
