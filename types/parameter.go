package types

// Parameter is a parameter object: called with zero arguments it returns
// its current value, called with one argument it sets it (optionally
// running a converter first). Grounded on vm.c's tc_parameter FUNCALL
// case.
type Parameter struct {
	Value     Value
	Converter *Closure // nil means no conversion on set
}

func (p *Parameter) Type() TypeCode { return TypeParameter }
func (p *Parameter) Truthy() bool   { return true }
func (p *Parameter) String() string { return "#<parameter>" }
func (p *Parameter) Equal(v Value) bool {
	o, ok := v.(*Parameter)
	return ok && o == p
}
