package types

import "strings"

// Pair is a mutable cons cell.
type Pair struct {
	Car Value
	Cdr Value
}

func NewPair(car, cdr Value) *Pair { return &Pair{Car: car, Cdr: cdr} }

func (p *Pair) Type() TypeCode { return TypePair }
func (p *Pair) Truthy() bool   { return true }

func (p *Pair) Equal(v Value) bool {
	o, ok := v.(*Pair)
	if !ok {
		return false
	}
	return p.Car.Equal(o.Car) && p.Cdr.Equal(o.Cdr)
}

func (p *Pair) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(p.Car.String())
	cdr := p.Cdr
	for {
		switch t := cdr.(type) {
		case *Pair:
			b.WriteByte(' ')
			b.WriteString(t.Car.String())
			cdr = t.Cdr
			continue
		case Nil:
			b.WriteByte(')')
			return b.String()
		default:
			b.WriteString(" . ")
			b.WriteString(cdr.String())
			b.WriteByte(')')
			return b.String()
		}
	}
}

// ListToSlice converts a proper list into a Go slice. ok is false if the
// value is not a proper, nil-terminated list.
func ListToSlice(v Value) (out []Value, ok bool) {
	for {
		switch t := v.(type) {
		case Nil:
			return out, true
		case *Pair:
			out = append(out, t.Car)
			v = t.Cdr
		default:
			return out, false
		}
	}
}

// SliceToList builds a proper list out of a Go slice.
func SliceToList(vs []Value) Value {
	var result Value = TheNil
	for i := len(vs) - 1; i >= 0; i-- {
		result = NewPair(vs[i], result)
	}
	return result
}
