// Package types defines the tagged value representation shared by the
// loader, the module table and the VM.
package types

// TypeCode identifies the dynamic variant behind a Value.
type TypeCode int

const (
	TypeBool TypeCode = iota
	TypeNil
	TypeVoid
	TypeEOF
	TypeSmallInt
	TypeChar
	TypePair
	TypeVector
	TypeString
	TypeSymbol
	TypeClosure
	TypePrimitive
	TypeFrame
	TypeModule
	TypeContinuation
	TypeGenericInstance
	TypeNextMethod
	TypeParameter
	TypeCondition
)

var typeNames = map[TypeCode]string{
	TypeBool:            "boolean",
	TypeNil:              "null",
	TypeVoid:             "void",
	TypeEOF:              "eof-object",
	TypeSmallInt:         "small-int",
	TypeChar:             "char",
	TypePair:             "pair",
	TypeVector:           "vector",
	TypeString:           "string",
	TypeSymbol:           "symbol",
	TypeClosure:          "closure",
	TypePrimitive:        "primitive",
	TypeFrame:            "frame",
	TypeModule:           "module",
	TypeContinuation:     "continuation",
	TypeGenericInstance:  "generic",
	TypeNextMethod:       "next-method",
	TypeParameter:        "parameter",
	TypeCondition:        "condition",
}

func (t TypeCode) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// Value is the interface every tagged value implements. It mirrors the
// teacher's types.Value (Type/String/Equal/Truthy) but drops the MOO
// literal-syntax assumptions baked into its String() method.
type Value interface {
	Type() TypeCode
	String() string
	Equal(Value) bool
	Truthy() bool
}

// Eqv reports Scheme eqv? equivalence: identity for heap values, value
// equality for immediates (small ints, chars, booleans).
func Eqv(a, b Value) bool {
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case SmallInt:
		bv, ok := b.(SmallInt)
		return ok && av == bv
	case Char:
		bv, ok := b.(Char)
		return ok && av == bv
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Void:
		_, ok := b.(Void)
		return ok
	case EOF:
		_, ok := b.(EOF)
		return ok
	default:
		return Eq(a, b)
	}
}

// Eq reports Scheme eq? equivalence: pointer identity for heap values,
// the same rules as Eqv for immediates.
func Eq(a, b Value) bool {
	switch av := a.(type) {
	case Bool, SmallInt, Char, Nil, Void, EOF:
		return Eqv(a, b)
	case *Pair:
		bv, ok := b.(*Pair)
		return ok && av == bv
	case *Vector:
		bv, ok := b.(*Vector)
		return ok && av == bv
	case *Str:
		bv, ok := b.(*Str)
		return ok && av == bv
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av == bv
	case *Closure:
		bv, ok := b.(*Closure)
		return ok && av == bv
	case *Primitive:
		bv, ok := b.(*Primitive)
		return ok && av == bv
	default:
		return a == b
	}
}
